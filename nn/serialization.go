package nn

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
)

const (
	modelFormat  = "banalyzer-rnn"
	modelVersion = 1
)

// LayerDefinition is the serialized form of one recurrent layer. Weight
// blobs are base64-encoded little-endian float64 values in row-major order.
type LayerDefinition struct {
	Type       string `json:"type"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	Activation string `json:"activation"`
	WIn        string `json:"w_in"`
	WRec       string `json:"w_rec"`
	Bias       string `json:"bias"`
}

// SavedModel is the on-disk bundle: a header describing the stack plus the
// per-layer weight blobs.
type SavedModel struct {
	ID            string            `json:"id"`
	Format        string            `json:"format"`
	Version       int               `json:"version"`
	TimeDepth     int               `json:"time_depth"`
	InputItemSize int               `json:"input_item_size"`
	Layers        []LayerDefinition `json:"layers"`
}

// SaveToString serializes the network, assigning the bundle a fresh id.
func (n *Net) SaveToString() (string, error) {
	model := SavedModel{
		ID:            uuid.NewString(),
		Format:        modelFormat,
		Version:       modelVersion,
		TimeDepth:     n.depth,
		InputItemSize: n.inItemSize,
	}
	for _, l := range n.layers {
		model.Layers = append(model.Layers, LayerDefinition{
			Type:       "recurrent",
			InputSize:  l.InSize,
			OutputSize: l.OutSize,
			Activation: activationName(l.Act),
			WIn:        encodeFloats(l.WIn.RawMatrix().Data),
			WRec:       encodeFloats(l.WRec.RawMatrix().Data),
			Bias:       encodeFloats(l.Bias.RawVector().Data),
		})
	}

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal model: %w", err)
	}
	return string(data), nil
}

// SaveToFile writes the serialized network to path.
func (n *Net) SaveToFile(path string) error {
	s, err := n.SaveToString()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(s), 0644)
}

// LoadNetFromString rebuilds a network from a SaveToString bundle. Weights
// round-trip bit-for-bit.
func LoadNetFromString(s string) (*Net, error) {
	var model SavedModel
	if err := json.Unmarshal([]byte(s), &model); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if model.Format != modelFormat {
		return nil, fmt.Errorf("unexpected model format %q", model.Format)
	}
	if model.Version != modelVersion {
		return nil, fmt.Errorf("unsupported model version %d", model.Version)
	}
	if model.TimeDepth < 1 || model.InputItemSize < 1 || len(model.Layers) == 0 {
		return nil, fmt.Errorf("model header is incomplete")
	}

	net := NewNet(model.TimeDepth, model.InputItemSize)
	in := model.InputItemSize
	for i, def := range model.Layers {
		if def.Type != "recurrent" {
			return nil, fmt.Errorf("layer %d: unsupported type %q", i, def.Type)
		}
		if def.InputSize != in {
			return nil, fmt.Errorf("layer %d: input size %d does not chain from %d", i, def.InputSize, in)
		}
		act, err := activationFromName(def.Activation)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		if err := net.AppendRecurrentLayer(def.OutputSize, InitRandomNormal, act); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}

		l := net.layers[i]
		if err := decodeFloatsInto(def.WIn, l.WIn.RawMatrix().Data); err != nil {
			return nil, fmt.Errorf("layer %d input weights: %w", i, err)
		}
		if err := decodeFloatsInto(def.WRec, l.WRec.RawMatrix().Data); err != nil {
			return nil, fmt.Errorf("layer %d recurrent weights: %w", i, err)
		}
		if err := decodeFloatsInto(def.Bias, l.Bias.RawVector().Data); err != nil {
			return nil, fmt.Errorf("layer %d bias: %w", i, err)
		}
		in = def.OutputSize
	}
	return net, nil
}

// LoadNetFromFile reads and rebuilds a network saved with SaveToFile.
func LoadNetFromFile(path string) (*Net, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return LoadNetFromString(string(data))
}

func encodeFloats(v []float64) string {
	buf := make([]byte, 8*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

func decodeFloatsInto(s string, dst []float64) error {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("decode weight blob: %w", err)
	}
	if len(raw) != 8*len(dst) {
		return fmt.Errorf("weight blob holds %d bytes, want %d", len(raw), 8*len(dst))
	}
	for i := range dst {
		dst[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return nil
}
