// Package rnn wraps the engine's recurrent stack behind the shape-validated
// construct/evaluate/train surface exposed across the native boundary. It
// owns the one place where flat caller buffers meet the engine's sequence
// representation, and enforces every sizing invariant before any work runs.
package rnn

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dragunovdenis/banalyzer-native/nn"
	"github.com/dragunovdenis/banalyzer-native/seqcodec"
)

// Network is one constructed recurrent network plus its reusable execution
// context and conversion scratch. A Network is not safe for concurrent use;
// callers sharing one across goroutines must serialize access. Distinct
// Networks are fully independent.
type Network struct {
	net *nn.Net
	ctx *nn.Context

	plainInSize  int
	plainOutSize int

	inSeq    nn.Sequence // evaluate scratch, resized per call
	outBuf   []float64   // evaluate result, reused across calls
	trainIn  []nn.Sequence
	trainRef []nn.Sequence

	logger *logrus.Logger
}

// New builds a network from a shape descriptor: element 0 is the
// per-timestep input item size, each later element appends one recurrent
// layer with that output item size. Every layer spans timeDepth steps and
// uses random-normal weights with a sigmoid nonlinearity. A nil logger
// falls back to a fresh default logger.
func New(timeDepth int, layerItemSizes []int, logger *logrus.Logger) (*Network, error) {
	return newNetwork(timeDepth, layerItemSizes, 0, logger)
}

func newNetwork(timeDepth int, layerItemSizes []int, seed int64, logger *logrus.Logger) (*Network, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if len(layerItemSizes) < 2 {
		return nil, fmt.Errorf("%w: descriptor needs at least 2 entries, got %d", ErrConstruction, len(layerItemSizes))
	}
	if timeDepth < 1 {
		return nil, fmt.Errorf("%w: time depth must be positive, got %d", ErrConstruction, timeDepth)
	}
	for i, size := range layerItemSizes {
		if size < 1 {
			return nil, fmt.Errorf("%w: descriptor entry %d must be positive, got %d", ErrConstruction, i, size)
		}
	}

	net := nn.NewNet(timeDepth, layerItemSizes[0])
	if seed != 0 {
		net.SetSeed(seed)
	}
	for _, size := range layerItemSizes[1:] {
		if err := net.AppendRecurrentLayer(size, nn.InitRandomNormal, nn.ActivationSigmoid); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConstruction, err)
		}
	}

	r := &Network{
		net:          net,
		ctx:          net.AllocateContext(),
		plainInSize:  layerItemSizes[0] * timeDepth,
		plainOutSize: layerItemSizes[len(layerItemSizes)-1] * timeDepth,
		inSeq:        make(nn.Sequence, timeDepth),
		logger:       logger,
	}
	r.outBuf = make([]float64, r.plainOutSize)

	logger.WithFields(logrus.Fields{
		"time_depth":        timeDepth,
		"layer_item_sizes":  layerItemSizes,
		"plain_input_size":  r.plainInSize,
		"plain_output_size": r.plainOutSize,
	}).Info("recurrent network constructed")
	return r, nil
}

// InputItemSize returns the per-timestep input width.
func (r *Network) InputItemSize() int { return r.net.InItemSize() }

// OutputItemSize returns the per-timestep output width.
func (r *Network) OutputItemSize() int { return r.net.OutItemSize() }

// PlainInputSize returns the flat length of one full input sample,
// InputItemSize × TimeDepth.
func (r *Network) PlainInputSize() int { return r.plainInSize }

// PlainOutputSize returns the flat length of one full output sample,
// OutputItemSize × TimeDepth.
func (r *Network) PlainOutputSize() int { return r.plainOutSize }

// LayerCount returns the number of stacked layers.
func (r *Network) LayerCount() int { return r.net.LayerCount() }

// TimeDepth returns the number of timesteps per sample.
func (r *Network) TimeDepth() int { return r.net.Depth() }

// Net exposes the underlying engine stack for serialization, metrics and
// acceleration helpers outside the boundary surface.
func (r *Network) Net() *nn.Net { return r.net }

// Evaluate runs one forward pass over a flat input of exactly
// PlainInputSize values and returns a flat output of PlainOutputSize
// values. The returned slice is instance-owned scratch, valid until the
// next Evaluate on this Network. Learned parameters are never touched; a
// size mismatch fails before any conversion work.
func (r *Network) Evaluate(input []float64) ([]float64, error) {
	if len(input) != r.plainInSize {
		return nil, fmt.Errorf("%w: input holds %d values, want %d", ErrShapeMismatch, len(input), r.plainInSize)
	}

	seqcodec.Unpack(r.InputItemSize(), input, r.inSeq)
	out := r.net.Act(r.inSeq, r.ctx)
	seqcodec.Pack(out, r.outBuf)
	return r.outBuf, nil
}

// Train performs exactly one batched learning step. Both aggregates must be
// exact multiples of their plain sizes and imply the same pair count; pair
// i occupies flat offsets i×PlainInputSize and i×PlainOutputSize in
// matching order. The step uses cross-entropy cost at the given rate and
// mutates weights in place through the cached context. All checks run
// before any conversion, so a rejected call changes nothing. Callers drive
// iteration externally.
func (r *Network) Train(inputAggregate, referenceAggregate []float64, learningRate float64) error {
	if len(inputAggregate)%r.plainInSize != 0 {
		return fmt.Errorf("%w: input aggregate of %d is not a multiple of %d", ErrShapeMismatch, len(inputAggregate), r.plainInSize)
	}
	if len(referenceAggregate)%r.plainOutSize != 0 {
		return fmt.Errorf("%w: reference aggregate of %d is not a multiple of %d", ErrShapeMismatch, len(referenceAggregate), r.plainOutSize)
	}
	pairCount := len(inputAggregate) / r.plainInSize
	if pairCount != len(referenceAggregate)/r.plainOutSize {
		return fmt.Errorf("%w: aggregates imply %d vs %d pairs", ErrShapeMismatch, pairCount, len(referenceAggregate)/r.plainOutSize)
	}
	if pairCount == 0 {
		return nil
	}

	depth := r.net.Depth()
	for len(r.trainIn) < pairCount {
		r.trainIn = append(r.trainIn, make(nn.Sequence, depth))
		r.trainRef = append(r.trainRef, make(nn.Sequence, depth))
	}
	for i := 0; i < pairCount; i++ {
		seqcodec.Unpack(r.InputItemSize(), inputAggregate[i*r.plainInSize:], r.trainIn[i])
		seqcodec.Unpack(r.OutputItemSize(), referenceAggregate[i*r.plainOutSize:], r.trainRef[i])
	}

	if err := r.net.Learn(r.trainIn[:pairCount], r.trainRef[:pairCount], nn.CostCrossEntropy, learningRate, r.ctx); err != nil {
		return fmt.Errorf("learning step: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"pairs":         pairCount,
		"learning_rate": learningRate,
	}).Debug("batch step applied")
	return nil
}

// Close releases acceleration resources if any were enabled. The Network
// must not be used afterwards.
func (r *Network) Close() error {
	r.net.DisableGPU()
	return nil
}
