package nn

import (
	"errors"
	"fmt"

	"github.com/dragunovdenis/banalyzer-native/gpu"
)

// gpuStack mirrors the layer stack with compiled compute pipelines.
type gpuStack struct {
	layers []*gpu.Recurrent
}

func (s *gpuStack) release() {
	for _, l := range s.layers {
		if l != nil {
			l.Cleanup()
		}
	}
	s.layers = nil
}

func gpuActivation(act ActivationType) gpu.Activation {
	switch act {
	case ActivationSigmoid:
		return gpu.ActSigmoid
	case ActivationTanh:
		return gpu.ActTanh
	case ActivationReLU:
		return gpu.ActReLU
	default:
		return gpu.ActLinear
	}
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// EnableGPU compiles a compute pipeline per layer and routes subsequent Act
// calls through it. The device works in float32, so the accelerated forward
// is an approximation of the CPU result; learning always runs on the CPU
// and re-uploads weights after each step. Fails without touching the
// network when no usable device exists.
func (n *Net) EnableGPU() error {
	if n.gpu != nil {
		return nil
	}
	if len(n.layers) == 0 {
		return errors.New("no layers to accelerate")
	}

	stack := &gpuStack{}
	for i, l := range n.layers {
		r, err := gpu.NewRecurrent(gpu.RecurrentSpec{
			InputSize:  l.InSize,
			HiddenSize: l.OutSize,
			Steps:      n.depth,
			Activation: gpuActivation(l.Act),
			WIn:        toFloat32(l.WIn.RawMatrix().Data),
			WRec:       toFloat32(l.WRec.RawMatrix().Data),
			Bias:       toFloat32(l.Bias.RawVector().Data),
		}, fmt.Sprintf("recurrent_l%d", i))
		if err != nil {
			stack.release()
			return fmt.Errorf("layer %d: %w", i, err)
		}
		stack.layers = append(stack.layers, r)
	}
	n.gpu = stack
	return nil
}

// DisableGPU releases the compute pipelines and returns Act to the CPU path.
func (n *Net) DisableGPU() {
	if n.gpu != nil {
		n.gpu.release()
		n.gpu = nil
	}
}

// syncGPU pushes the current weights to the device after a learning step.
func (n *Net) syncGPU() {
	if n.gpu == nil {
		return
	}
	for i, l := range n.layers {
		n.gpu.layers[i].UpdateWeights(
			toFloat32(l.WIn.RawMatrix().Data),
			toFloat32(l.WRec.RawMatrix().Data),
			toFloat32(l.Bias.RawVector().Data),
		)
	}
}

func (n *Net) actGPU(in Sequence, ctx *Context) (Sequence, error) {
	cur := make([]float32, 0, len(in)*in.ItemSize())
	for _, v := range in {
		for _, f := range v.RawVector().Data {
			cur = append(cur, float32(f))
		}
	}

	for _, r := range n.gpu.layers {
		out, err := r.Forward(cur)
		if err != nil {
			return nil, err
		}
		cur = out
	}

	last := ctx.states[len(ctx.states)-1]
	itemOut := n.OutItemSize()
	for t := 0; t < n.depth; t++ {
		d := last.outputs[t].RawVector().Data
		for j := range d {
			d[j] = float64(cur[t*itemOut+j])
		}
	}
	return last.outputs, nil
}
