package nn

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Net is an ordered stack of recurrent layers sharing one time depth. Layers
// are appended with chained shapes: each layer's input item size is the
// previous layer's output item size.
type Net struct {
	layers     []*RecurrentLayer
	depth      int
	inItemSize int
	rng        *rand.Rand

	gpu *gpuStack // non-nil while GPU forward is enabled
}

// NewNet starts an empty stack for sequences of timeDepth steps with
// inputItemSize values per step.
func NewNet(timeDepth, inputItemSize int) *Net {
	return &Net{
		depth:      timeDepth,
		inItemSize: inputItemSize,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetSeed makes subsequent weight initialization deterministic. Call it
// before appending layers.
func (n *Net) SetSeed(seed int64) {
	n.rng = rand.New(rand.NewSource(seed))
}

// AppendRecurrentLayer adds one layer producing outItemSize values per
// timestep, taking its input item size from the stack's current output.
func (n *Net) AppendRecurrentLayer(outItemSize int, policy InitPolicy, act ActivationType) error {
	if outItemSize < 1 {
		return fmt.Errorf("recurrent layer needs a positive item size, got %d", outItemSize)
	}
	in := n.inItemSize
	if len(n.layers) > 0 {
		in = n.layers[len(n.layers)-1].OutSize
	}
	n.layers = append(n.layers, NewRecurrentLayer(in, outItemSize, n.depth, policy, act, n.rng))
	return nil
}

// Depth returns the shared timestep count.
func (n *Net) Depth() int { return n.depth }

// InItemSize returns the per-timestep input width.
func (n *Net) InItemSize() int { return n.inItemSize }

// OutItemSize returns the per-timestep output width of the last layer, or
// the input width for an empty stack.
func (n *Net) OutItemSize() int {
	if len(n.layers) == 0 {
		return n.inItemSize
	}
	return n.layers[len(n.layers)-1].OutSize
}

// LayerCount returns the number of stacked layers.
func (n *Net) LayerCount() int { return len(n.layers) }

// Layer returns the i-th layer of the stack.
func (n *Net) Layer(i int) *RecurrentLayer { return n.layers[i] }

// Act runs one forward pass over a sequence of Depth() input vectors and
// returns the final layer's output sequence. The result is context-owned
// scratch, valid until the next pass through the same context. When the GPU
// path is enabled it is tried first and the CPU path serves as fallback.
func (n *Net) Act(in Sequence, ctx *Context) Sequence {
	if n.gpu != nil {
		out, err := n.actGPU(in, ctx)
		if err == nil {
			return out
		}
		fmt.Printf("[WARNING] GPU forward failed, falling back to CPU: %v\n", err)
	}
	return n.actCPU(in, ctx)
}

func (n *Net) actCPU(in Sequence, ctx *Context) Sequence {
	cur := in
	for i, l := range n.layers {
		st := ctx.states[i]
		l.forward(cur, st)
		cur = st.outputs
	}
	return cur
}

// Learn performs exactly one batched gradient step over aligned
// (input, reference) sequence pairs: forward + backward per pair with
// gradients accumulated across the batch, then a single weight update
// scaled by rate divided by the pair count. All shape checks run before any
// state is touched.
func (n *Net) Learn(inputs, refs []Sequence, cost CostKind, rate float64, ctx *Context) error {
	if len(inputs) != len(refs) {
		return fmt.Errorf("batch holds %d inputs but %d references", len(inputs), len(refs))
	}
	if len(inputs) == 0 {
		return errors.New("empty training batch")
	}
	for p := range inputs {
		if len(inputs[p]) != n.depth || len(refs[p]) != n.depth {
			return fmt.Errorf("pair %d: sequence length differs from time depth %d", p, n.depth)
		}
		if inputs[p].ItemSize() != n.InItemSize() {
			return fmt.Errorf("pair %d: input item size %d, want %d", p, inputs[p].ItemSize(), n.InItemSize())
		}
		if refs[p].ItemSize() != n.OutItemSize() {
			return fmt.Errorf("pair %d: reference item size %d, want %d", p, refs[p].ItemSize(), n.OutItemSize())
		}
	}

	for _, st := range ctx.states {
		st.zero()
	}

	for p := range inputs {
		out := n.actCPU(inputs[p], ctx)
		for t := range out {
			costGradient(cost, out[t], refs[p][t], ctx.costGrad[t])
		}
		grad := ctx.costGrad
		for i := len(n.layers) - 1; i >= 0; i-- {
			n.layers[i].backward(grad, ctx.states[i])
			grad = ctx.states[i].gradIn
		}
	}

	scale := rate / float64(len(inputs))
	for i, l := range n.layers {
		l.applyGradients(scale, ctx.states[i])
	}
	n.syncGPU()
	return nil
}
