package nn

import "gonum.org/v1/gonum/mat"

// layerState holds one layer's forward caches, gradient accumulators and
// backward scratch. States are context-owned so a single Net can serve
// several contexts without sharing mutable buffers.
type layerState struct {
	inputs  Sequence // borrowed reference to the layer's last input
	preActs Sequence
	outputs Sequence
	gradIn  Sequence // dL/dx per timestep, handed to the preceding layer

	gradWIn  *mat.Dense
	gradWRec *mat.Dense
	gradBias *mat.VecDense

	delta  *mat.VecDense // dL/dpre at the current timestep
	carry  *mat.VecDense // recurrent gradient carried to the previous step
	recTmp *mat.VecDense
}

func newLayerState(l *RecurrentLayer) *layerState {
	return &layerState{
		preActs:  NewSequence(l.Steps, l.OutSize),
		outputs:  NewSequence(l.Steps, l.OutSize),
		gradIn:   NewSequence(l.Steps, l.InSize),
		gradWIn:  mat.NewDense(l.OutSize, l.InSize, nil),
		gradWRec: mat.NewDense(l.OutSize, l.OutSize, nil),
		gradBias: mat.NewVecDense(l.OutSize, nil),
		delta:    mat.NewVecDense(l.OutSize, nil),
		carry:    mat.NewVecDense(l.OutSize, nil),
		recTmp:   mat.NewVecDense(l.OutSize, nil),
	}
}

// zero clears the gradient accumulators before a new learning step.
func (st *layerState) zero() {
	st.gradWIn.Zero()
	st.gradWRec.Zero()
	st.gradBias.Zero()
}

// Context is the reusable scratch a Net needs to evaluate and learn. It is
// bound to the stack shape it was allocated for and is not safe for
// concurrent use; allocate one context per goroutine instead.
type Context struct {
	states   []*layerState
	costGrad Sequence // dL/dh on the final layer's outputs
}

// AllocateContext sizes a fresh context to the current layer stack.
func (n *Net) AllocateContext() *Context {
	ctx := &Context{}
	for _, l := range n.layers {
		ctx.states = append(ctx.states, newLayerState(l))
	}
	if len(n.layers) > 0 {
		ctx.costGrad = NewSequence(n.depth, n.OutItemSize())
	}
	return ctx
}

// Output returns the final layer's cached output sequence from the most
// recent forward pass through this context.
func (c *Context) Output() Sequence {
	if len(c.states) == 0 {
		return nil
	}
	return c.states[len(c.states)-1].outputs
}
