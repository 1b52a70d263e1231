// Package nn implements the recurrent network engine: stacked recurrent
// layers over time-indexed sequences, forward evaluation and single-step
// batched learning through a reusable context.
package nn

import "gonum.org/v1/gonum/mat"

// ActivationType selects the elementwise nonlinearity applied by a layer.
type ActivationType int

const (
	ActivationSigmoid ActivationType = iota
	ActivationTanh
	ActivationReLU
	ActivationLinear
)

// InitPolicy selects how a layer's weight matrices are filled.
type InitPolicy int

const (
	// InitRandomNormal draws from a normal distribution scaled by the
	// layer's fan-in.
	InitRandomNormal InitPolicy = iota
	// InitXavier draws from a normal distribution scaled by fan-in and
	// fan-out combined.
	InitXavier
)

// CostKind selects the loss driving a learning step.
type CostKind int

const (
	// CostCrossEntropy is binary cross-entropy over per-component
	// probabilities, intended for sigmoid outputs.
	CostCrossEntropy CostKind = iota
	// CostMSE is half the summed squared error.
	CostMSE
)

// SinglePrecision reports whether the engine computes in 32-bit floats.
// The engine works in float64 throughout; boundary layers use this constant
// to describe buffer widths to foreign callers.
const SinglePrecision = false

// Sequence is one sample: an ordered list of per-timestep feature vectors,
// all of the same length.
type Sequence []*mat.VecDense

// NewSequence allocates a sequence of steps zeroed vectors holding itemSize
// values each.
func NewSequence(steps, itemSize int) Sequence {
	s := make(Sequence, steps)
	for t := range s {
		s[t] = mat.NewVecDense(itemSize, nil)
	}
	return s
}

// ItemSize returns the per-timestep vector length, 0 for an empty sequence.
func (s Sequence) ItemSize() int {
	if len(s) == 0 || s[0] == nil {
		return 0
	}
	return s[0].Len()
}

// Clone returns a deep copy of the sequence.
func (s Sequence) Clone() Sequence {
	out := make(Sequence, len(s))
	for t, v := range s {
		if v != nil {
			out[t] = mat.VecDenseCopyOf(v)
		}
	}
	return out
}
