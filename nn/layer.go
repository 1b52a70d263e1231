package nn

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// RecurrentLayer is one recurrent transformation spanning a fixed number of
// timesteps. For each step t it computes
//
//	h_t = act(WIn·x_t + WRec·h_{t-1} + Bias)
//
// with h_0 = 0; the sequence h_1..h_T is the layer's output and feeds the
// next layer's input.
type RecurrentLayer struct {
	WIn  *mat.Dense    // input weights, OutSize×InSize
	WRec *mat.Dense    // hidden-to-hidden weights, OutSize×OutSize
	Bias *mat.VecDense // OutSize

	Act     ActivationType
	InSize  int
	OutSize int
	Steps   int
}

// NewRecurrentLayer builds a layer with freshly initialized weights and a
// zero bias.
func NewRecurrentLayer(inSize, outSize, steps int, policy InitPolicy, act ActivationType, rng *rand.Rand) *RecurrentLayer {
	l := &RecurrentLayer{
		WIn:     mat.NewDense(outSize, inSize, nil),
		WRec:    mat.NewDense(outSize, outSize, nil),
		Bias:    mat.NewVecDense(outSize, nil),
		Act:     act,
		InSize:  inSize,
		OutSize: outSize,
		Steps:   steps,
	}
	fillWeights(l.WIn, policy, inSize, outSize, rng)
	fillWeights(l.WRec, policy, outSize, outSize, rng)
	return l
}

// fillWeights populates a weight matrix according to the policy.
func fillWeights(w *mat.Dense, policy InitPolicy, fanIn, fanOut int, rng *rand.Rand) {
	var stddev float64
	switch policy {
	case InitXavier:
		stddev = math.Sqrt(2.0 / float64(fanIn+fanOut))
	default:
		stddev = 1.0 / math.Sqrt(float64(fanIn))
	}
	data := w.RawMatrix().Data
	for i := range data {
		data[i] = rng.NormFloat64() * stddev
	}
}

// forward runs the layer over one input sequence, caching pre-activations
// and outputs in the state for a later backward pass.
func (l *RecurrentLayer) forward(in Sequence, st *layerState) {
	st.inputs = in
	for t := 0; t < l.Steps; t++ {
		pre := st.preActs[t]
		pre.MulVec(l.WIn, in[t])
		if t > 0 {
			st.recTmp.MulVec(l.WRec, st.outputs[t-1])
			pre.AddVec(pre, st.recTmp)
		}
		pre.AddVec(pre, l.Bias)

		preData := pre.RawVector().Data
		outData := st.outputs[t].RawVector().Data
		for i, v := range preData {
			outData[i] = activate(v, l.Act)
		}
	}
}

// backward propagates gradOut (dL/dh per timestep) through time, adding the
// layer's weight gradients into the state's accumulators and leaving the
// input gradient in st.gradIn for the preceding layer.
func (l *RecurrentLayer) backward(gradOut Sequence, st *layerState) {
	st.carry.Zero()
	deltaData := st.delta.RawVector().Data
	carryData := st.carry.RawVector().Data

	for t := l.Steps - 1; t >= 0; t-- {
		gradData := gradOut[t].RawVector().Data
		preData := st.preActs[t].RawVector().Data
		for i := range deltaData {
			deltaData[i] = (gradData[i] + carryData[i]) * activateDerivative(preData[i], l.Act)
		}

		st.gradWIn.RankOne(st.gradWIn, 1, st.delta, st.inputs[t])
		if t > 0 {
			st.gradWRec.RankOne(st.gradWRec, 1, st.delta, st.outputs[t-1])
		}
		st.gradBias.AddVec(st.gradBias, st.delta)

		st.gradIn[t].MulVec(l.WIn.T(), st.delta)
		st.carry.MulVec(l.WRec.T(), st.delta)
	}
}

// applyGradients performs one descent step W ← W − scale·grad using the
// accumulated gradients; callers fold the learning rate and batch size into
// scale.
func (l *RecurrentLayer) applyGradients(scale float64, st *layerState) {
	st.gradWIn.Scale(scale, st.gradWIn)
	l.WIn.Sub(l.WIn, st.gradWIn)

	st.gradWRec.Scale(scale, st.gradWRec)
	l.WRec.Sub(l.WRec, st.gradWRec)

	st.gradBias.ScaleVec(scale, st.gradBias)
	l.Bias.SubVec(l.Bias, st.gradBias)
}
