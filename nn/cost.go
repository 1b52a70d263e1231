package nn

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// ceEpsilon bounds probabilities away from 0 and 1 so cross-entropy stays
// finite on saturated outputs.
const ceEpsilon = 1e-12

// costGradient writes dL/dout for one timestep into dst.
func costGradient(kind CostKind, out, ref, dst *mat.VecDense) {
	o := out.RawVector().Data
	r := ref.RawVector().Data
	d := dst.RawVector().Data

	switch kind {
	case CostCrossEntropy:
		for i := range d {
			den := o[i] * (1.0 - o[i])
			if den < ceEpsilon {
				den = ceEpsilon
			}
			d[i] = (o[i] - r[i]) / den
		}
	case CostMSE:
		for i := range d {
			d[i] = o[i] - r[i]
		}
	}
}

// CostValue returns the loss of an output sequence against a reference
// sequence, summed over timesteps and components.
func CostValue(kind CostKind, out, ref Sequence) float64 {
	total := 0.0
	for t := range out {
		o := out[t].RawVector().Data
		r := ref[t].RawVector().Data
		switch kind {
		case CostCrossEntropy:
			for i := range o {
				p := o[i]
				if p < ceEpsilon {
					p = ceEpsilon
				} else if p > 1.0-ceEpsilon {
					p = 1.0 - ceEpsilon
				}
				total += -(r[i]*math.Log(p) + (1.0-r[i])*math.Log(1.0-p))
			}
		case CostMSE:
			for i := range o {
				diff := o[i] - r[i]
				total += 0.5 * diff * diff
			}
		}
	}
	return total
}
