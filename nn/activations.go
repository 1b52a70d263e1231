package nn

import (
	"fmt"
	"math"
)

// activate applies the selected nonlinearity to a pre-activation value.
func activate(x float64, act ActivationType) float64 {
	switch act {
	case ActivationSigmoid:
		return 1.0 / (1.0 + math.Exp(-x))
	case ActivationTanh:
		return math.Tanh(x)
	case ActivationReLU:
		if x > 0 {
			return x
		}
		return 0
	case ActivationLinear:
		return x
	default:
		return x
	}
}

// activateDerivative returns d(activate)/dx at the pre-activation value x.
func activateDerivative(x float64, act ActivationType) float64 {
	switch act {
	case ActivationSigmoid:
		s := 1.0 / (1.0 + math.Exp(-x))
		return s * (1.0 - s)
	case ActivationTanh:
		t := math.Tanh(x)
		return 1.0 - t*t
	case ActivationReLU:
		if x > 0 {
			return 1
		}
		return 0
	case ActivationLinear:
		return 1
	default:
		return 1
	}
}

// activationName returns the serialized name of an activation.
func activationName(act ActivationType) string {
	switch act {
	case ActivationSigmoid:
		return "sigmoid"
	case ActivationTanh:
		return "tanh"
	case ActivationReLU:
		return "relu"
	case ActivationLinear:
		return "linear"
	default:
		return "sigmoid"
	}
}

// activationFromName is the inverse of activationName.
func activationFromName(name string) (ActivationType, error) {
	switch name {
	case "sigmoid":
		return ActivationSigmoid, nil
	case "tanh":
		return ActivationTanh, nil
	case "relu":
		return ActivationReLU, nil
	case "linear":
		return ActivationLinear, nil
	default:
		return ActivationSigmoid, fmt.Errorf("unknown activation %q", name)
	}
}
