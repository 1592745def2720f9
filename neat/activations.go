package neat

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ActivationType defines the type for transfer functions.
type ActivationType func(x float64) float64

// Transfer returns the transfer function applied to a neuron of type t.
// Classification outputs are normalized with Softmax afterwards, so their
// individual transfer is the identity.
func Transfer(t NeuronType, classification bool) ActivationType {
	switch t {
	case InputNeuron:
		return Identity
	case BiasNeuron:
		return Bias
	case OutputNeuron:
		if classification {
			return Identity
		}
	}
	return Sigmoid
}

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Identity returns x unchanged.
func Identity(x float64) float64 {
	return x
}

// Bias ignores its input and always returns 1.
func Bias(float64) float64 {
	return 1.0
}

// Softmax normalizes values in place into a probability distribution.
func Softmax(values []float64) {
	if len(values) == 0 {
		return
	}
	shift := floats.Max(values)
	sum := 0.0
	for i, v := range values {
		values[i] = math.Exp(v - shift)
		sum += values[i]
	}
	floats.Scale(1/sum, values)
}
