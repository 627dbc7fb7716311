package initializers

import (
	"math"

	nn "github.com/sharnoff/pdgait/network"
)

type varianceScaling struct {
	// either: "in", "out", "avg"
	mode   string
	factor float64
}

const defaultVarianceMode string = "avg"

// VarianceScaling returns the variance scaling initializer, which has 3 modes and a user-defined
// scaling factor. The three modes can be set by In, Out, and Avg. It defaults to Avg.
//
// Weights are drawn from a truncated normal distribution with variance factor / scale, where the
// scale is the number of inputs, outputs, or their average.
func VarianceScaling() *varianceScaling {
	return &varianceScaling{defaultVarianceMode, defaultValue["varscl-factor"]}
}

// Factor sets the scaling factor to be used for the Initializer.
func (v *varianceScaling) Factor(f float64) *varianceScaling {
	v.factor = f
	return v
}

// In sets the scaling to be based on the number of input values to the Node.
func (v *varianceScaling) In() *varianceScaling {
	v.mode = "in"
	return v
}

// Out sets the scaling to be based on the number of output values to the Node.
func (v *varianceScaling) Out() *varianceScaling {
	v.mode = "out"
	return v
}

// Avg sets the scaling to be based on the average of the numbers of input and output values to the
// Node.
func (v *varianceScaling) Avg() *varianceScaling {
	v.mode = "avg"
	return v
}

// Set is the implementation of network.Initializer
func (v *varianceScaling) Set(n *nn.Node, ws []float64) {
	in, out := n.NumInputs(), n.Size()
	if f, ok := n.Operator().(nn.Fanned); ok {
		in, out = f.Fan()
	}

	var scale float64
	switch v.mode {
	case "in":
		scale = float64(in)
	case "out":
		scale = float64(out)
	default:
		scale = float64(in+out) / 2
	}

	gen := TruncNormal().SD(math.Sqrt(v.factor / scale))

	for i := range ws {
		ws[i] = gen.Gen()
	}
}

// LeCun scales by the number of inputs
func LeCun() *varianceScaling {
	return VarianceScaling().In()
}

// He scales by the number of inputs, with a factor of 2. It suits ReLU activations.
func He() *varianceScaling {
	return VarianceScaling().In().Factor(2)
}

// Xavier scales by the average of the number of inputs and outputs
func Xavier() *varianceScaling {
	return VarianceScaling().Avg()
}

// Glorot is another name for Xavier
func Glorot() *varianceScaling {
	return Xavier()
}

// ByName returns the Initializer with the given name: "uniform", "normal", "lecun", "he" or
// "xavier"/"glorot". It returns nil for unknown names.
func ByName(name string) nn.Initializer {
	switch name {
	case "uniform":
		return Random(Uniform())
	case "normal":
		return Random(Normal())
	case "lecun":
		return LeCun()
	case "he":
		return He()
	case "xavier", "glorot":
		return Xavier()
	}

	return nil
}
