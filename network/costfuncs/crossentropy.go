package costfuncs

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type crossEntropy int8

// CrossEntropy returns the softmax cross-entropy cost function
func CrossEntropy() crossEntropy {
	return crossEntropy(0)
}

func (c crossEntropy) TypeString() string {
	return "cross-entropy"
}

func (c crossEntropy) Cost(outs, targets []float64) float64 {
	return softmaxCE(outs, targets)
}

func (c crossEntropy) Derivs(outs, targets []float64) []float64 {
	ds := softmax(outs)
	floats.Sub(ds, targets)
	return ds
}

// softmaxCE returns -Σ t_i log(softmax(z)_i)
func softmaxCE(z, t []float64) float64 {
	lse := floats.LogSumExp(z)

	var ce float64
	for i := range z {
		if t[i] != 0 {
			ce -= t[i] * (z[i] - lse)
		}
	}

	return ce
}

func softmax(z []float64) []float64 {
	lse := floats.LogSumExp(z)

	p := make([]float64, len(z))
	for i := range z {
		p[i] = math.Exp(z[i] - lse)
	}

	return p
}
