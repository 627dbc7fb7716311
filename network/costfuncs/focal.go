package costfuncs

import (
	"math"
)

type focal struct {
	Alpha float64 `json:"alpha"`
	Gamma float64 `json:"gamma"`
}

// Focal returns the focal loss: α (1 - pt)^γ CE, where CE is the softmax cross-entropy of the
// sample and pt = e^-CE is the probability given to the target class. With γ = 0 and α = 1 it is
// the same as CrossEntropy; larger γ reduces the cost of samples that are already classified
// confidently.
func Focal(alpha, gamma float64) *focal {
	return &focal{Alpha: alpha, Gamma: gamma}
}

func (c *focal) TypeString() string {
	return "focal"
}

func (c *focal) Get() interface{} {
	return *c
}

func (c *focal) Blank() interface{} {
	return c
}

func (c *focal) Cost(outs, targets []float64) float64 {
	ce := softmaxCE(outs, targets)
	pt := math.Exp(-ce)

	return c.Alpha * math.Pow(1-pt, c.Gamma) * ce
}

// Derivs uses dFL/dz_j = α (p_j - t_j) [γ (1-pt)^(γ-1) pt CE + (1-pt)^γ]
func (c *focal) Derivs(outs, targets []float64) []float64 {
	ce := softmaxCE(outs, targets)
	pt := math.Exp(-ce)
	q := 1 - pt

	scale := math.Pow(q, c.Gamma)
	if c.Gamma != 0 && q > 0 {
		scale += c.Gamma * math.Pow(q, c.Gamma-1) * pt * ce
	}
	scale *= c.Alpha

	ds := softmax(outs)
	for i := range ds {
		ds[i] = scale * (ds[i] - targets[i])
	}

	return ds
}
