package penalties

import (
	"math"
)

// **********************************************
// L1 (Lasso)
// **********************************************

type l1 float64

// λ is a small value close to 0 where λ > 0
func L1(λ float64) *l1 {
	p := l1(λ)
	return &p
}

func (p *l1) TypeString() string {
	return "l1-lasso"
}

func (p *l1) Penalize(w, grad float64) float64 {
	if w == 0 {
		return grad
	}
	return grad + float64(*p)*math.Copysign(1, w)
}

func (p *l1) Get() interface{} {
	return *p
}

func (p *l1) Blank() interface{} {
	return p
}

// **********************************************
// L2 (Ridge)
// **********************************************

type l2 float64

// λ is a small value close to 0 where λ > 0
func L2(λ float64) *l2 {
	p := l2(λ)
	return &p
}

func (p *l2) TypeString() string {
	return "l2-ridge"
}

func (p *l2) Penalize(w, grad float64) float64 {
	return grad + 2*float64(*p)*w
}

func (p *l2) Get() interface{} {
	return *p
}

func (p *l2) Blank() interface{} {
	return p
}

// **********************************************
// Weight decay
// **********************************************

type decay float64

// WeightDecay adds λw to each gradient, which is the gradient of (λ/2)w². This is the "weight
// decay" of most training frameworks, and half of L2 with the same λ.
func WeightDecay(λ float64) *decay {
	p := decay(λ)
	return &p
}

func (p *decay) TypeString() string {
	return "weight-decay"
}

func (p *decay) Penalize(w, grad float64) float64 {
	return grad + float64(*p)*w
}

func (p *decay) Get() interface{} {
	return *p
}

func (p *decay) Blank() interface{} {
	return p
}
