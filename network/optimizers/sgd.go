package optimizers

import (
	"github.com/pkg/errors"

	nn "github.com/sharnoff/pdgait/network"
)

type sgd struct {
	Momentum float64 `msgpack:"momentum"`
	Nesterov bool    `msgpack:"nesterov"`

	// WeightDecay adds WeightDecay × w to the gradient of each weight before momentum is applied
	WeightDecay float64 `msgpack:"weight_decay"`

	// Velocity is the momentum buffer, one value per weight. It is allocated on the first step.
	Velocity []float64 `msgpack:"velocity"`
}

// SGD returns stochastic gradient descent, using the "learning-rate" hyperparameter. With no
// momentum, each step is simply:
//
//	w -= lr × g
func SGD() *sgd {
	return new(sgd)
}

// SetMomentum sets the momentum factor μ. Each step then becomes:
//
//	v = μ v + g
//	w -= lr × v
//
// or, with Nesterov enabled:
//
//	w -= lr × (g + μ v)
func (o *sgd) SetMomentum(μ float64, nesterov bool) *sgd {
	o.Momentum = μ
	o.Nesterov = nesterov
	return o
}

// SetWeightDecay sets the L2 weight decay applied inside the optimizer
func (o *sgd) SetWeightDecay(decay float64) *sgd {
	o.WeightDecay = decay
	return o
}

func (o *sgd) TypeString() string {
	return "sgd"
}

func (o *sgd) Needs() []string {
	return []string{"learning-rate"}
}

func (o *sgd) Get() interface{} {
	return *o
}

func (o *sgd) Blank() interface{} {
	return o
}

func (o *sgd) Run(n *nn.Node, size int, grad func(int) float64, add func(int, float64)) error {
	if o.Nesterov && o.Momentum <= 0 {
		return errors.Errorf("Nesterov momentum requires a positive momentum (%v)", o.Momentum)
	}

	lr := n.HP("learning-rate")

	if o.Momentum != 0 && len(o.Velocity) != size {
		if len(o.Velocity) != 0 {
			return errors.Errorf("Momentum buffer has the wrong size (%d != %d)", len(o.Velocity), size)
		}
		o.Velocity = make([]float64, size)
	}

	ws := weights(n)

	for i := 0; i < size; i++ {
		g := grad(i)
		if o.WeightDecay != 0 && ws != nil {
			g += o.WeightDecay * ws[i]
		}

		if o.Momentum != 0 {
			o.Velocity[i] = o.Momentum*o.Velocity[i] + g
			if o.Nesterov {
				g += o.Momentum * o.Velocity[i]
			} else {
				g = o.Velocity[i]
			}
		}

		add(i, -lr*g)
	}

	return nil
}

func weights(n *nn.Node) []float64 {
	if adj, ok := n.Operator().(nn.Adjustable); ok {
		return adj.Weights()
	}
	return nil
}
