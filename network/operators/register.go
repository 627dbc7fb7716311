// Package operators provides the standard Operators for network Nodes: fully connected layers,
// convolution and pooling over time, and activation functions.
package operators

import (
	nn "github.com/sharnoff/pdgait/network"
)

func init() {
	list := []interface{}{
		func() nn.Operator { return LeakyReLU(0) },
		func() nn.Operator { return Conv() },
		func() nn.Operator { return Pool() },
		func() nn.Operator { return Identity() },
		func() nn.Operator { return Logistic() },
		func() nn.Operator { return Neurons() },
		func() nn.Operator { return Softmax() },
		func() nn.Operator { return Tanh() },
		func() nn.Operator { return ReLU() },
	}

	if err := nn.RegisterAll(list); err != nil {
		panic(err)
	}
}
