// Package optimizers provides the Optimizers that apply gradients to the weights of network Nodes.
package optimizers

import (
	nn "github.com/sharnoff/pdgait/network"
)

func init() {
	list := []interface{}{
		func() nn.Optimizer { return SGD() },
	}

	if err := nn.RegisterAll(list); err != nil {
		panic(err)
	}
}
