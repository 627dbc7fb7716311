// Package hyperparams provides HyperParameters: values such as the learning rate that may change
// with the number of optimizer steps taken.
package hyperparams

import (
	nn "github.com/sharnoff/pdgait/network"
)

func init() {
	list := []interface{}{
		func() nn.HyperParameter { return Constant(0) }, // 0 is just random. It'll be loaded.
		func() nn.HyperParameter { return Step(0) },
	}

	if err := nn.RegisterAll(list); err != nil {
		panic(err)
	}
}
