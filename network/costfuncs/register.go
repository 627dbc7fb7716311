// Package costfuncs provides the standard CostFunctions for networks.
//
// CrossEntropy and Focal are given the raw outputs (logits) of the network and apply a softmax
// themselves; targets are expected to be one-hot, or at least to sum to one.
package costfuncs

import (
	nn "github.com/sharnoff/pdgait/network"
)

func init() {
	list := []interface{}{
		func() nn.CostFunction { return CrossEntropy() },
		func() nn.CostFunction { return Focal(1, 2) },
		func() nn.CostFunction { return MSE() },
	}

	if err := nn.RegisterAll(list); err != nil {
		panic(err)
	}
}
