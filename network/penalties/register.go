// Package penalties provides weight Penalties (regularization) for network Nodes.
package penalties

import (
	nn "github.com/sharnoff/pdgait/network"
)

func init() {
	list := []interface{}{
		func() nn.Penalty { return ElasticNet(0, 0) },
		func() nn.Penalty { return WeightDecay(0) },
		func() nn.Penalty { return L1(0) },
		func() nn.Penalty { return L2(0) },
	}

	if err := nn.RegisterAll(list); err != nil {
		panic(err)
	}
}
