package operators

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	nn "github.com/sharnoff/pdgait/network"
)

type softmax int8

// Softmax returns the softmax function as a network.Layer. Its size must equal its number of
// inputs.
//
// Networks trained with costfuncs.CrossEntropy or costfuncs.Focal should not end in Softmax;
// those cost functions take the raw values.
func Softmax() softmax {
	return softmax(0)
}

func (t softmax) TypeString() string {
	return "softmax"
}

func (t softmax) Finalize(n *nn.Node) error {
	if n.NumInputs() != n.Size() {
		return errors.Errorf("Softmax must have size equal to its number of inputs (%d != %d)", n.Size(), n.NumInputs())
	}
	return nil
}

func (t softmax) Evaluate(n *nn.Node, values []float64) {
	inputs := n.AllInputs()
	lse := floats.LogSumExp(inputs)

	for i := range values {
		values[i] = math.Exp(inputs[i] - lse)
	}
}

func (t softmax) InputDeltas(n *nn.Node) []float64 {
	var dot float64
	for i := 0; i < n.Size(); i++ {
		dot += n.Delta(i) * n.Value(i)
	}

	ds := make([]float64, n.Size())
	for i := range ds {
		ds[i] = n.Value(i) * (n.Delta(i) - dot)
	}

	return ds
}
