package operators

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nn "github.com/sharnoff/pdgait/network"
)

// biasValue is the constant input that every bias weight is multiplied by
const biasValue float64 = 1

type neurons struct {
	// ws holds one row per output value: a weight for each input, followed by the bias
	ws []float64

	// w is a view of ws with shape (size, inputs+1)
	w *mat.Dense

	// the inputs, with biasValue appended, as of the most recent evaluation
	x *mat.VecDense
}

// Neurons returns a fully connected layer: each value is the weighted sum of every input value,
// plus a bias. It implements network.Layer and network.Adjustable.
func Neurons() *neurons {
	return new(neurons)
}

func (t *neurons) TypeString() string {
	return "neurons"
}

func (t *neurons) Finalize(n *nn.Node) error {
	numInputs := n.NumInputs()
	if numInputs == 0 {
		return errors.Errorf("Neurons must have at least one input value")
	}

	t.ws = make([]float64, n.Size()*(numInputs+1))
	t.w = mat.NewDense(n.Size(), numInputs+1, t.ws)
	t.x = mat.NewVecDense(numInputs+1, nil)
	return nil
}

func (t *neurons) Evaluate(n *nn.Node, values []float64) {
	in := t.x.RawVector().Data
	last := len(in) - 1
	for i := 0; i < last; i++ {
		in[i] = n.InputValue(i)
	}
	in[last] = biasValue

	out := mat.NewVecDense(len(values), values)
	out.MulVec(t.w, t.x)
}

func (t *neurons) InputDeltas(n *nn.Node) []float64 {
	ds := make([]float64, n.Size())
	for i := range ds {
		ds[i] = n.Delta(i)
	}

	_, cols := t.w.Dims()
	var back mat.VecDense
	back.MulVec(t.w.T(), mat.NewVecDense(len(ds), ds))

	// the delta of the bias input is dropped
	return back.RawVector().Data[:cols-1]
}

func (t *neurons) Weights() []float64 {
	return t.ws
}

func (t *neurons) Grad(n *nn.Node, index int) float64 {
	_, cols := t.w.Dims()
	v, in := index/cols, index%cols

	return t.x.AtVec(in) * n.Delta(v)
}
