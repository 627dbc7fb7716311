package optimizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nn "github.com/sharnoff/pdgait/network"
	"github.com/sharnoff/pdgait/network/costfuncs"
	"github.com/sharnoff/pdgait/network/hyperparams"
	"github.com/sharnoff/pdgait/network/operators"
)

// oneWeight builds a network with a single Neurons node of one input and one output, so that its
// weights are [w, b]
func oneWeight(t *testing.T, opt nn.Optimizer, lr float64) (*nn.Network, []float64) {
	net := new(nn.Network)
	in := net.AddInput("in", 1)
	out := net.Add("out", operators.Neurons(), 1, in).Opt(opt)
	net.AddHP("learning-rate", hyperparams.Constant(lr))
	require.NoError(t, net.Finalize(costfuncs.MSE(), out))

	ws := out.Operator().(nn.Adjustable).Weights()
	ws[0], ws[1] = 1, 0
	return net, ws
}

// step runs one sample with input 1 and target 0. With MSE the gradient of both weights is
// 2 × (w + b).
func step(t *testing.T, net *nn.Network) {
	_, _, err := net.Correct(nn.Datum{Inputs: []float64{1}, Outputs: []float64{0}})
	require.NoError(t, err)
	require.NoError(t, net.Step())
}

func TestPlainSGD(t *testing.T) {
	net, ws := oneWeight(t, SGD(), 0.1)

	step(t, net)
	// g = 2: w = 1 - 0.2, b = -0.2
	assert.InDeltaSlice(t, []float64{0.8, -0.2}, ws, 1e-12)
}

func TestNesterovMatchesHandComputation(t *testing.T) {
	net, ws := oneWeight(t, SGD().SetMomentum(0.9, true).SetWeightDecay(0.5), 0.1)

	// step 1: out = 1, grad of w = 2 + 0.5×1 = 2.5, grad of b = 2 + 0 = 2
	// v = g, update = g + 0.9 v = 1.9 g
	step(t, net)
	w1 := 1 - 0.1*1.9*2.5
	b1 := 0 - 0.1*1.9*2.0
	require.InDeltaSlice(t, []float64{w1, b1}, ws, 1e-12)

	// step 2
	out := w1 + b1
	gw := 2*out + 0.5*w1
	gb := 2*out + 0.5*b1
	vw := 0.9*2.5 + gw
	vb := 0.9*2.0 + gb
	w2 := w1 - 0.1*(gw+0.9*vw)
	b2 := b1 - 0.1*(gb+0.9*vb)

	step(t, net)
	assert.InDeltaSlice(t, []float64{w2, b2}, ws, 1e-12)
}

func TestClassicMomentum(t *testing.T) {
	net, ws := oneWeight(t, SGD().SetMomentum(0.5, false), 0.1)

	step(t, net)
	// v = g = 2
	require.InDeltaSlice(t, []float64{0.8, -0.2}, ws, 1e-12)

	step(t, net)
	// out = 0.6, g = 1.2, v = 0.5×2 + 1.2 = 2.2
	assert.InDeltaSlice(t, []float64{0.8 - 0.22, -0.2 - 0.22}, ws, 1e-12)
}

func TestNesterovNeedsMomentum(t *testing.T) {
	net, _ := oneWeight(t, SGD().SetMomentum(0, true), 0.1)

	_, _, err := net.Correct(nn.Datum{Inputs: []float64{1}, Outputs: []float64{0}})
	require.NoError(t, err)
	assert.Error(t, net.Step())
}
