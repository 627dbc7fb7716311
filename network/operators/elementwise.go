package operators

import (
	"math"

	nn "github.com/sharnoff/pdgait/network"
)

// ****************************************
// Identity
// ****************************************

type identity int8

// Identity returns an Elementwise Operator that passes its inputs through unchanged. It can be
// used to concatenate the values of several Nodes.
func Identity() identity {
	return identity(0)
}

func (t identity) TypeString() string {
	return "identity"
}

func (t identity) Finalize(n *nn.Node) error {
	return nil
}

func (t identity) Value(in float64, index int) float64 {
	return in
}

func (t identity) Deriv(n *nn.Node, index int) float64 {
	return 1
}

// ****************************************
// ReLU
// ****************************************

type relu int8

// ReLU returns the standard rectified linear unit, which implements network.Elementwise.
func ReLU() relu {
	return relu(0)
}

func (t relu) TypeString() string {
	return "relu"
}

func (t relu) Finalize(n *nn.Node) error {
	return nil
}

func (t relu) Value(in float64, index int) float64 {
	return math.Max(in, 0)
}

func (t relu) Deriv(n *nn.Node, index int) float64 {
	if n.InputValue(index) > 0 {
		return 1
	}
	return 0
}

// ****************************************
// Leaky ReLU
// ****************************************

type lrelu float64

// LeakyReLU returns a standard 'leaky ReLU', where the leaky factor is given by alpha.
func LeakyReLU(alpha float64) *lrelu {
	t := lrelu(alpha)
	return &t
}

func (t *lrelu) TypeString() string {
	return "leaky-relu"
}

func (t *lrelu) Get() interface{} {
	return *t
}

func (t *lrelu) Blank() interface{} {
	return t
}

func (t *lrelu) Finalize(n *nn.Node) error {
	return nil
}

func (t *lrelu) Value(in float64, index int) float64 {
	if in < 0 {
		return float64(*t) * in
	}
	return in
}

func (t *lrelu) Deriv(n *nn.Node, index int) float64 {
	if n.InputValue(index) < 0 {
		return float64(*t)
	}
	return 1
}

// ****************************************
// Tanh
// ****************************************

type tanh int8

// Tanh returns the hyperbolic tangent as an Elementwise Operator
func Tanh() tanh {
	return tanh(0)
}

func (t tanh) TypeString() string {
	return "tanh"
}

func (t tanh) Finalize(n *nn.Node) error {
	return nil
}

func (t tanh) Value(in float64, index int) float64 {
	return math.Tanh(in)
}

func (t tanh) Deriv(n *nn.Node, index int) float64 {
	v := n.Value(index)
	return 1 - v*v
}

// ****************************************
// Logistic
// ****************************************

type logistic int8

// Logistic returns the logistic sigmoid, 1 / (1 + e^-x)
func Logistic() logistic {
	return logistic(0)
}

func (t logistic) TypeString() string {
	return "logistic"
}

func (t logistic) Finalize(n *nn.Node) error {
	return nil
}

func (t logistic) Value(in float64, index int) float64 {
	return 1 / (1 + math.Exp(-in))
}

func (t logistic) Deriv(n *nn.Node, index int) float64 {
	v := n.Value(index)
	return v * (1 - v)
}
