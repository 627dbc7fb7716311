package network

import (
	"fmt"
)

// String returns the Node's name, quoted. Unnamed Nodes are printed as:
//
//	<id: %d, Operator: %s>
//
// and nil Nodes as "<nil>".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}

	if n.name != "" {
		return "\"" + n.name + "\""
	} else if n.op == nil {
		return fmt.Sprintf("<Is Input, id: %d>", n.id)
	}

	return fmt.Sprintf("<id: %d, Operator: %s>", n.id, n.op.TypeString())
}

// Name returns the name of the given Node
func (n *Node) Name() string {
	return n.name
}

// ID returns the non-negative integer given to the Node as a member of its Network. IDs are unique
// within Networks.
func (n *Node) ID() int {
	return n.id
}

// IsInput returns whether or not the Node is an input Node. Input Nodes do not have Operators.
func (n *Node) IsInput() bool {
	return n.inputs == nil
}

// IsOutput returns whether or not the Node is an output Node.
func (n *Node) IsOutput() bool {
	return n.outputIndex >= 0
}

// Size returns the number of values the Node produces.
func (n *Node) Size() int {
	return len(n.values)
}

// Operator returns the Operator of the Node, which is nil for input Nodes
func (n *Node) Operator() Operator {
	return n.op
}

// HP returns the values of the given HyperParameter at the current step. HyperParameters set on
// the Node take precedence over those of the Network. If an unknown HyperParameter is requested,
// HP will panic with ErrNoHP. This should only happen with custom Optimizer types, which can be
// solved by proper usage of Optimizer.Needs().
func (n *Node) HP(name string) float64 {
	hp := n.hp(name)
	if hp == nil {
		panic(ErrNoHP)
	}

	return hp.Value(n.host.step)
}

func (n *Node) hp(name string) HyperParameter {
	if hp := n.hyperParams[name]; hp != nil {
		return hp
	}

	return n.host.hyperParams[name]
}

// Value returns the value of the Node at the specified index. Value will allow panicking with
// index-out-of-bounds.
func (n *Node) Value(index int) float64 {
	return n.values[index]
}

// Values returns a copy of the values of the Node
func (n *Node) Values() []float64 {
	vs := make([]float64, len(n.values))
	copy(vs, n.values)
	return vs
}

// InputValue returns the value of the n'th input to the Node, as of the most recent evaluation.
//
// If InputValue is called on an input Node (which has no input values), it will panic with
// ErrNoInputs
func (n *Node) InputValue(index int) float64 {
	if n.IsInput() {
		panic(ErrNoInputs)
	}

	return n.inVals[index]
}

// Delta returns the derivative of the value at the given index w.r.t. the total cost of the
// Network's outputs for the current training sample.
func (n *Node) Delta(index int) float64 {
	return n.deltas[index]
}

// Input returns the n'th input Node to the given Node. If the Node has no inputs, it will panic
// with ErrNoInputs.
func (n *Node) Input(index int) *Node {
	if n.IsInput() {
		panic(ErrNoInputs)
	}

	return n.inputs.nodes[index]
}

// InputNodes returns a copy of the set of inputs to the Node. It will return an empty slice if the
// Node has no inputs (is an input Node).
func (n *Node) InputNodes() []*Node {
	ns := make([]*Node, num(n.inputs))
	if n.inputs != nil {
		copy(ns, n.inputs.nodes)
	}
	return ns
}

// NumInputNodes returns the number of Nodes from which the Node recieves input.
func (n *Node) NumInputNodes() int {
	return num(n.inputs)
}

// NumInputs returns the total number of input values to the node.
func (n *Node) NumInputs() int {
	return n.inputs.size()
}

// AllInputs returns a single slice containing a copy of all of the input values to the node, in
// order.
func (n *Node) AllInputs() []float64 {
	vs := make([]float64, len(n.inVals))
	copy(vs, n.inVals)
	return vs
}

// Optimizer returns the Optimizer attached to the Node, if there is one
func (n *Node) Optimizer() Optimizer {
	return n.opt
}
