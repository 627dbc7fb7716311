package network

import (
	"strings"

	"github.com/pkg/errors"
)

func (net *Network) init() {
	if net.nodesByName != nil {
		return
	}

	net.nodesByName = make(map[string]*Node)
	net.inputs = new(nodeGroup)
	net.hyperParams = make(map[string]HyperParameter)
}

// Error returns the first error encountered while constructing the Network
func (net *Network) Error() error {
	return net.err
}

func (net *Network) setErr(err error) {
	if net.err == nil {
		net.err = err
	}
}

// newNode adds a bare Node to the Network, with no inputs or Operator
func (net *Network) newNode(name string, size int) (*Node, error) {
	net.init()

	if net.stat >= finalized {
		return nil, ErrNetFinalized
	} else if size < 1 {
		return nil, errors.Errorf("Node must have size >= 1 (%d)", size)
	} else if net.nodesByName[name] != nil {
		return nil, errors.Errorf("Name %q is already taken", name)
	} else if name == "" {
		return nil, errors.Errorf(`Name cannot be ""`)
	} else if strings.Contains(name, `"`) {
		return nil, errors.Errorf(`Name contains illegal character:"`)
	}

	n := &Node{
		name:        name,
		host:        net,
		id:          len(net.nodesByID),
		outputs:     new(nodeGroup),
		values:      make([]float64, size),
		outputIndex: -1,
	}

	return n, nil
}

func (net *Network) insert(n *Node) {
	net.nodesByName[n.name] = n
	net.nodesByID = append(net.nodesByID, n)
}

// AddInput adds a new input Node to the Network. The inputs given to the Network are split among
// input Nodes in the order that they were added.
//
// If the Node can't be added, the error is recorded (see Error) and AddInput returns nil.
func (net *Network) AddInput(name string, size int) *Node {
	n, err := net.newNode(name, size)
	if err != nil {
		net.setErr(errors.Wrapf(err, "Can't add input node %q\n", name))
		return nil
	}

	net.insert(n)
	net.inputs.add(n)
	return n
}

// Add adds a new Node to the Network, with given name, Operator, size, and inputs. At least one
// input must be given, and every input must already belong to the Network.
//
// The name of each node must be unique, cannot be "", and cannot contain a double-quote (")
//
// If the Node can't be added, the error is recorded (see Error), the Network is left unchanged
// and Add returns nil. Methods on a nil *Node are no-ops, so construction can be chained
// regardless.
func (net *Network) Add(name string, op Operator, size int, inputs ...*Node) *Node {
	n, err := net.add(name, op, size, inputs)
	if err != nil {
		net.setErr(errors.Wrapf(err, "Can't add node %q\n", name))
		return nil
	}

	return n
}

func (net *Network) add(name string, op Operator, size int, inputs []*Node) (*Node, error) {
	if op == nil {
		return nil, NilArgError{"Operator"}
	} else if len(inputs) == 0 {
		return nil, errors.Errorf("Node has no inputs (use AddInput for input nodes)")
	}

	for i, in := range inputs {
		if in == nil {
			return nil, errors.Errorf("Input %d is nil", i)
		} else if in.host != net {
			return nil, errors.Errorf("Input %d (%v) does not belong to the same Network", i, in)
		}
	}

	n, err := net.newNode(name, size)
	if err != nil {
		return nil, err
	}

	n.inputs = new(nodeGroup)
	n.inputs.add(inputs...)
	n.inVals = make([]float64, n.inputs.size())

	n.op = op
	n.lyr, _ = op.(Layer)
	n.elem, _ = op.(Elementwise)
	n.adj, _ = op.(Adjustable)

	if n.lyr == nil && n.elem == nil {
		return nil, errors.Errorf("Operator %q is neither a Layer nor Elementwise", op.TypeString())
	} else if n.elem != nil && n.NumInputs() != size {
		return nil, errors.Errorf("Elementwise operator %q must have size equal to its number of inputs (%d != %d)", op.TypeString(), size, n.NumInputs())
	}

	if err := op.Finalize(n); err != nil {
		return nil, errors.Wrapf(err, "Finalizing operator %q failed\n", op.TypeString())
	}

	if n.adj != nil {
		n.grads = make([]float64, len(n.adj.Weights()))
	}

	net.insert(n)
	for _, in := range inputs {
		in.outputs.add(n)
	}

	return n, nil
}

// Opt sets the Optimizer of the Node, overriding the Network's default. It has no effect on Nodes
// that aren't Adjustable.
func (n *Node) Opt(opt Optimizer) *Node {
	if n != nil {
		n.opt = opt
	}
	return n
}

// Init sets the Initializer of the Node, overriding the Network's default
func (n *Node) Init(init Initializer) *Node {
	if n != nil {
		n.init = init
	}
	return n
}

// Pen sets the Penalty of the Node, overriding the Network's default
func (n *Node) Pen(pen Penalty) *Node {
	if n != nil {
		n.pen = pen
	}
	return n
}

// AddHP sets a HyperParameter for the Node only
func (n *Node) AddHP(name string, hp HyperParameter) *Node {
	if n == nil {
		return n
	}

	if n.hyperParams == nil {
		n.hyperParams = make(map[string]HyperParameter)
	}

	n.hyperParams[name] = hp
	return n
}

// AddHP sets a HyperParameter for every Node in the Network that doesn't have its own
func (net *Network) AddHP(name string, hp HyperParameter) {
	net.init()
	net.hyperParams[name] = hp
}

// HP returns the value of the Network's HyperParameter at the current step, and whether it
// exists. Nodes may override it with their own.
func (net *Network) HP(name string) (float64, bool) {
	hp := net.hyperParams[name]
	if hp == nil {
		return 0, false
	}

	return hp.Value(net.step), true
}

// DefaultInit sets the Initializer used by Adjustable Nodes without their own
func (net *Network) DefaultInit(init Initializer) {
	net.defaultInit = init
}

// DefaultOpt sets the function used to construct the Optimizer of Adjustable Nodes without their
// own
func (net *Network) DefaultOpt(f func() Optimizer) {
	net.defaultOpt = f
}

// DefaultPenalty sets the Penalty used by Adjustable Nodes without their own. nil means no
// penalty.
func (net *Network) DefaultPenalty(pen Penalty) {
	net.defaultPen = pen
}

// Finalize sets the cost function and the outputs of the Network, which completes its
// construction. All Nodes must affect the outputs, and outputs must not be inputs.
//
// Adjustable Nodes are given the defaults of the Network if they have none of their own, and
// their weights are initialized. An Adjustable Node with no Optimizer is an error.
func (net *Network) Finalize(cf CostFunction, outputs ...*Node) error {
	if net.err != nil {
		return net.err
	} else if net.stat >= finalized {
		return ErrNetFinalized
	} else if len(net.nodesByID) == 0 {
		return errors.Errorf("Can't finalize network, network has no nodes")
	} else if cf == nil {
		return NilArgError{"CostFunction"}
	} else if len(outputs) == 0 {
		return errors.Errorf("Can't finalize network, no outputs given")
	}

	for i, out := range outputs {
		if out == nil {
			return errors.Errorf("Can't finalize network, output node #%d is nil", i)
		} else if out.host != net {
			return errors.Errorf("Can't finalize network, output node #%d (%v) does not belong to this network", i, out)
		} else if out.IsInput() {
			return errors.Errorf("Can't finalize network, output node #%d (%v) is both an input and an output", i, out)
		}

		for o := i + 1; o < len(outputs); o++ {
			if out == outputs[o] {
				return errors.Errorf("Can't finalize network, output #%d (%v) is also #%d", i, out, o)
			}
		}
	}

	net.outputs = new(nodeGroup)
	net.outputs.add(outputs...)

	if err := net.checkOutputs(); err != nil {
		return err
	}

	for _, n := range net.nodesByID {
		if n.adj == nil {
			continue
		}

		if n.opt == nil && net.defaultOpt != nil {
			n.opt = net.defaultOpt()
		}
		if n.opt == nil {
			return errors.Errorf("Can't finalize network, node %v has weights but no optimizer", n)
		}

		for _, name := range n.opt.Needs() {
			if n.hp(name) == nil {
				return errors.Errorf("Can't finalize network, optimizer %q of node %v needs hyperparameter %q", n.opt.TypeString(), n, name)
			}
		}

		if n.pen == nil {
			n.pen = net.defaultPen
		}
		if n.init == nil {
			n.init = net.defaultInit
		}
	}

	// Nothing has failed; from here the Network is changed
	for i, out := range outputs {
		out.outputIndex = net.outputs.start(i)
	}

	for _, n := range net.nodesByID {
		if n.adj != nil && n.init != nil {
			n.init.Set(n, n.adj.Weights())
		}
	}

	net.markDeltas()

	net.cf = cf
	net.outs = make([]float64, net.outputs.size())
	net.stat = finalized
	return nil
}

// checkOutputs checks that all Nodes affect the outputs of the network
func (net *Network) checkOutputs() error {
	defer net.resetCompletion()

	var mark func(*Node)
	mark = func(n *Node) {
		if n.completed {
			return
		}

		n.completed = true
		if n.inputs != nil {
			for _, in := range n.inputs.nodes {
				mark(in)
			}
		}
	}

	for _, out := range net.outputs.nodes {
		mark(out)
	}

	for _, n := range net.nodesByID {
		if !n.completed {
			return errors.Errorf("Can't finalize network, node %v does not affect network outputs", n)
		}
	}

	return nil
}

// markDeltas allocates deltas for every Node that needs them: those that are Adjustable, or that
// pass deltas on to a Node that is. Nodes are visited in id order, which is a topological order.
func (net *Network) markDeltas() {
	needs := make([]bool, len(net.nodesByID))

	for _, n := range net.nodesByID {
		if n.IsInput() {
			continue
		}

		for _, in := range n.inputs.nodes {
			if needs[in.id] {
				n.calcInDeltas = true
			}
		}

		needs[n.id] = n.adj != nil || n.calcInDeltas
	}

	for _, n := range net.nodesByID {
		if needs[n.id] {
			n.deltas = make([]float64, n.Size())
		}
	}
}

// Sets all Nodes' field 'completed' to false
func (net *Network) resetCompletion() {
	for _, n := range net.nodesByID {
		n.completed = false
	}
}

// InputSize returns the total number of input values to the Network
func (net *Network) InputSize() int {
	return net.inputs.size()
}

// OutputSize returns the total number of output values from the Network
func (net *Network) OutputSize() int {
	return net.outputs.size()
}

// Node returns the Node with the given name, or nil if there is none
func (net *Network) Node(name string) *Node {
	return net.nodesByName[name]
}

// Nodes returns all of the Nodes in the Network, in the order that they were added
func (net *Network) Nodes() []*Node {
	ns := make([]*Node, len(net.nodesByID))
	copy(ns, net.nodesByID)
	return ns
}

// CostFunction returns the cost function the Network was finalized with
func (net *Network) CostFunction() CostFunction {
	return net.cf
}

// Steps returns the number of optimizer steps the Network has taken over its lifetime, which is
// the value given to HyperParameters
func (net *Network) Steps() int {
	return net.step
}

// SetSteps sets the number of steps the Network has taken, for resuming training
func (net *Network) SetSteps(step int) {
	net.step = step
}
