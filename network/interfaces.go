package network

// Operator is the base interface for everything a Node can compute. An Operator must also
// implement either Layer or Elementwise.
type Operator interface {
	// TypeString returns the name the Operator is registered under. For example: the Operator
	// "Identity" should return "identity", or something to that effect.
	TypeString() string

	// Finalize is called once, when the Node has been given its inputs and size. Operators
	// should check that the dimensions work for them and allocate any weights.
	Finalize(*Node) error
}

// Layer is an Operator that computes all of its values together
type Layer interface {
	Operator

	// Evaluate sets the values of the Node, given its inputs. The provided slice has length
	// equal to the size of the Node.
	Evaluate(*Node, []float64)

	// InputDeltas returns the derivative of the total cost with respect to each of the input
	// values to the Node, given the deltas of the Node.
	InputDeltas(*Node) []float64
}

// Elementwise is an Operator that applies the same function to each input value. Nodes with an
// Elementwise Operator have the same size as their total number of inputs.
type Elementwise interface {
	Operator

	// Value returns the output at 'index', given the input value at that index
	Value(in float64, index int) float64

	// Deriv returns the derivative of the value at 'index' with respect to the input at that
	// index. The Node's values and inputs are both available.
	Deriv(n *Node, index int) float64
}

// Adjustable is an Operator with weights that can be trained
type Adjustable interface {
	Operator

	// Weights returns the weights of the Operator. The returned slice is not a copy: changes to
	// it change the Operator. It must not change length after Finalize.
	Weights() []float64

	// Grad returns the derivative of the cost of the current sample with respect to the weight
	// at the given index, using the deltas of the Node.
	Grad(n *Node, index int) float64
}

// Fanned Operators report how many values feed into and out of each of their weights, for
// Initializers that scale by them. Without it, the Node's total inputs and size are used.
type Fanned interface {
	Fan() (in, out int)
}

// Storable types have state that must be written when the Network is saved.
//
// Get returns the value to encode. Blank returns a pointer that the encoded value can be decoded
// into, which updates the receiver.
type Storable interface {
	Get() interface{}
	Blank() interface{}
}

// CostFunction evaluates the outputs of the Network against the target outputs
type CostFunction interface {
	TypeString() string

	// Cost returns the cost of a single sample. Arguments are: outputs, targets. Both will have
	// the same length.
	Cost([]float64, []float64) float64

	// Derivs returns the derivative of the cost with respect to each output
	Derivs([]float64, []float64) []float64
}

// Optimizer determines how the gradients of the weights of a single Node are applied. Each
// Adjustable Node gets its own Optimizer, so Optimizers may keep per-weight state.
type Optimizer interface {
	TypeString() string

	// Needs returns the names of the hyperparameters the Optimizer uses. These are checked
	// during Finalize, so that Node.HP will not panic.
	Needs() []string

	// Run is called at each Step, given: the Node, the number of weights, the (batch averaged,
	// penalized) gradient of each weight, and a function to add to each weight.
	Run(n *Node, size int, grad func(int) float64, add func(int, float64)) error
}

// Penalty modifies the gradient of a weight, typically to regularize it
type Penalty interface {
	TypeString() string

	// Penalize returns the new gradient, given the weight and its gradient
	Penalize(weight, grad float64) float64
}

// HyperParameter is a value that may change over the course of training, such as the learning
// rate
type HyperParameter interface {
	TypeString() string

	// Value returns the value at the given step, where a step is a single call to
	// Network.Step over the lifetime of the Network.
	Value(step int) float64
}

// Initializer sets the starting weights of an Adjustable Node
type Initializer interface {
	Set(n *Node, ws []float64)
}
