package network

type status int8

const (
	initialized status = iota // 0
	finalized                 // 1
	evaluated                 // 2
	deltas                    // 3
)

// Network is the main structure that is used to learn to map inputs to outputs. A Network is
// more of a containing structure than it actually stores information.
//
// The zero value is an empty Network that is ready to have Nodes added.
type Network struct {
	inputs, outputs *nodeGroup

	// a list of all of the Nodes, stored such that their id is their index in this slice
	nodesByID   []*Node
	nodesByName map[string]*Node

	// the first error encountered during construction
	err error

	cf CostFunction

	defaultInit Initializer
	defaultOpt  func() Optimizer
	defaultPen  Penalty
	hyperParams map[string]HyperParameter

	// the most recently calculated outputs, kept until the next call to GetOutputs
	outs []float64

	// the number of samples whose gradients have been accumulated since the last Step
	pending int

	// iter is the iteration within the current call to Train. step counts Steps over the
	// lifetime of the Network, and is what HyperParameters are given.
	iter int
	step int

	stat status
}

// nodeGroups are ordered sets of Nodes whose values are treated as a single slice
type nodeGroup struct {
	nodes []*Node

	// The sum of the sizes of each Node, up to and including the node at the specified index. For
	// example: index 0 would be equal to the size of the 0th Node; the last index is equal to the
	// size of the entire group.
	sumVals []int
}

// Nodes are the fundamental building blocks with which the Network is built. They are the nodes
// of the computation graph.
type Node struct {
	name string

	// used for order identification of which nodes were added first
	id int

	// used for validation during setup
	host *Network

	// inputs is nil for input Nodes
	inputs, outputs *nodeGroup

	// the root operator of the Node. nil for input Nodes
	op Operator

	// type castings of Operator: (nil if not used)
	lyr  Layer
	elem Elementwise
	adj  Adjustable

	opt  Optimizer
	pen  Penalty
	init Initializer

	// these are exclusively for the Optimizer
	hyperParams map[string]HyperParameter

	values []float64

	// a copy of the input values, refreshed on every evaluation
	inVals []float64

	// the derivative of each value w.r.t. the total cost of the current training sample, stored in
	// the same order as values
	deltas []float64

	// the sum of the gradients of each weight since the last Step. nil if not adjustable
	grads []float64

	// whether or not the input deltas need to be calculated. Determined purely by inputs' need to
	// have deltas calculated
	calcInDeltas bool

	// outputIndex indicates the index in the Network outputs that this Node's values start at.
	// Non-output Nodes are given values of -1.
	outputIndex int

	// used by graph traversals
	completed bool
}
