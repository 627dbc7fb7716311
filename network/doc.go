// Package network is a small computation-graph neural network library.
//
// A Network is built from Nodes. Each Node has an Operator that determines how it computes its
// values from those of its inputs. Nodes are added in order, and a Node may only take input from
// Nodes that were added before it, so the graph is always feed-forward.
//
// Construction looks something like:
//
//	net := new(network.Network)
//	in := net.AddInput("keypoints", 350)
//	h := net.Add("hidden", operators.Neurons(), 64, in)
//	a := net.Add("hidden-act", operators.ReLU(), 64, h)
//	out := net.Add("logits", operators.Neurons(), 4, a)
//	net.AddHP("learning-rate", hyperparams.Constant(0.1))
//	if err := net.Finalize(costfuncs.CrossEntropy(), out); err != nil {
//		...
//	}
//
// Construction methods that return a *Node record any error on the Network instead of returning
// it; the first such error is reported by Network.Error and by Finalize.
//
// Once finalized, a Network is trained through four operations: GetOutputs (the forward pass),
// Cost, Backward (which accumulates gradients for every Adjustable Node) and Step (which applies
// the mean of the accumulated gradients through each Node's Optimizer). Train and Test drive
// these over a DataSupplier.
//
// Operators, cost functions, optimizers, penalties and hyperparameters are registered by their
// TypeString, which allows a saved Network to be loaded again with Load. The subpackages of
// network register themselves in init(), so they must be imported (possibly with a blank import)
// before loading.
package network
