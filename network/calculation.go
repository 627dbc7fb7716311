package network

import (
	"github.com/pkg/errors"

	"github.com/sharnoff/pdgait/utils"
)

// GetOutputs returns the outputs of the Network, given its inputs. The returned slice is a copy.
func (net *Network) GetOutputs(inputs []float64) ([]float64, error) {
	if net.stat < finalized {
		return nil, ErrNetNotFinalized
	} else if len(inputs) != net.InputSize() {
		return nil, errors.Errorf("Number of inputs doesn't match network (%d != %d)", len(inputs), net.InputSize())
	}

	net.inputs.setValues(inputs)

	for _, n := range net.nodesByID {
		if !n.IsInput() {
			n.evaluate()
		}
	}

	net.outputs.valuesInto(net.outs)
	net.stat = evaluated

	outs := make([]float64, len(net.outs))
	copy(outs, net.outs)
	return outs, nil
}

// evaluate sets the values of the Node from its inputs. Inputs must have already been evaluated.
func (n *Node) evaluate() {
	n.inputs.valuesInto(n.inVals)

	if n.lyr != nil {
		n.lyr.Evaluate(n, n.values)
		return
	}

	for i, v := range n.inVals {
		n.values[i] = n.elem.Value(v, i)
	}
}

// Cost returns the cost of the given outputs, as determined by the Network's CostFunction
func (net *Network) Cost(outs, targets []float64) (float64, error) {
	if net.stat < finalized {
		return 0, ErrNetNotFinalized
	} else if len(outs) != len(targets) || len(outs) != net.OutputSize() {
		return 0, errors.Errorf("Mismatched lengths of outputs and targets (%d, %d; network has %d)", len(outs), len(targets), net.OutputSize())
	}

	return net.cf.Cost(outs, targets), nil
}

// Backward calculates the deltas of every Node from the most recent outputs and the given
// targets, then adds the gradient of each weight to the gradients accumulated since the last
// Step. GetOutputs must have been called since the last call to Backward.
func (net *Network) Backward(targets []float64) error {
	if net.stat < evaluated {
		return ErrNoOutputs
	} else if len(targets) != net.OutputSize() {
		return errors.Errorf("Number of targets doesn't match network (%d != %d)", len(targets), net.OutputSize())
	}

	for _, n := range net.nodesByID {
		clear(n.deltas)
	}

	net.outputs.addDeltas(net.cf.Derivs(net.outs, targets))

	for i := len(net.nodesByID) - 1; i >= 0; i-- {
		n := net.nodesByID[i]
		if n.IsInput() {
			continue
		}

		if n.calcInDeltas {
			n.inputs.addDeltas(n.inputDeltas())
		}

		if n.adj != nil {
			n.addGrads()
		}
	}

	net.pending++
	net.stat = deltas
	return nil
}

func (n *Node) inputDeltas() []float64 {
	if n.lyr != nil {
		return n.lyr.InputDeltas(n)
	}

	ds := make([]float64, len(n.deltas))
	for i := range ds {
		ds[i] = n.deltas[i] * n.elem.Deriv(n, i)
	}

	return ds
}

func (n *Node) addGrads() {
	f := func(i int) {
		n.grads[i] += n.adj.Grad(n, i)
	}

	opsPerThread, numThreads := 256, 0
	if len(n.grads) < 4*opsPerThread {
		numThreads = 1
	}

	utils.MultiThread(0, len(n.grads), f, opsPerThread, numThreads)
}

// Step applies the mean of the gradients accumulated by Backward since the last Step, through
// the Optimizer of each Adjustable Node. Gradients are passed through the Node's Penalty first,
// if it has one. Step does nothing if no gradients have been accumulated.
func (net *Network) Step() error {
	if net.stat < finalized {
		return ErrNetNotFinalized
	} else if net.pending == 0 {
		return nil
	}

	scale := 1 / float64(net.pending)

	for _, n := range net.nodesByID {
		if n.adj == nil {
			continue
		}

		ws := n.adj.Weights()

		grad := func(i int) float64 {
			g := n.grads[i] * scale
			if n.pen != nil {
				g = n.pen.Penalize(ws[i], g)
			}
			return g
		}

		add := func(i int, addend float64) {
			ws[i] += addend
		}

		if err := n.opt.Run(n, len(ws), grad, add); err != nil {
			return errors.Wrapf(err, "Running optimizer on node %v failed\n", n)
		}

		clear(n.grads)
	}

	net.pending = 0
	net.step++
	return nil
}

// ClearGrads discards any gradients accumulated since the last Step
func (net *Network) ClearGrads() {
	for _, n := range net.nodesByID {
		clear(n.grads)
	}

	net.pending = 0
}

// Correct runs a single sample through the Network and accumulates its gradients, returning the
// cost and the outputs of the Network. The weights are not changed until Step is called.
func (net *Network) Correct(d Datum) (float64, []float64, error) {
	outs, err := net.GetOutputs(d.Inputs)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "Getting outputs failed\n")
	}

	cost, err := net.Cost(outs, d.Outputs)
	if err != nil {
		return 0, nil, err
	}

	if err = net.Backward(d.Outputs); err != nil {
		return 0, nil, errors.Wrapf(err, "Getting deltas failed\n")
	}

	return cost, outs, nil
}
