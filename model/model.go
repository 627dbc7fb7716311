// Package model builds the classifier networks that can be named in a configuration.
package model

import (
	"slices"
	"strconv"

	"github.com/pkg/errors"

	"github.com/sharnoff/pdgait/network"
	"github.com/sharnoff/pdgait/network/operators"
)

// Args are the architecture arguments of a model, read from the model_args configuration
type Args struct {
	// NumClass is the number of output classes
	NumClass int `yaml:"num_class"`

	// Hidden lists the size of each hidden layer, from input to output
	Hidden []int `yaml:"hidden,flow"`

	// Activation is applied after each hidden layer: "relu", "leaky-relu", "tanh" or "logistic"
	Activation string `yaml:"activation"`

	// LeakyAlpha is the slope of "leaky-relu" for negative inputs
	LeakyAlpha float64 `yaml:"leaky_alpha"`

	// Filters lists the number of filters of each temporal convolution ("tcn" only)
	Filters []int `yaml:"filters,flow"`

	// Kernel and Stride are the number of frames covered by each filter, and between filter
	// positions ("tcn" only)
	Kernel int `yaml:"kernel"`
	Stride int `yaml:"stride"`

	// Pool is how the convolution output is reduced over time: "avg" or "max" ("tcn" only)
	Pool string `yaml:"pool"`
}

// Shape describes the input of a model
type Shape struct {
	Frames int

	// Channels is the number of values per frame
	Channels int

	// ChannelsFirst is set if inputs are ordered by channel rather than by frame
	ChannelsFirst bool
}

// Size returns the total number of input values
func (s Shape) Size() int {
	return s.Frames * s.Channels
}

// Builder adds the Nodes of a model to a Network, taking input from 'in'. It returns the output
// Node, whose values are the logits of each class.
type Builder func(net *network.Network, in *network.Node, shape Shape, args Args) (*network.Node, error)

var builders = map[string]Builder{
	"mlp":    buildMLP,
	"linear": buildLinear,
	"tcn":    buildTCN,
}

// Names returns the names of every known model, sorted
func Names() []string {
	var ns []string
	for n := range builders {
		ns = append(ns, n)
	}

	slices.Sort(ns)
	return ns
}

// Register adds a model that can be built by name. It returns an error if the name is taken.
func Register(name string, b Builder) error {
	if _, ok := builders[name]; ok {
		return errors.Errorf("Model %q is already registered", name)
	} else if b == nil {
		return errors.Errorf("Builder for model %q is nil", name)
	}

	builders[name] = b
	return nil
}

// InputName is the name of the input Node of every model
const InputName string = "input"

// Build returns an unfinalized Network for the named model, with inputs of the given shape. The
// caller sets hyperparameters, optimizers and initializers on the Network before calling Finalize
// with the returned output Node.
func Build(name string, args Args, shape Shape) (*network.Network, *network.Node, error) {
	b, ok := builders[name]
	if !ok {
		return nil, nil, errors.Errorf("Unknown model %q (should be one of %v)", name, Names())
	} else if args.NumClass < 1 {
		return nil, nil, errors.Errorf("Model must have at least one class (num_class = %d)", args.NumClass)
	} else if shape.Frames < 1 || shape.Channels < 1 {
		return nil, nil, errors.Errorf("Input shape must be positive (%d frames, %d channels)", shape.Frames, shape.Channels)
	}

	net := new(network.Network)
	in := net.AddInput(InputName, shape.Size())

	out, err := b(net, in, shape, args)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't build model %q\n", name)
	} else if err = net.Error(); err != nil {
		return nil, nil, errors.Wrapf(err, "Can't build model %q\n", name)
	}

	return net, out, nil
}

func activation(args Args) (network.Operator, error) {
	switch args.Activation {
	case "relu", "":
		return operators.ReLU(), nil
	case "leaky-relu":
		return operators.LeakyReLU(args.LeakyAlpha), nil
	case "tanh":
		return operators.Tanh(), nil
	case "logistic":
		return operators.Logistic(), nil
	}

	return nil, errors.Errorf("Unknown activation %q", args.Activation)
}

func buildMLP(net *network.Network, in *network.Node, shape Shape, args Args) (*network.Node, error) {
	return addHidden(net, in, args)
}

// addHidden adds the fully connected hidden layers and the classifier on top of 'in'
func addHidden(net *network.Network, in *network.Node, args Args) (*network.Node, error) {
	last := in
	for i, size := range args.Hidden {
		if size < 1 {
			return nil, errors.Errorf("Hidden layer %d has size %d", i, size)
		}

		act, err := activation(args)
		if err != nil {
			return nil, err
		}

		name := "hidden" + strconv.Itoa(i)
		h := net.Add(name, operators.Neurons(), size, last)
		last = net.Add(name+"-act", act, size, h)
	}

	return net.Add("classifier", operators.Neurons(), args.NumClass, last), nil
}

func buildLinear(net *network.Network, in *network.Node, shape Shape, args Args) (*network.Node, error) {
	if len(args.Hidden) != 0 {
		return nil, errors.Errorf("Linear model can't have hidden layers (%v)", args.Hidden)
	}

	return net.Add("classifier", operators.Neurons(), args.NumClass, in), nil
}

// buildTCN stacks temporal convolutions, each followed by the activation, then pools over time
// and finishes with the same hidden layers and classifier as "mlp"
func buildTCN(net *network.Network, in *network.Node, shape Shape, args Args) (*network.Node, error) {
	if shape.ChannelsFirst {
		return nil, errors.Errorf("Temporal convolution needs frame-major input")
	} else if len(args.Filters) == 0 {
		return nil, errors.Errorf("Temporal convolution needs at least one layer of filters")
	}

	kernel, stride := args.Kernel, args.Stride
	if kernel == 0 {
		kernel = 9
	}
	if stride == 0 {
		stride = 1
	}

	last := in
	frames, channels := shape.Frames, shape.Channels

	for i, filters := range args.Filters {
		c := operators.Conv().InputDims(frames, channels).Filter(kernel).Stride(stride).Pad(kernel / 2).Depth(filters)

		size, err := c.Size()
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add convolution %d\n", i)
		}

		act, err := activation(args)
		if err != nil {
			return nil, err
		}

		name := "conv" + strconv.Itoa(i)
		h := net.Add(name, c, size, last)
		last = net.Add(name+"-act", act, size, h)

		frames, _ = c.OutFrames()
		channels = filters
	}

	p := operators.Pool().InputDims(frames, channels)
	switch args.Pool {
	case "max":
		p.UseMax()
	case "avg", "":
	default:
		return nil, errors.Errorf("Unknown pool %q (should be 'avg' or 'max')", args.Pool)
	}

	pooled := net.Add("pool", p, channels, last)
	return addHidden(net, pooled, args)
}
