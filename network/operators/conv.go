package operators

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	nn "github.com/sharnoff/pdgait/network"
)

type conv struct {
	// input shape: Frames × Channels, frame-major
	Frames   int `json:"frames"`
	Channels int `json:"channels"`

	Kernel  int `json:"kernel"`
	Str     int `json:"stride"`
	Padding int `json:"padding"`

	// Filters is the number of output channels
	Filters int `json:"filters"`

	// ws holds one row per filter: Kernel × Channels weights, followed by the bias
	ws []float64
	w  *mat.Dense

	// x is the unrolled input of the most recent evaluation, one row per output frame
	x *mat.Dense
}

// Conv returns a convolution over time. Its input is a sequence of frames, each with the same
// number of channels, and its output is a shorter (or equal) sequence with one channel per
// filter. Both are stored frame-major. Padding is filled with zeros.
//
// InputDims and Filter must be called before the Operator is added to a Network; the other
// methods are optional. They return *conv so that they can be chained:
//
//	c := operators.Conv().InputDims(700, 75).Filter(9).Stride(2).Pad(4).Depth(32)
//	h := net.Add("conv0", c, c.MustSize(), in)
func Conv() *conv {
	return &conv{Str: 1, Filters: 1}
}

// InputDims sets the number of frames and channels of the input
func (c *conv) InputDims(frames, channels int) *conv {
	c.Frames = frames
	c.Channels = channels
	return c
}

// Filter sets the number of frames covered by each filter
func (c *conv) Filter(kernel int) *conv {
	c.Kernel = kernel
	return c
}

// Stride sets the number of frames between successive filter positions. It defaults to 1.
func (c *conv) Stride(stride int) *conv {
	c.Str = stride
	return c
}

// Pad sets the number of zero frames added to both ends of the input. It defaults to 0.
func (c *conv) Pad(padding int) *conv {
	c.Padding = padding
	return c
}

// Depth sets the number of filters, which is the number of output channels. It defaults to 1.
func (c *conv) Depth(filters int) *conv {
	c.Filters = filters
	return c
}

// OutFrames returns the number of output frames, or an error if the configuration is invalid
func (c *conv) OutFrames() (int, error) {
	switch {
	case c.Frames < 1 || c.Channels < 1:
		return 0, errors.Errorf("InputDims must be positive (%d, %d)", c.Frames, c.Channels)
	case c.Kernel < 1:
		return 0, errors.Errorf("Filter must be positive (%d)", c.Kernel)
	case c.Str < 1:
		return 0, errors.Errorf("Stride must be positive (%d)", c.Str)
	case c.Padding < 0:
		return 0, errors.Errorf("Padding must be non-negative (%d)", c.Padding)
	case c.Filters < 1:
		return 0, errors.Errorf("Depth must be positive (%d)", c.Filters)
	}

	in := c.Frames + 2*c.Padding
	if in < c.Kernel {
		return 0, errors.Errorf("Filter is longer than the padded input (%d > %d)", c.Kernel, in)
	}

	return (in-c.Kernel)/c.Str + 1, nil
}

// Size returns the number of output values, or an error if the configuration is invalid
func (c *conv) Size() (int, error) {
	frames, err := c.OutFrames()
	return frames * c.Filters, err
}

// MustSize calls Size, but panics if it encounters an error.
func (c *conv) MustSize() int {
	size, err := c.Size()
	if err != nil {
		panic(err.Error())
	}

	return size
}

func (c *conv) TypeString() string {
	return "conv"
}

func (c *conv) Finalize(n *nn.Node) error {
	size, err := c.Size()
	if err != nil {
		return err
	}

	if n.NumInputs() != c.Frames*c.Channels {
		return errors.Errorf("Mismatch between expected number of inputs and actual (%d != %d)", c.Frames*c.Channels, n.NumInputs())
	} else if n.Size() != size {
		return errors.Errorf("Mismatch between expected size and actual (%d != %d)", size, n.Size())
	}

	cols := c.Kernel*c.Channels + 1
	c.ws = make([]float64, c.Filters*cols)
	c.w = mat.NewDense(c.Filters, cols, c.ws)
	c.x = mat.NewDense(size/c.Filters, cols, nil)
	return nil
}

func (c *conv) Get() interface{} {
	return *c
}

func (c *conv) Blank() interface{} {
	return c
}

func (c *conv) Fan() (int, int) {
	return c.Kernel * c.Channels, c.Kernel * c.Filters
}

func (c *conv) Weights() []float64 {
	return c.ws
}

// start returns the input frame (possibly in the padding) of the first row of output frame t
func (c *conv) start(t int) int {
	return t*c.Str - c.Padding
}

func (c *conv) Evaluate(n *nn.Node, values []float64) {
	rows, cols := c.x.Dims()

	for t := 0; t < rows; t++ {
		row := c.x.RawRowView(t)
		clear(row)

		first := c.start(t)
		for k := 0; k < c.Kernel; k++ {
			f := first + k
			if f < 0 || f >= c.Frames {
				continue
			}

			for ch := 0; ch < c.Channels; ch++ {
				row[k*c.Channels+ch] = n.InputValue(f*c.Channels + ch)
			}
		}
		row[cols-1] = biasValue
	}

	out := mat.NewDense(rows, c.Filters, values)
	out.Mul(c.x, c.w.T())
}

func (c *conv) InputDeltas(n *nn.Node) []float64 {
	rows, _ := c.x.Dims()

	ds := make([]float64, rows*c.Filters)
	for i := range ds {
		ds[i] = n.Delta(i)
	}

	var back mat.Dense
	back.Mul(mat.NewDense(rows, c.Filters, ds), c.w)

	in := make([]float64, n.NumInputs())
	for t := 0; t < rows; t++ {
		row := back.RawRowView(t)

		first := c.start(t)
		for k := 0; k < c.Kernel; k++ {
			f := first + k
			if f < 0 || f >= c.Frames {
				continue
			}

			for ch := 0; ch < c.Channels; ch++ {
				in[f*c.Channels+ch] += row[k*c.Channels+ch]
			}
		}
	}

	return in
}

func (c *conv) Grad(n *nn.Node, index int) float64 {
	rows, cols := c.x.Dims()
	filter, j := index/cols, index%cols

	var g float64
	for t := 0; t < rows; t++ {
		g += c.x.At(t, j) * n.Delta(t*c.Filters+filter)
	}

	return g
}
