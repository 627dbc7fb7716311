package operators

import (
	"math"

	"github.com/pkg/errors"

	nn "github.com/sharnoff/pdgait/network"
)

type pool struct {
	// input shape: Frames × Channels, frame-major
	Frames   int `json:"frames"`
	Channels int `json:"channels"`

	// Window is the number of frames pooled into each output frame. 0 pools every frame.
	Window int  `json:"window"`
	Str    int  `json:"stride"`
	Max    bool `json:"max"`

	// switches holds, for max pooling, the input index chosen for each output value
	switches []int
}

// Pool returns a pooling Operator over time, which reduces windows of frames to a single frame
// by averaging each channel. With the default window, the whole sequence is pooled into one
// frame with one value per channel.
//
//	p := operators.Pool().InputDims(350, 32)
//	h := net.Add("pool", p, p.MustSize(), conv)
func Pool() *pool {
	return new(pool)
}

// InputDims sets the number of frames and channels of the input
func (p *pool) InputDims(frames, channels int) *pool {
	p.Frames = frames
	p.Channels = channels
	return p
}

// WindowSize sets the number of frames pooled together. Stride defaults to the window.
func (p *pool) WindowSize(frames int) *pool {
	p.Window = frames
	return p
}

// Stride sets the number of frames between the starts of successive windows
func (p *pool) Stride(stride int) *pool {
	p.Str = stride
	return p
}

// UseMax switches from averaging to taking the maximum of each window
func (p *pool) UseMax() *pool {
	p.Max = true
	return p
}

func (p *pool) window() int {
	if p.Window == 0 {
		return p.Frames
	}
	return p.Window
}

func (p *pool) stride() int {
	if p.Str == 0 {
		return p.window()
	}
	return p.Str
}

// OutFrames returns the number of output frames, or an error if the configuration is invalid
func (p *pool) OutFrames() (int, error) {
	if p.Frames < 1 || p.Channels < 1 {
		return 0, errors.Errorf("InputDims must be positive (%d, %d)", p.Frames, p.Channels)
	} else if p.Window < 0 || p.window() > p.Frames {
		return 0, errors.Errorf("Window must be in [1, %d] (%d)", p.Frames, p.Window)
	} else if p.Str < 0 {
		return 0, errors.Errorf("Stride must be non-negative (%d)", p.Str)
	}

	return (p.Frames-p.window())/p.stride() + 1, nil
}

// Size returns the number of output values, or an error if the configuration is invalid
func (p *pool) Size() (int, error) {
	frames, err := p.OutFrames()
	return frames * p.Channels, err
}

// MustSize calls Size, but panics if it encounters an error.
func (p *pool) MustSize() int {
	size, err := p.Size()
	if err != nil {
		panic(err.Error())
	}

	return size
}

func (p *pool) TypeString() string {
	return "pool"
}

func (p *pool) Finalize(n *nn.Node) error {
	size, err := p.Size()
	if err != nil {
		return err
	}

	if n.NumInputs() != p.Frames*p.Channels {
		return errors.Errorf("Mismatch between expected number of inputs and actual (%d != %d)", p.Frames*p.Channels, n.NumInputs())
	} else if n.Size() != size {
		return errors.Errorf("Mismatch between expected size and actual (%d != %d)", size, n.Size())
	}

	if p.Max {
		p.switches = make([]int, size)
	}
	return nil
}

func (p *pool) Get() interface{} {
	return *p
}

func (p *pool) Blank() interface{} {
	return p
}

func (p *pool) Evaluate(n *nn.Node, values []float64) {
	w, s := p.window(), p.stride()

	for i := range values {
		t, ch := i/p.Channels, i%p.Channels

		if !p.Max {
			var sum float64
			for f := t * s; f < t*s+w; f++ {
				sum += n.InputValue(f*p.Channels + ch)
			}
			values[i] = sum / float64(w)
			continue
		}

		best := math.Inf(-1)
		for f := t * s; f < t*s+w; f++ {
			in := f*p.Channels + ch
			if v := n.InputValue(in); v > best {
				best = v
				p.switches[i] = in
			}
		}
		values[i] = best
	}
}

func (p *pool) InputDeltas(n *nn.Node) []float64 {
	w, s := p.window(), p.stride()
	ds := make([]float64, n.NumInputs())

	for i := 0; i < n.Size(); i++ {
		if p.Max {
			ds[p.switches[i]] += n.Delta(i)
			continue
		}

		t, ch := i/p.Channels, i%p.Channels
		d := n.Delta(i) / float64(w)
		for f := t * s; f < t*s+w; f++ {
			ds[f*p.Channels+ch] += d
		}
	}

	return ds
}
