package dataset

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/sharnoff/pdgait/cohort"
	"github.com/sharnoff/pdgait/network"
	"github.com/sharnoff/pdgait/utils"
)

// Layout is the order that the values of a sequence are given to a network in
type Layout string

const (
	// FramesFirst keeps the stored order: frame, joint, channel
	FramesFirst Layout = "tvc"

	// ChannelsFirst orders by channel, then frame, then joint
	ChannelsFirst Layout = "ctv"
)

// ParseLayout returns the Layout named by s
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case FramesFirst, ChannelsFirst:
		return l, nil
	case "":
		return FramesFirst, nil
	}

	return "", errors.Errorf("Unknown layout %q (should be %q or %q)", s, FramesFirst, ChannelsFirst)
}

// Loader produces traversals of a Dataset in mini-batches
type Loader struct {
	Dataset   *Dataset
	BatchSize int

	// Shuffle gives each Epoch a new random order
	Shuffle bool

	// DropLast skips the final batch of an Epoch if it is smaller than BatchSize
	DropLast bool

	// Workers bounds the number of goroutines preparing a batch. ≤ 0 means one per CPU.
	Workers int

	Layout Layout

	// Rand is the source of shuffling. nil uses a fixed seed.
	Rand *rand.Rand
}

// Epoch returns a single traversal of the Dataset. Its order is fixed when it is created.
func (l *Loader) Epoch() *Epoch {
	if l.Rand == nil {
		l.Rand = rand.New(rand.NewSource(0))
	}

	n := l.Dataset.Len()
	bs := l.BatchSize
	if bs < 1 {
		bs = 1
	}

	var order []int
	if l.Shuffle {
		order = l.Rand.Perm(n)
	} else {
		order = make([]int, n)
		for i := range order {
			order[i] = i
		}
	}

	if l.DropLast {
		order = order[:n-n%bs]
	}

	return &Epoch{loader: l, order: order, batchSize: bs, batch: -1}
}

// Epoch is one traversal of a Dataset. It implements network.DataSupplier: Get must be called
// with increasing iterations, and each batch is prepared when its first sample is requested.
type Epoch struct {
	loader    *Loader
	order     []int
	batchSize int

	// the index of the batch currently held in 'data'
	batch int
	data  []network.Datum
}

// Len returns the number of samples in the traversal
func (e *Epoch) Len() int {
	return len(e.order)
}

// Batches returns the number of batches in the traversal
func (e *Epoch) Batches() int {
	return (len(e.order) + e.batchSize - 1) / e.batchSize
}

// Order returns the Dataset index of each sample in the traversal
func (e *Epoch) Order() []int {
	o := make([]int, len(e.order))
	copy(o, e.order)
	return o
}

// Get returns the Datum for the i'th sample of the traversal
func (e *Epoch) Get(i int) (network.Datum, error) {
	if i < 0 || i >= len(e.order) {
		return network.Datum{}, errors.Wrapf(ErrOutOfRange, "Iteration %d of epoch with %d samples", i, len(e.order))
	}

	if b := i / e.batchSize; b != e.batch {
		if err := e.prepare(b); err != nil {
			return network.Datum{}, errors.Wrapf(err, "Failed to prepare batch %d\n", b)
		}
	}

	return e.data[i%e.batchSize], nil
}

// ID returns the identifier of the i'th sample of the traversal
func (e *Epoch) ID(i int) string {
	s, err := e.loader.Dataset.Get(e.order[i])
	if err != nil {
		return ""
	}
	return s.ID
}

// BatchEnded returns true after the last sample of each batch, including a final partial batch
func (e *Epoch) BatchEnded(i int) bool {
	return (i+1)%e.batchSize == 0 || i+1 == len(e.order)
}

// DoneTesting returns true once every sample has been tested
func (e *Epoch) DoneTesting(tested int) bool {
	return tested >= len(e.order)
}

func (e *Epoch) prepare(b int) error {
	start := b * e.batchSize
	end := start + e.batchSize
	if end > len(e.order) {
		end = len(e.order)
	}

	data := make([]network.Datum, end-start)
	errs := make([]error, end-start)

	ds := e.loader.Dataset
	numClasses := ds.Classes().Len()
	layout := e.loader.Layout

	f := func(i int) {
		s, err := ds.Get(e.order[start+i])
		if err != nil {
			errs[i] = err
			return
		}

		data[i] = network.Datum{
			Inputs:  Flatten(s.Sequence, layout),
			Outputs: network.OneHot(numClasses, s.Class),
		}
	}

	opsPerThread := 1
	utils.MultiThread(0, end-start, f, opsPerThread, e.loader.Workers)

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	e.batch = b
	e.data = data
	return nil
}

// Flatten returns the values of the sequence in the given layout. For FramesFirst the returned
// slice is the sequence's own storage, and must not be modified.
func Flatten(seq cohort.Sequence, layout Layout) []float64 {
	if layout != ChannelsFirst {
		return seq.Values
	}

	vs := make([]float64, len(seq.Values))
	seq.Dims().Transpose(vs, seq.Values, 2, 0, 1)
	return vs
}
