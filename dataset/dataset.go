// Package dataset exposes a labeled cohort as an indexed collection of training samples, and
// feeds those samples to a network in mini-batches.
package dataset

import (
	"github.com/pkg/errors"

	"github.com/sharnoff/pdgait/cohort"
	"github.com/sharnoff/pdgait/labels"
)

// ErrOutOfRange is returned when accessing a sample past the end of a Dataset
var ErrOutOfRange = errors.New("Sample index out of range")

// Sample is a single labeled sequence
type Sample struct {
	ID    string
	Label string

	// Class is the index of Label, as given by the Dataset's Classes
	Class int

	Sequence cohort.Sequence
}

// Dataset is an immutable, indexed view of part of a labeled cohort
type Dataset struct {
	samples []Sample
	classes labels.Classes
}

// New returns the Dataset made of the entries of lc at the given indexes, in order. Every label
// must be known to 'classes'.
func New(lc *labels.LabeledCohort, idx []int, classes labels.Classes) (*Dataset, error) {
	d := &Dataset{samples: make([]Sample, len(idx)), classes: classes}

	for i, j := range idx {
		if j < 0 || j >= lc.Len() {
			return nil, errors.Wrapf(ErrOutOfRange, "Index %d of the split is %d, but there are %d entries", i, j, lc.Len())
		}

		e := lc.Entries[j]
		class, err := classes.Index(e.Label)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't use entry %q\n", e.ID)
		}

		d.samples[i] = Sample{ID: e.ID, Label: e.Label, Class: class, Sequence: e.Sequence}
	}

	return d, nil
}

// Len returns the number of samples in the Dataset
func (d *Dataset) Len() int {
	return len(d.samples)
}

// Get returns the i'th sample, or ErrOutOfRange if i is not in [0, Len())
func (d *Dataset) Get(i int) (Sample, error) {
	if i < 0 || i >= len(d.samples) {
		return Sample{}, errors.Wrapf(ErrOutOfRange, "Index %d, length %d", i, len(d.samples))
	}

	return d.samples[i], nil
}

// Classes returns the label encoding used by the Dataset
func (d *Dataset) Classes() labels.Classes {
	return d.classes
}

// ClassCounts returns the number of samples in each class
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, d.classes.Len())
	for _, s := range d.samples {
		counts[s.Class]++
	}

	return counts
}
