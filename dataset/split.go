package dataset

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Split is a partition of the indexes [0, n) of a labeled cohort into training and test sets
type Split struct {
	Train []int
	Test  []int
}

// Positional returns the split with the first k indexes in the training set and the remaining
// n-k in the test set.
func Positional(n, k int) (Split, error) {
	if n < 0 {
		return Split{}, errors.Errorf("Number of samples must be non-negative (%d)", n)
	} else if k < 0 || k > n {
		return Split{}, errors.Errorf("Training count %d is out of range for %d samples", k, n)
	}

	s := Split{Train: make([]int, k), Test: make([]int, n-k)}
	for i := range s.Train {
		s.Train[i] = i
	}
	for i := range s.Test {
		s.Test[i] = k + i
	}

	return s, nil
}

// Stratified returns a split where each distinct label contributes floor(frac × count) of its
// samples to the training set and the rest to the test set, so that the class balance of both
// sets follows that of the whole. Samples are shuffled within each label with rng; labels are
// visited in order of first appearance.
func Stratified(labels []string, frac float64, rng *rand.Rand) (Split, error) {
	if frac < 0 || frac > 1 || math.IsNaN(frac) {
		return Split{}, errors.Errorf("Training fraction must be in [0, 1] (%v)", frac)
	} else if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}

	var order []string
	groups := make(map[string][]int)
	for i, l := range labels {
		if _, ok := groups[l]; !ok {
			order = append(order, l)
		}
		groups[l] = append(groups[l], i)
	}

	s := Split{Train: []int{}, Test: []int{}}
	for _, l := range order {
		g := groups[l]
		rng.Shuffle(len(g), func(i, j int) {
			g[i], g[j] = g[j], g[i]
		})

		k := trainCount(frac, len(g))
		s.Train = append(s.Train, g[:k]...)
		s.Test = append(s.Test, g[k:]...)
	}

	return s, nil
}

// trainCount returns floor(frac × n), treating products within rounding error of an integer as
// that integer: 0.7 × 90 is 62.99999999999999 in floating point, but should give 63.
func trainCount(frac float64, n int) int {
	return int(math.Floor(frac*float64(n) + 1e-9))
}
