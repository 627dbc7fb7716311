// Package initializers provides Initializers for the weights of Adjustable network Nodes.
package initializers

import (
	"math"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
)

// default values, because 'default' is a keyword
var defaultValue = map[string]float64{
	"uniform-lower": -1,
	"uniform-upper": 1,
	"normal-mean":   0,
	"normal-sd":     1,
	"varscl-factor": 1,
}

// source is shared by every RNG in the package, so that a single call to Seed makes the weights
// of a whole Network reproducible
var source = struct {
	sync.Mutex
	*rand.Rand
}{Rand: rand.New(rand.NewSource(1))}

// Seed resets the random source used by all of the Initializers
func Seed(seed int64) {
	source.Lock()
	defer source.Unlock()

	source.Rand = rand.New(rand.NewSource(seed))
}

func float64n() float64 {
	source.Lock()
	defer source.Unlock()
	return source.Float64()
}

func normFloat64() float64 {
	source.Lock()
	defer source.Unlock()
	return source.NormFloat64()
}

// SetDefault sets one of the default values: "uniform-lower", "uniform-upper", "normal-mean",
// "normal-sd" or "varscl-factor".
func SetDefault(name string, value float64) error {
	if _, ok := defaultValue[name]; !ok {
		return errors.Errorf("Value with name %q does not exist", name)
	} else if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Errorf("Value is invalid (%v)", value)
	}

	defaultValue[name] = value
	return nil
}
