package network

import (
	"gonum.org/v1/gonum/floats"
)

// CorrectHighest returns whether or not the largest value in each slice is at the same index.
// Ties are resolved to the lowest index.
func CorrectHighest(outs, targets []float64) bool {
	if len(outs) == 0 || len(outs) != len(targets) {
		return false
	}

	return floats.MaxIdx(outs) == floats.MaxIdx(targets)
}

// ArgMax returns the index of the largest value, the lowest index in case of ties. It returns -1
// for an empty slice.
func ArgMax(vs []float64) int {
	if len(vs) == 0 {
		return -1
	}

	return floats.MaxIdx(vs)
}

// TrainUntil returns a function that satisfies TrainArgs.RunCondition, running for the given
// number of iterations
func TrainUntil(maxIterations int) func(int) bool {
	return func(iteration int) bool {
		return iteration < maxIterations
	}
}

// Every returns a function that satisfies TrainArgs.SendStatus or TrainArgs.ShouldTest
// 'frequency' is in units of iterations
//
// this function is self-explanatory from viewing the source
func Every(frequency int) func(int) bool {
	return func(iteration int) bool {
		return iteration%frequency == 0
	}
}

// OneHot returns a slice of length n with a 1 at index i and zeros elsewhere
func OneHot(n, i int) []float64 {
	vs := make([]float64, n)
	vs[i] = 1
	return vs
}
