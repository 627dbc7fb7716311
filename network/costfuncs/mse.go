package costfuncs

type mse int8

// MSE returns the mean squared error cost function, averaged over outputs
func MSE() mse {
	return mse(0)
}

func (m mse) TypeString() string {
	return "mse"
}

func (m mse) Cost(outs, targets []float64) float64 {
	var sum float64
	for i := range outs {
		d := outs[i] - targets[i]
		sum += d * d
	}

	return sum / float64(len(outs))
}

func (m mse) Derivs(outs, targets []float64) []float64 {
	ds := make([]float64, len(outs))
	for i := range outs {
		ds[i] = 2 * (outs[i] - targets[i]) / float64(len(outs))
	}

	return ds
}
