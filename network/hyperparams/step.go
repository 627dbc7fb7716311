package hyperparams

type step struct {
	Iter int     `json:"iter"`
	Val  float64 `json:"value"`
}

type stepper []step

// Step returns a HyperParameter that starts at 'base' and changes only at the steps added with
// Add.
func Step(base float64) *stepper {
	s := stepper{{0, base}}
	return &s
}

// Add adds a step to the HyperParameter: from optimizer step 'iter' onwards, it has the given
// value. Steps must be added in increasing order.
func (s *stepper) Add(iter int, value float64) *stepper {
	*s = append(*s, step{iter, value})
	return s
}

// Decay returns a Step HyperParameter that starts at 'base' and is multiplied by 'factor' at each
// of the given steps, as in a typical learning rate schedule.
func Decay(base, factor float64, at ...int) *stepper {
	s := Step(base)
	v := base
	for _, iter := range at {
		v *= factor
		s.Add(iter, v)
	}

	return s
}

func (s *stepper) TypeString() string {
	return "step"
}

func (s *stepper) Value(iter int) float64 {
	sl := []step(*s)
	for i := 1; i < len(sl); i++ {
		if sl[i].Iter > iter {
			return sl[i-1].Val
		}
	}

	return sl[len(sl)-1].Val
}

func (s *stepper) Get() interface{} {
	return *s
}

func (s *stepper) Blank() interface{} {
	return s
}
