package utils

// MultiDim maps between points in an n-dimensional shape and indexes in the flat slice that
// stores it.
//
// stored such that the last dimension changes fastest (row-major), matching how keypoint
// sequences are laid out: [frame][joint][channel].
//
// the fields are made public in order to allow exporting, but they should not actually be
// altered once it has been initialized
type MultiDim struct {
	// the extent of each dimension
	Dims []int

	// Strides[i] is the number of values spanned by one step along dimension i
	Strides []int
}

// NewMultiDim creates a new MultiDim for the given dimensions. The slice is copied.
func NewMultiDim(dims ...int) *MultiDim {
	m := &MultiDim{
		Dims:    append([]int(nil), dims...),
		Strides: make([]int, len(dims)),
	}

	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		m.Strides[i] = stride
		stride *= dims[i]
	}

	return m
}

// Index returns the index corresponding to the given point
//
// assumes that the point has the same number of dimensions as 'm' and is in bounds
func (m *MultiDim) Index(point ...int) int {
	index := 0
	for i, p := range point {
		index += p * m.Strides[i]
	}

	return index
}

// Point returns the multi-dimensional point leading to the given index in the base array
//
// assumes that the given index will be in bounds
func (m *MultiDim) Point(index int) []int {
	p := make([]int, len(m.Dims))
	for i := range p {
		p[i] = index / m.Strides[i]
		index %= m.Strides[i]
	}

	return p
}

// Size returns the total number of values covered by the dimensions
func (m *MultiDim) Size() int {
	if len(m.Dims) == 0 {
		return 0
	}

	return m.Dims[0] * m.Strides[0]
}

// Permute returns the MultiDim whose dimensions are reordered by 'order', where order[i] is the
// dimension of 'm' that becomes dimension i.
func (m *MultiDim) Permute(order ...int) *MultiDim {
	dims := make([]int, len(order))
	for i, o := range order {
		dims[i] = m.Dims[o]
	}

	return NewMultiDim(dims...)
}

// Transpose copies 'src', laid out by 'm', into 'dst' laid out with dimensions reordered by
// 'order' (see Permute). dst must have the same length as src.
func (m *MultiDim) Transpose(dst, src []float64, order ...int) {
	to := m.Permute(order...)

	point := make([]int, len(m.Dims))
	for i, v := range src {
		rest := i
		for d := range point {
			point[d] = rest / m.Strides[d]
			rest %= m.Strides[d]
		}

		j := 0
		for d, o := range order {
			j += point[o] * to.Strides[d]
		}

		dst[j] = v
	}
}
