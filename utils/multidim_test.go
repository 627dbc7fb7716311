package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiDimIndexPoint(t *testing.T) {
	m := NewMultiDim(4, 3, 2)
	require.Equal(t, 24, m.Size())
	assert.Equal(t, []int{6, 2, 1}, m.Strides)

	for i := 0; i < m.Size(); i++ {
		assert.Equal(t, i, m.Index(m.Point(i)...))
	}

	assert.Equal(t, 2*6+1*2+1, m.Index(2, 1, 1))
}

func TestMultiDimTranspose(t *testing.T) {
	// (T=2, V=3, C=2) → (C, T, V)
	m := NewMultiDim(2, 3, 2)
	src := make([]float64, m.Size())
	for i := range src {
		src[i] = float64(i)
	}

	dst := make([]float64, len(src))
	m.Transpose(dst, src, 2, 0, 1)

	to := m.Permute(2, 0, 1)
	assert.Equal(t, []int{2, 2, 3}, to.Dims)

	for tt := 0; tt < 2; tt++ {
		for v := 0; v < 3; v++ {
			for c := 0; c < 2; c++ {
				assert.Equal(t, src[m.Index(tt, v, c)], dst[to.Index(c, tt, v)])
			}
		}
	}
}
