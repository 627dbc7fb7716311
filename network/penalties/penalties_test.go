package penalties

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPenalties(t *testing.T) {
	assert.InDelta(t, 1.1, L1(0.1).Penalize(-3, 1.2), 1e-12)
	assert.InDelta(t, 1.3, L1(0.1).Penalize(3, 1.2), 1e-12)
	assert.Equal(t, 1.2, L1(0.1).Penalize(0, 1.2))

	assert.InDelta(t, 1.8, L2(0.1).Penalize(3, 1.2), 1e-12)
	assert.InDelta(t, 1.5, WeightDecay(0.1).Penalize(3, 1.2), 1e-12)
	assert.InDelta(t, 1.9, ElasticNet(0.1, 0.1).Penalize(3, 1.2), 1e-12)
}
