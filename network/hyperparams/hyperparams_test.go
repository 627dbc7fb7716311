package hyperparams

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep(t *testing.T) {
	s := Step(1).Add(10, 0.5).Add(20, 0.25)

	assert.Equal(t, 1.0, s.Value(0))
	assert.Equal(t, 1.0, s.Value(9))
	assert.Equal(t, 0.5, s.Value(10))
	assert.Equal(t, 0.5, s.Value(19))
	assert.Equal(t, 0.25, s.Value(20))
	assert.Equal(t, 0.25, s.Value(1000))
}

func TestDecay(t *testing.T) {
	d := Decay(0.1, 0.1, 5, 15)

	assert.InDelta(t, 0.1, d.Value(4), 1e-15)
	assert.InDelta(t, 0.01, d.Value(5), 1e-15)
	assert.InDelta(t, 0.001, d.Value(15), 1e-15)
}

func TestStepStorable(t *testing.T) {
	s := Decay(0.1, 0.5, 3)

	data, err := json.Marshal(s.Get())
	require.NoError(t, err)

	loaded := Step(0)
	require.NoError(t, json.Unmarshal(data, loaded.Blank()))
	assert.Equal(t, s, loaded)

	c := Constant(3)
	data, err = json.Marshal(c.Get())
	require.NoError(t, err)

	lc := Constant(0)
	require.NoError(t, json.Unmarshal(data, lc.Blank()))
	assert.Equal(t, 3.0, lc.Value(7))
}
