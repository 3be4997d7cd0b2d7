package hazard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/lane-pilot/internal/config"
)

func TestDistanceEstimate(t *testing.T) {
	e := NewDistanceEstimator(config.Default())

	d, ok := e.Estimate(100)
	require.True(t, ok)
	assert.InDelta(t, 5.0, d, 1e-9)

	d, ok = e.Estimate(1000)
	require.True(t, ok)
	assert.InDelta(t, 0.5, d, 1e-9)
}

func TestDistanceStrictlyDecreasing(t *testing.T) {
	e := DistanceEstimator{FocalLengthPx: 1000, ReferenceWidthM: 0.5}

	prev, ok := e.Estimate(1)
	require.True(t, ok)
	for w := 2; w <= 2000; w++ {
		d, ok := e.Estimate(float64(w))
		require.True(t, ok)
		require.Less(t, d, prev, "width %d", w)
		prev = d
	}
}

func TestDistanceNonPositiveWidth(t *testing.T) {
	e := NewDistanceEstimator(config.Default())

	for _, w := range []float64{0, -1, -250} {
		d, ok := e.Estimate(w)
		assert.False(t, ok, "width %v", w)
		assert.Zero(t, d)
	}
}
