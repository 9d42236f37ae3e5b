package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityCoversAppends(t *testing.T) {
	l := NewGrowthLedger(1<<20, 0)

	const n, size = 50, 100
	for i := 0; i < n; i++ {
		require.NoError(t, l.OnAppend(size))
		// Capacity covers everything appended so far at every observation
		// point.
		assert.GreaterOrEqual(t, l.Capacity(), uint64((i+1)*size))
	}

	// Read-only load never moves capacity.
	before := l.Capacity()
	for i := 0; i < 100; i++ {
		_ = l.Capacity()
		_ = l.Saturated()
	}
	assert.Equal(t, before, l.Capacity())
}

func TestCapacityMonotonic(t *testing.T) {
	l := NewGrowthLedger(10, 0)

	prev := uint64(0)
	for i := 0; i < 30; i++ {
		require.NoError(t, l.OnAppend(7))
		cur := l.Capacity()
		assert.Greater(t, cur, prev, "capacity must be strictly growing under appends")
		prev = cur
	}
}

func TestGrowthFactorAccelerates(t *testing.T) {
	// With a small reference, accumulated capacity inflates later appends:
	// equal entry sizes buy more capacity over time.
	l := NewGrowthLedger(10, 0)

	require.NoError(t, l.OnAppend(10))
	first := l.Capacity()
	require.NoError(t, l.OnAppend(10))
	second := l.Capacity() - first
	assert.Greater(t, second, first)
}

func TestSaturationAtCeiling(t *testing.T) {
	l := NewGrowthLedger(1, 1000)

	require.NoError(t, l.OnAppend(600))
	assert.Equal(t, uint64(600), l.Capacity())

	// factor is now 601; the next expansion blows past the ceiling.
	err := l.OnAppend(600)
	require.ErrorIs(t, err, ErrCapacitySaturated)
	assert.True(t, l.Saturated())
	// Saturation commits nothing.
	assert.Equal(t, uint64(600), l.Capacity())

	// Terminal mode: every later attempt fails the same way.
	assert.ErrorIs(t, l.OnAppend(1), ErrCapacitySaturated)
	assert.Equal(t, uint64(600), l.Capacity())
}

func TestSaturationOnOverflow(t *testing.T) {
	l := NewGrowthLedger(1, 0)
	l.restore(math.MaxUint64-10, false)

	err := l.OnAppend(8)
	require.ErrorIs(t, err, ErrCapacitySaturated)
	assert.True(t, l.Saturated())
}
