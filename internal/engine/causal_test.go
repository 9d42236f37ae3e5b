package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleHorizon(t *testing.T) {
	gate := NewCausalGate(1)

	pQ := Position{0, 0, 0}
	pT := Position{4, 0, 0}
	// A target 4 units away lags the cursor by 4 key units at cMax = 1.
	assert.Equal(t, KeyFromFloat(6), gate.VisibleHorizon(pQ, pT, KeyFromFloat(10)))

	// Co-located observers see right up to the cursor.
	assert.Equal(t, KeyFromFloat(10), gate.VisibleHorizon(pQ, pQ, KeyFromFloat(10)))
}

func TestCrossVisibilityBound(t *testing.T) {
	gate := NewCausalGate(1)

	// Two observers separated by 10 light-seconds with a cursor difference
	// of 5 seconds cannot see each other: 10 > 5*1.
	assert.False(t, gate.Visible(10, KeyFromFloat(5)))
	assert.True(t, gate.Visible(10, KeyFromFloat(10)))
	assert.True(t, gate.Visible(10, KeyFromFloat(15)))
}

func TestClampRejectsBeyondHorizon(t *testing.T) {
	gate := NewCausalGate(1)

	pQ := Position{0, 0, 0}
	pT := Position{10, 0, 0}

	_, err := gate.Clamp(pQ, pT, KeyFromFloat(5), KeyFromFloat(0))
	require.ErrorIs(t, err, ErrCausalityViolation)

	// Within the horizon the requested key passes unchanged.
	k, err := gate.Clamp(pQ, pT, KeyFromFloat(15), KeyFromFloat(2))
	require.NoError(t, err)
	assert.Equal(t, KeyFromFloat(2), k)

	// At the horizon the effective key is the horizon itself.
	k, err = gate.Clamp(pQ, pT, KeyFromFloat(15), KeyFromFloat(5))
	require.NoError(t, err)
	assert.Equal(t, KeyFromFloat(5), k)
}

func TestObserveDelegatesToNearestBelow(t *testing.T) {
	idx := NewTemporalIndex(0)
	for i, ref := range []string{"A", "B", "C"} {
		_, err := idx.Append(ref, KeyFromFloat(float64(i+1)), uint64(i+1), 1)
		require.NoError(t, err)
	}

	gate := NewCausalGate(1)
	pQ := Position{0, 0, 0}
	pT := Position{1, 0, 0}

	// Cursor 3.5, distance 1, cMax 1: horizon 2.5. Requesting 2.2 resolves
	// at-or-below 2.2.
	e, err := gate.Observe(idx, pQ, pT, KeyFromFloat(3.5), KeyFromFloat(2.2))
	require.NoError(t, err)
	assert.Equal(t, "B", e.PayloadRef)

	// Requesting 3 exceeds the 2.5 horizon.
	_, err = gate.Observe(idx, pQ, pT, KeyFromFloat(3.5), KeyFromFloat(3))
	assert.ErrorIs(t, err, ErrCausalityViolation)
}

func TestGateDeterminism(t *testing.T) {
	gate := NewCausalGate(2)
	pQ := Position{1, 2, 3}
	pT := Position{-4, 0, 2}

	h1 := gate.VisibleHorizon(pQ, pT, KeyFromFloat(100))
	h2 := gate.VisibleHorizon(pQ, pT, KeyFromFloat(100))
	assert.Equal(t, h1, h2)
}
