package engine

import (
	"fmt"
	"math"
)

// Position is a point in the spatial coordinate system.
type Position [3]float64

// Distance returns the Euclidean distance between two positions.
func Distance(a, b Position) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// CausalGate is the single enforcement point for propagation-limited
// visibility. It is a pure function of its inputs: no hidden state, no
// randomness, so identical inputs always produce identical horizons and
// identical downstream results.
type CausalGate struct {
	// CMax is the fixed maximum propagation speed, in key units per
	// distance unit. Nothing observes ahead of it.
	CMax float64
}

// NewCausalGate creates a gate with the given propagation bound. CMax must
// be positive; that is a configuration contract, not a runtime condition.
func NewCausalGate(cMax float64) CausalGate {
	if cMax <= 0 {
		panic(fmt.Sprintf("causal gate: cMax must be positive, got %v", cMax))
	}
	return CausalGate{CMax: cMax}
}

// VisibleHorizon returns the maximum key a query at pQ may observe about a
// target at pT, given the requester's time cursor.
func (g CausalGate) VisibleHorizon(pQ, pT Position, tCursor Key) Key {
	lag := Distance(pQ, pT) / g.CMax
	return tCursor - KeyFromFloat(lag)
}

// Clamp validates a requested key against the visible horizon. A request
// beyond the horizon is a hard reject with ErrCausalityViolation; otherwise
// the effective observation key is min(k, horizon). Clamp is applied before
// any routing or materialization work.
func (g CausalGate) Clamp(pQ, pT Position, tCursor, k Key) (Key, error) {
	horizon := g.VisibleHorizon(pQ, pT, tCursor)
	if k > horizon {
		return 0, fmt.Errorf("key %s beyond horizon %s: %w", k, horizon, ErrCausalityViolation)
	}
	if k < horizon {
		return k, nil
	}
	return horizon, nil
}

// Observe gates a point request and resolves it against the index at the
// clamped key.
func (g CausalGate) Observe(idx *TemporalIndex, pQ, pT Position, tCursor, k Key) (Entry, error) {
	effective, err := g.Clamp(pQ, pT, tCursor, k)
	if err != nil {
		return Entry{}, err
	}
	return idx.NearestBelow(effective)
}

// Visible reports whether two observers separated by distance d with cursor
// difference dt may observe each other: d <= dt * cMax.
func (g CausalGate) Visible(d float64, dt Key) bool {
	return d <= dt.Float()*g.CMax
}
