package engine

import (
	"fmt"
	"math"
	"sync/atomic"
)

// GrowthLedger tracks total addressable capacity. Capacity only ever grows:
// every append expands it by the entry size scaled by a growth factor that
// itself increases with accumulated capacity, and there is no deallocation
// operation. When the next expansion would overflow the representable range
// or the configured ceiling, the ledger enters the terminal saturated state.
type GrowthLedger struct {
	// reference controls the growth factor: factor = 1 + capacity/reference.
	// Strictly increasing in capacity, never below one.
	reference uint64
	// ceiling is the maximum representable capacity. Zero means the full
	// uint64 range.
	ceiling uint64

	capacity  atomic.Uint64
	saturated atomic.Bool
}

// NewGrowthLedger creates a ledger starting at zero capacity.
func NewGrowthLedger(reference, ceiling uint64) *GrowthLedger {
	if reference == 0 {
		reference = 1
	}
	if ceiling == 0 {
		ceiling = math.MaxUint64
	}
	return &GrowthLedger{reference: reference, ceiling: ceiling}
}

// Capacity returns the current allocated capacity.
func (l *GrowthLedger) Capacity() uint64 {
	return l.capacity.Load()
}

// Saturated reports whether the ledger has entered its terminal state.
func (l *GrowthLedger) Saturated() bool {
	return l.saturated.Load()
}

// growthFactor returns the current expansion multiplier.
func (l *GrowthLedger) growthFactor() uint64 {
	return 1 + l.capacity.Load()/l.reference
}

// OnAppend expands capacity for one appended entry. Called exactly once per
// append, on the serialized append path. On overflow the ledger saturates
// and returns ErrCapacitySaturated; capacity is left unchanged, and every
// later call fails the same way.
func (l *GrowthLedger) OnAppend(entrySize uint64) error {
	if l.saturated.Load() {
		return ErrCapacitySaturated
	}

	factor := l.growthFactor()
	delta := entrySize * factor
	if entrySize != 0 && delta/entrySize != factor {
		l.saturated.Store(true)
		return fmt.Errorf("growth delta overflow: %w", ErrCapacitySaturated)
	}

	cur := l.capacity.Load()
	next := cur + delta
	if next < cur || next > l.ceiling {
		l.saturated.Store(true)
		return fmt.Errorf("capacity %d + %d exceeds representable range: %w", cur, delta, ErrCapacitySaturated)
	}

	l.capacity.Store(next)
	return nil
}

// restore sets the ledger state during journal replay.
func (l *GrowthLedger) restore(capacity uint64, saturated bool) {
	l.capacity.Store(capacity)
	l.saturated.Store(saturated)
}
