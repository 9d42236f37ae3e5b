package engine

import "sync/atomic"

// Decay policy: constant loss per clock tick. Coherence is computed in
// closed form from an entry's creation tick rather than swept per append,
// which keeps the append path O(1) and the read path pure. The clock counts
// append events, not wall time, tying decay progression to growth.
//
// Coherence only ever decreases, and raw payloads are untouched: at zero
// coherence an entry is still addressable by its primary key, it just stops
// being findable by anything else.

// CoherenceState is the per-entry decay state, derived from the coherence
// score and never stored.
type CoherenceState string

const (
	// StateCoherent means no coherence has been lost yet.
	StateCoherent CoherenceState = "coherent"
	// StateDegrading means coherence is strictly between zero and one.
	StateDegrading CoherenceState = "degrading"
	// StateDegenerate is terminal: coherence reached zero and the entry is
	// no longer reachable through derived lookups.
	StateDegenerate CoherenceState = "degenerate"
)

// DecayEngine owns the process-wide decay clock and the per-entry coherence
// computation. The clock is advanced only by the append-reaction path.
type DecayEngine struct {
	rate  float64
	clock atomic.Uint64
}

// NewDecayEngine creates an engine with the given constant per-tick decay
// rate. A rate of zero disables decay entirely.
func NewDecayEngine(rate float64) *DecayEngine {
	if rate < 0 {
		rate = 0
	}
	return &DecayEngine{rate: rate}
}

// Rate returns the constant per-tick decay rate.
func (d *DecayEngine) Rate() float64 {
	return d.rate
}

// Clock returns the current decay-clock value.
func (d *DecayEngine) Clock() uint64 {
	return d.clock.Load()
}

// tick advances the clock by one and returns the new value. Called exactly
// once per append by the Core.
func (d *DecayEngine) tick() uint64 {
	return d.clock.Add(1)
}

// restore fast-forwards the clock during journal replay.
func (d *DecayEngine) restore(clock uint64) {
	d.clock.Store(clock)
}

// CoherenceAt returns the coherence of an entry created at the given tick,
// observed at the given clock value: max(0, 1 - rate*elapsed).
func (d *DecayEngine) CoherenceAt(createdAtClock, clock uint64) float64 {
	if clock <= createdAtClock {
		return 1
	}
	c := 1 - d.rate*float64(clock-createdAtClock)
	if c < 0 {
		return 0
	}
	return c
}

// Coherence returns the entry's coherence at the current clock.
func (d *DecayEngine) Coherence(e Entry) float64 {
	return d.CoherenceAt(e.CreatedAtClock, d.clock.Load())
}

// StateOf classifies an entry's current decay state.
func (d *DecayEngine) StateOf(e Entry) CoherenceState {
	switch c := d.Coherence(e); {
	case c >= 1:
		return StateCoherent
	case c > 0:
		return StateDegrading
	default:
		return StateDegenerate
	}
}

// Degenerate reports whether the entry's derived-lookup path has collapsed.
func (d *DecayEngine) Degenerate(e Entry) bool {
	return d.Coherence(e) == 0
}
