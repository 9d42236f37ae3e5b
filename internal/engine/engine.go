package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// Options is the explicit initialization of the process-wide core state:
// floor key, zero coherence loss, zero capacity.
type Options struct {
	// FloorKey is the minimum legal key. Queries below it are boundary
	// errors, not data.
	FloorKey Key
	// CMax is the maximum propagation speed in key units per distance unit.
	CMax float64
	// DecayRate is the constant per-tick coherence loss.
	DecayRate float64
	// BaseResolution is the projection resolution at zero distance.
	BaseResolution float64
	// ReferenceScale is the distance at which resolution halves.
	ReferenceScale float64
	// MaxResolution is the floor granularity expressed as a resolution cap;
	// finer requests are clamped with a precision warning.
	MaxResolution float64
	// GrowthReference scales the capacity growth factor.
	GrowthReference uint64
	// CapacityCeiling bounds the growth ledger. Zero means the full range.
	CapacityCeiling uint64
}

func (o Options) withDefaults() Options {
	if o.CMax <= 0 {
		o.CMax = 1
	}
	if o.BaseResolution <= 0 {
		o.BaseResolution = 64
	}
	if o.ReferenceScale <= 0 {
		o.ReferenceScale = 10
	}
	if o.MaxResolution <= 0 {
		o.MaxResolution = o.BaseResolution
	}
	if o.GrowthReference == 0 {
		o.GrowthReference = 1 << 20
	}
	return o
}

// JournalRecord is one committed append as persisted by the journal.
type JournalRecord struct {
	Entry      Entry
	Observable string
}

// Journal is the durable append log. The core writes it on the single
// append path and replays it at startup; it never reads it on queries.
type Journal interface {
	AppendRecord(ctx context.Context, rec JournalRecord) error
}

// Core is the injectable state object owning the temporal index, decay
// clock, growth ledger, routing graph and materialization cache. The only
// mutating path is Append; every other operation is a pure read and may run
// concurrently with appends, observing either the pre-append or the fully
// post-append state.
type Core struct {
	opts Options

	index  *TemporalIndex
	gate   CausalGate
	decay  *DecayEngine
	growth *GrowthLedger
	cache  *SpatialCache

	primitives PrimitiveStore
	journal    Journal

	graph atomic.Pointer[Graph]

	// semantic maps observable names to the keys that carry them. Written
	// only on the append path; readers re-check index membership so a key
	// is never observable before its entry is published.
	semantic sync.Map // string -> []Key

	// appendMu serializes the append-reaction sequence:
	// growth -> clock tick -> index append -> semantic index -> journal.
	appendMu sync.Mutex
}

// NewCore builds a core over the given primitive store.
func NewCore(opts Options, primitives PrimitiveStore) *Core {
	opts = opts.withDefaults()
	idx := NewTemporalIndex(opts.FloorKey)
	decay := NewDecayEngine(opts.DecayRate)
	return &Core{
		opts:       opts,
		index:      idx,
		gate:       NewCausalGate(opts.CMax),
		decay:      decay,
		growth:     NewGrowthLedger(opts.GrowthReference, opts.CapacityCeiling),
		cache:      NewSpatialCache(opts.BaseResolution, opts.ReferenceScale, opts.MaxResolution, idx, decay, primitives),
		primitives: primitives,
	}
}

// SetJournal attaches a durable append log. Must be set before serving.
func (c *Core) SetJournal(j Journal) {
	c.journal = j
}

// SetGraph installs the routing node set.
func (c *Core) SetGraph(g *Graph) {
	c.graph.Store(g)
}

// Graph returns the installed routing graph, or nil.
func (c *Core) Graph() *Graph {
	return c.graph.Load()
}

// Index exposes the temporal index for read-only use.
func (c *Core) Index() *TemporalIndex {
	return c.index
}

// Decay exposes the decay engine for inspection.
func (c *Core) Decay() *DecayEngine {
	return c.decay
}

// Gate returns the causal gate.
func (c *Core) Gate() CausalGate {
	return c.gate
}

// Cache exposes the spatial cache.
func (c *Core) Cache() *SpatialCache {
	return c.cache
}

// Append runs the append-reaction sequence for one new primitive: reserve
// capacity, tick the decay clock, commit the index entry, extend the
// semantic index, journal the record. Strictly serialized against itself;
// readers are never blocked and never see an intermediate state. Returns
// the assigned key.
func (c *Core) Append(ctx context.Context, prim Primitive, minKey Key) (Key, error) {
	if !ValidKind(prim.Kind) {
		return 0, fmt.Errorf("append %q: %w", prim.Kind, ErrUnknownKind)
	}
	if minKey < c.index.Floor() {
		return 0, fmt.Errorf("append minKey %s below floor %s: %w", minKey, c.index.Floor(), ErrOutOfOrder)
	}

	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	// Capacity is reserved first so a saturating append commits nothing.
	if err := c.growth.OnAppend(prim.Size()); err != nil {
		return 0, err
	}

	clock := c.decay.tick()
	entry, err := c.index.Append(prim.ID, minKey, clock, prim.Size())
	if err != nil {
		return 0, err
	}

	if prim.Observable != "" {
		c.addObservable(prim.Observable, entry.Key)
	}

	if c.journal != nil {
		rec := JournalRecord{Entry: entry, Observable: prim.Observable}
		if err := c.journal.AppendRecord(ctx, rec); err != nil {
			// The entry is already visible; losing the journal row only
			// affects the next restart.
			log.Printf("journal append key %s: %v", entry.Key, err)
		}
	}

	return entry.Key, nil
}

// addObservable extends the semantic index copy-on-write, so concurrent
// readers see either the old or the new key list.
func (c *Core) addObservable(observable string, key Key) {
	var keys []Key
	if v, ok := c.semantic.Load(observable); ok {
		keys = v.([]Key)
	}
	next := make([]Key, len(keys)+1)
	copy(next, keys)
	next[len(keys)] = key
	c.semantic.Store(observable, next)
}

// resolveObservable returns the published keys carrying an observable, in
// key order. Keys not yet visible in the index are skipped.
func (c *Core) resolveObservable(observable string) []Key {
	v, ok := c.semantic.Load(observable)
	if !ok {
		return nil
	}
	var out []Key
	for _, k := range v.([]Key) {
		if c.index.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Restore rebuilds core state from journal records, in order. It reuses
// the index append path so every invariant (strict key order, clock/growth
// monotonicity) holds across restarts. Called once, before serving.
func (c *Core) Restore(records []JournalRecord) error {
	c.appendMu.Lock()
	defer c.appendMu.Unlock()

	if c.index.Len() != 0 {
		return fmt.Errorf("restore into non-empty core")
	}

	var clock uint64
	for _, rec := range records {
		e, err := c.index.Append(rec.Entry.PayloadRef, rec.Entry.Key, rec.Entry.CreatedAtClock, rec.Entry.Size)
		if err != nil {
			return fmt.Errorf("restore key %s: %w", rec.Entry.Key, err)
		}
		if e.Key != rec.Entry.Key {
			return fmt.Errorf("restore key %s: journal out of order, assigned %s", rec.Entry.Key, e.Key)
		}
		if rec.Observable != "" {
			c.addObservable(rec.Observable, e.Key)
		}
		if err := c.growth.OnAppend(rec.Entry.Size); err != nil {
			// Saturation is part of the restored state, not a failure.
			log.Printf("restore: ledger saturated at key %s", rec.Entry.Key)
		}
		clock = rec.Entry.CreatedAtClock
	}
	c.decay.restore(clock)
	return nil
}

// GetRaw returns the unaltered payload for an exact key. A point lookup:
// it never fails from decay, only from absence.
func (c *Core) GetRaw(ctx context.Context, key Key) (Primitive, error) {
	e, err := c.index.Get(key)
	if err != nil {
		return Primitive{}, err
	}
	p, err := c.primitives.GetPrimitive(ctx, e.PayloadRef)
	if err != nil {
		return Primitive{}, fmt.Errorf("get primitive %s: %w", e.PayloadRef, err)
	}
	return p, nil
}

// Route computes a path on the installed graph. Pure read.
func (c *Core) Route(start, goal int) (Route, error) {
	g := c.graph.Load()
	if g == nil {
		return Route{}, fmt.Errorf("no routing graph installed")
	}
	return g.Route(start, goal)
}

// Stats is a point-in-time view of the core's observable state.
type Stats struct {
	Clock      uint64  `json:"clock"`
	Floor      float64 `json:"floor"`
	Frontier   float64 `json:"frontier"`
	Entries    int     `json:"entries"`
	Capacity   uint64  `json:"capacity"`
	Saturated  bool    `json:"saturated"`
	DecayRate  float64 `json:"decay_rate"`
	Degenerate int     `json:"degenerate"`
	CacheSize  int     `json:"cache_size"`
	GraphNodes int     `json:"graph_nodes"`
}

// Stats returns current inspection counters. The degenerate count walks the
// visible snapshot; like every read it is safe against concurrent appends.
func (c *Core) Stats() Stats {
	s := Stats{
		Clock:     c.decay.Clock(),
		Floor:     c.index.Floor().Float(),
		Frontier:  c.index.Frontier().Float(),
		Entries:   c.index.Len(),
		Capacity:  c.growth.Capacity(),
		Saturated: c.growth.Saturated(),
		DecayRate: c.decay.Rate(),
		CacheSize: c.cache.Size(),
	}
	if g := c.graph.Load(); g != nil {
		s.GraphNodes = g.Len()
	}
	cur := c.index.Range(c.index.Floor(), c.index.Frontier())
	for e, ok := cur.Next(); ok; e, ok = cur.Next() {
		if c.decay.Degenerate(e) {
			s.Degenerate++
		}
	}
	return s
}
