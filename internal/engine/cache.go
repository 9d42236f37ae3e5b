package engine

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// LookupMode distinguishes the two retrieval paths of the decay model.
type LookupMode string

const (
	// LookupPoint is a direct primary-key request. Never fails from decay.
	LookupPoint LookupMode = "point"
	// LookupRetrieval is a derived/semantic request. Collapses once the
	// relevant index path is degenerate.
	LookupRetrieval LookupMode = "retrieval"
)

// CacheEntry is a materialized projection of one or more entries at a given
// resolution. Entries are created on first materialization and never
// deleted; a degenerate entry stays addressable by raw key but not through
// derived lookups.
type CacheEntry struct {
	SourceKeys []Key
	Resolution float64
	// Coherence is the minimum coherence across the source entries at
	// materialization time.
	Coherence float64
	State     CoherenceState
	// Projection is the encoded sample grid, or the unaltered raw payload
	// when all sources are degenerate and the request was a point lookup.
	Projection []byte
	// Checksum is the xxhash of the projection. Two materializations from
	// identical (keys, resolution) inputs carry identical checksums
	// regardless of which observer asked; that is the multi-observer
	// consistency mechanism, and it needs no synchronization because the
	// projection is a pure function of its inputs.
	Checksum uint64
	// PrecisionWarning is set when the requested resolution was finer than
	// the floor granularity and had to be clamped.
	PrecisionWarning bool
	// Raw marks a degenerate point projection carrying unaltered payload.
	Raw bool
}

// SpatialCache materializes entries into observer-resolution-dependent
// projections. Coherent by construction: the projection is a pure function
// of (keys, resolution), so the memo table only ever stores values that any
// racing writer would have computed identically.
type SpatialCache struct {
	base     float64
	refScale float64
	// maxResolution is the floor granularity expressed as a resolution cap.
	maxResolution float64

	index      *TemporalIndex
	decay      *DecayEngine
	primitives PrimitiveStore

	memo sync.Map // projectionKey -> *CacheEntry
}

// NewSpatialCache creates a cache over the given index, decay engine and
// primitive store.
func NewSpatialCache(base, refScale, maxResolution float64, idx *TemporalIndex, decay *DecayEngine, primitives PrimitiveStore) *SpatialCache {
	if base <= 0 {
		base = 1
	}
	if refScale <= 0 {
		refScale = 1
	}
	if maxResolution <= 0 {
		maxResolution = base
	}
	return &SpatialCache{
		base:          base,
		refScale:      refScale,
		maxResolution: maxResolution,
		index:         idx,
		decay:         decay,
		primitives:    primitives,
	}
}

// Resolution maps an observer distance to a projection resolution:
// base / (1 + d/referenceScale), strictly decreasing in distance.
func (c *SpatialCache) Resolution(d float64) float64 {
	if d < 0 {
		d = 0
	}
	return c.base / (1 + d/c.refScale)
}

// clampResolution enforces the floor granularity. Requests finer than the
// cap are clamped and flagged, never rejected.
func (c *SpatialCache) clampResolution(res float64) (float64, bool) {
	if res > c.maxResolution {
		return c.maxResolution, true
	}
	return res, false
}

// Materialize resolves the given source keys and projects their payloads at
// the resolution implied by the observer distance. In retrieval mode a
// fully degenerate source set fails with ErrRetrievalUnavailable; in point
// mode it degrades to the unaltered raw payloads instead. Materialize is a
// pure read against the index snapshot and the immutable primitive store.
func (c *SpatialCache) Materialize(ctx context.Context, keys []Key, observerDistance float64, mode LookupMode) (*CacheEntry, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("materialize: %w", ErrNotFound)
	}

	sorted := append([]Key(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	entries := make([]Entry, 0, len(sorted))
	degenerate := 0
	for _, k := range sorted {
		e, err := c.index.Get(k)
		if err != nil {
			return nil, fmt.Errorf("materialize key %s: %w", k, err)
		}
		entries = append(entries, e)
		if c.decay.Degenerate(e) {
			degenerate++
		}
	}

	if degenerate == len(entries) {
		if mode == LookupRetrieval {
			return nil, fmt.Errorf("materialize %d degenerate sources: %w", degenerate, ErrRetrievalUnavailable)
		}
		return c.materializeRaw(ctx, sorted, entries)
	}

	// A degenerate entry's derived path is gone: retrieval projects only
	// the surviving sources. Point requests keep every source.
	if mode == LookupRetrieval && degenerate > 0 {
		kept := entries[:0:0]
		for _, e := range entries {
			if !c.decay.Degenerate(e) {
				kept = append(kept, e)
			}
		}
		entries = kept
		sorted = sorted[:0:0]
		for _, e := range entries {
			sorted = append(sorted, e.Key)
		}
	}

	minCoherence := 1.0
	for _, e := range entries {
		if coh := c.decay.Coherence(e); coh < minCoherence {
			minCoherence = coh
		}
	}

	res, warned := c.clampResolution(c.Resolution(observerDistance))

	memoKey := projectionKey(sorted, res)
	if v, ok := c.memo.Load(memoKey); ok {
		cached := v.(*CacheEntry)
		out := *cached
		out.Coherence = minCoherence
		out.State = stateOf(minCoherence)
		out.PrecisionWarning = warned
		return &out, nil
	}

	projection, err := c.project(ctx, entries, res)
	if err != nil {
		return nil, err
	}

	ce := &CacheEntry{
		SourceKeys: sorted,
		Resolution: res,
		Coherence:  minCoherence,
		State:      stateOf(minCoherence),
		Projection: projection,
		Checksum:   xxhash.Sum64(projection),
	}
	// Racing observers compute bit-identical entries, so whichever store
	// wins is indistinguishable from the others.
	actual, _ := c.memo.LoadOrStore(memoKey, ce)
	stored := *actual.(*CacheEntry)
	stored.Coherence = minCoherence
	stored.State = stateOf(minCoherence)
	stored.PrecisionWarning = warned
	return &stored, nil
}

// materializeRaw serves a fully degenerate point lookup: the projection is
// the concatenated, unaltered payloads. Information is conserved; only the
// derived index path is gone.
func (c *SpatialCache) materializeRaw(ctx context.Context, keys []Key, entries []Entry) (*CacheEntry, error) {
	var raw []byte
	for _, e := range entries {
		p, err := c.primitives.GetPrimitive(ctx, e.PayloadRef)
		if err != nil {
			return nil, fmt.Errorf("get primitive %s: %w", e.PayloadRef, err)
		}
		raw = append(raw, p.Data...)
	}
	return &CacheEntry{
		SourceKeys: keys,
		Coherence:  0,
		State:      StateDegenerate,
		Projection: raw,
		Checksum:   xxhash.Sum64(raw),
		Raw:        true,
	}, nil
}

// project samples each source payload at the shared resolution and encodes
// the samples in key order.
func (c *SpatialCache) project(ctx context.Context, entries []Entry, res float64) ([]byte, error) {
	var samples []float64
	for _, e := range entries {
		p, err := c.primitives.GetPrimitive(ctx, e.PayloadRef)
		if err != nil {
			return nil, fmt.Errorf("get primitive %s: %w", e.PayloadRef, err)
		}
		s, err := p.Sample(res)
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", e.PayloadRef, err)
		}
		samples = append(samples, s...)
	}
	return encodeSamples(samples), nil
}

// Size returns the number of cache entries materialized so far.
func (c *SpatialCache) Size() int {
	n := 0
	c.memo.Range(func(_, _ any) bool { n++; return true })
	return n
}

func stateOf(coherence float64) CoherenceState {
	switch {
	case coherence >= 1:
		return StateCoherent
	case coherence > 0:
		return StateDegrading
	default:
		return StateDegenerate
	}
}

// projectionKey builds the memo key for a (keys, resolution) input pair.
func projectionKey(keys []Key, res float64) string {
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%d,", int64(k))
	}
	fmt.Fprintf(&b, "@%b", res)
	return b.String()
}

// encodeSamples packs float64 samples little-endian, 8 bytes per sample.
func encodeSamples(samples []float64) []byte {
	buf := make([]byte, len(samples)*8)
	for i, v := range samples {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeSamples unpacks a projection back into float64 samples.
func decodeSamples(buf []byte) []float64 {
	n := len(buf) / 8
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}
