package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
)

// keyScale is the fixed-point denominator for Key: one key unit is one
// million ticks. Fixed-point keeps ordering and equality exact; float keys
// would make the frontier comparison fuzzy.
const keyScale = 1_000_000

// Key is a monotonically increasing fixed-point timestamp with six decimal
// places. Keys order entries; the floor is the minimum legal key.
type Key int64

// KeyFromFloat converts a float timestamp to a Key, rounding to the nearest
// tick.
func KeyFromFloat(f float64) Key {
	return Key(math.Round(f * keyScale))
}

// Float returns the key as a float timestamp.
func (k Key) Float() float64 {
	return float64(k) / keyScale
}

func (k Key) String() string {
	return strconv.FormatFloat(k.Float(), 'f', -1, 64)
}

// MarshalJSON writes the key as a plain decimal number, not the fixed-point
// integer.
func (k Key) MarshalJSON() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalJSON accepts a decimal number.
func (k *Key) UnmarshalJSON(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey parses a decimal key string such as "1.5".
func ParseKey(s string) (Key, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse key %q: %w", s, err)
	}
	return KeyFromFloat(f), nil
}

// Entry is an immutable record in the temporal index. Created only by
// append, never mutated or removed.
type Entry struct {
	Key            Key
	PayloadRef     string
	CreatedAtClock uint64
	Size           uint64
}

// indexSnapshot is the immutable state published to readers. Readers only
// ever dereference one snapshot, so they observe either the pre-append or
// the fully post-append index, never a partial state.
type indexSnapshot struct {
	entries []Entry
}

// TemporalIndex is an ordered, append-only index of entries. Reads are
// lock-free against an atomically published snapshot; the append path is
// serialized by the caller (single-writer discipline, enforced by Core).
type TemporalIndex struct {
	floor Key

	mu   sync.Mutex // serializes Append against itself
	snap atomic.Pointer[indexSnapshot]
}

// NewTemporalIndex creates an empty index with the given floor key.
func NewTemporalIndex(floor Key) *TemporalIndex {
	idx := &TemporalIndex{floor: floor}
	idx.snap.Store(&indexSnapshot{})
	return idx
}

// Floor returns the minimum legal key.
func (idx *TemporalIndex) Floor() Key {
	return idx.floor
}

// Len returns the number of entries visible to readers.
func (idx *TemporalIndex) Len() int {
	return len(idx.snap.Load().entries)
}

// Frontier returns the current maximum key, or the floor when empty.
func (idx *TemporalIndex) Frontier() Key {
	s := idx.snap.Load()
	if len(s.entries) == 0 {
		return idx.floor
	}
	return s.entries[len(s.entries)-1].Key
}

// Append assigns a key at or above max(minKey, frontier) and commits the
// entry. A minKey below the floor is rejected with ErrOutOfOrder; a minKey
// at or below the frontier is legal and assigns one tick past the frontier,
// so assigned keys are strictly increasing. Once Append returns the entry is
// visible to all subsequent lookups.
func (idx *TemporalIndex) Append(payloadRef string, minKey Key, clock uint64, size uint64) (Entry, error) {
	if minKey < idx.floor {
		return Entry{}, fmt.Errorf("append minKey %s below floor %s: %w", minKey, idx.floor, ErrOutOfOrder)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	old := idx.snap.Load()
	assigned := minKey
	if n := len(old.entries); n > 0 {
		if frontier := old.entries[n-1].Key; assigned <= frontier {
			assigned = frontier + 1
		}
	}

	e := Entry{
		Key:            assigned,
		PayloadRef:     payloadRef,
		CreatedAtClock: clock,
		Size:           size,
	}

	// Copy-on-write publish. The snapshot swap is the commit point.
	entries := make([]Entry, len(old.entries)+1)
	copy(entries, old.entries)
	entries[len(old.entries)] = e
	idx.snap.Store(&indexSnapshot{entries: entries})
	return e, nil
}

// Get returns the entry at exactly the given key.
func (idx *TemporalIndex) Get(key Key) (Entry, error) {
	if key < idx.floor {
		return Entry{}, fmt.Errorf("get %s: %w", key, ErrOutOfBounds)
	}
	entries := idx.snap.Load().entries
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Key >= key })
	if i < len(entries) && entries[i].Key == key {
		return entries[i], nil
	}
	return Entry{}, fmt.Errorf("get %s: %w", key, ErrNotFound)
}

// NearestBelow returns the entry with the largest key at or below the given
// key.
func (idx *TemporalIndex) NearestBelow(key Key) (Entry, error) {
	if key < idx.floor {
		return Entry{}, fmt.Errorf("nearest below %s: %w", key, ErrOutOfBounds)
	}
	entries := idx.snap.Load().entries
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Key > key })
	if i == 0 {
		return Entry{}, fmt.Errorf("nearest below %s: %w", key, ErrNotFound)
	}
	return entries[i-1], nil
}

// Has reports whether an entry exists at exactly the given key.
func (idx *TemporalIndex) Has(key Key) bool {
	_, err := idx.Get(key)
	return err == nil
}

// RangeCursor iterates entries in [lo, hi] in key order. It captures the
// index state at creation, so concurrent appends do not disturb an
// in-flight iteration, and Reset restarts the same finite sequence.
type RangeCursor struct {
	entries []Entry
	pos     int
}

// Range returns a cursor over entries with lo <= key <= hi.
func (idx *TemporalIndex) Range(lo, hi Key) *RangeCursor {
	entries := idx.snap.Load().entries
	start := sort.Search(len(entries), func(i int) bool { return entries[i].Key >= lo })
	end := sort.Search(len(entries), func(i int) bool { return entries[i].Key > hi })
	if start > end {
		start = end
	}
	return &RangeCursor{entries: entries[start:end]}
}

// Next returns the next entry and advances, or false when exhausted.
func (c *RangeCursor) Next() (Entry, bool) {
	if c.pos >= len(c.entries) {
		return Entry{}, false
	}
	e := c.entries[c.pos]
	c.pos++
	return e, true
}

// Reset restarts the cursor at the beginning of its captured range.
func (c *RangeCursor) Reset() {
	c.pos = 0
}

// Len returns the number of entries in the captured range.
func (c *RangeCursor) Len() int {
	return len(c.entries)
}
