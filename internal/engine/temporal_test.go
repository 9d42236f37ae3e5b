package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndLookup(t *testing.T) {
	idx := NewTemporalIndex(0)

	// Keys 1, 2, 3 with payloads A, B, C.
	for i, ref := range []string{"A", "B", "C"} {
		e, err := idx.Append(ref, KeyFromFloat(float64(i+1)), uint64(i+1), 1)
		require.NoError(t, err)
		assert.Equal(t, KeyFromFloat(float64(i+1)), e.Key)
	}

	got, err := idx.Get(KeyFromFloat(2))
	require.NoError(t, err)
	assert.Equal(t, "B", got.PayloadRef)

	below, err := idx.NearestBelow(KeyFromFloat(1.5))
	require.NoError(t, err)
	assert.Equal(t, "A", below.PayloadRef)
}

func TestAppendMonotonicKeys(t *testing.T) {
	idx := NewTemporalIndex(0)

	var last Key = -1
	// Out-of-order minKeys still yield strictly increasing assigned keys.
	minKeys := []float64{5, 3, 3, 10, 1, 10}
	for _, mk := range minKeys {
		e, err := idx.Append("p", KeyFromFloat(mk), 1, 1)
		require.NoError(t, err)
		assert.Greater(t, e.Key, last, "assigned keys must be strictly increasing")
		last = e.Key
	}
	assert.Equal(t, last, idx.Frontier())
}

func TestAppendBelowFloor(t *testing.T) {
	idx := NewTemporalIndex(KeyFromFloat(10))

	_, err := idx.Append("p", KeyFromFloat(5), 1, 1)
	require.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, 0, idx.Len())
}

func TestAppendAtFrontierAssignsNextTick(t *testing.T) {
	idx := NewTemporalIndex(0)

	first, err := idx.Append("a", KeyFromFloat(1), 1, 1)
	require.NoError(t, err)

	second, err := idx.Append("b", KeyFromFloat(1), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Key+1, second.Key)
}

func TestLookupErrors(t *testing.T) {
	idx := NewTemporalIndex(KeyFromFloat(1))

	_, err := idx.Get(KeyFromFloat(0.5))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = idx.NearestBelow(KeyFromFloat(0.5))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, err = idx.Get(KeyFromFloat(2))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = idx.NearestBelow(KeyFromFloat(2))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRangeCursor(t *testing.T) {
	idx := NewTemporalIndex(0)
	for i := 1; i <= 5; i++ {
		_, err := idx.Append("p", KeyFromFloat(float64(i)), uint64(i), 1)
		require.NoError(t, err)
	}

	cur := idx.Range(KeyFromFloat(2), KeyFromFloat(4))
	require.Equal(t, 3, cur.Len())

	var keys []float64
	for e, ok := cur.Next(); ok; e, ok = cur.Next() {
		keys = append(keys, e.Key.Float())
	}
	assert.Equal(t, []float64{2, 3, 4}, keys)

	// Restartable: Reset replays the same captured sequence, even across
	// concurrent appends.
	cur.Reset()
	_, err := idx.Append("late", KeyFromFloat(3.5), 6, 1)
	require.NoError(t, err)

	n := 0
	for _, ok := cur.Next(); ok; _, ok = cur.Next() {
		n++
	}
	assert.Equal(t, 3, n)
}

func TestConcurrentReadersSeeAtomicState(t *testing.T) {
	idx := NewTemporalIndex(0)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// A reader either finds an entry fully committed or not at
				// all; a frontier key must always be resolvable.
				if f := idx.Frontier(); f > idx.Floor() {
					if _, err := idx.Get(f); err != nil {
						t.Errorf("frontier %s not resolvable: %v", f, err)
						return
					}
				}
			}
		}()
	}

	for i := 1; i <= 200; i++ {
		_, err := idx.Append("p", KeyFromFloat(float64(i)), uint64(i), 1)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}

func TestParseKeyRoundTrip(t *testing.T) {
	k, err := ParseKey("1.5")
	require.NoError(t, err)
	assert.Equal(t, KeyFromFloat(1.5), k)
	assert.Equal(t, "1.5", k.String())

	_, err = ParseKey("bogus")
	assert.Error(t, err)
}
