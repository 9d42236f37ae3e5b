package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidKind(t *testing.T) {
	assert.True(t, ValidKind(KindString))
	assert.True(t, ValidKind(KindBrane))
	assert.True(t, ValidKind(KindField))
	assert.False(t, ValidKind("tensor"))
	assert.False(t, ValidKind(""))
}

func TestSampleAtString(t *testing.T) {
	p := Primitive{Kind: KindString, Data: []byte{0, 100}}

	v, err := p.SampleAt(0)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-9)

	v, err = p.SampleAt(0.5)
	require.NoError(t, err)
	assert.InDelta(t, 50, v, 1e-9, "linear interpolation at the midpoint")
}

func TestSampleAtBrane(t *testing.T) {
	// 2x2 grid, row-major.
	p := Primitive{Kind: KindBrane, Data: []byte{1, 2, 3, 4}}

	v, err := p.SampleAt(0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = p.SampleAt(0.75)
	require.NoError(t, err)
	assert.Equal(t, 4.0, v)
}

func TestSampleAtClampsPosition(t *testing.T) {
	p := Primitive{Kind: KindBrane, Data: []byte{1, 2, 3, 4}}

	lo, err := p.SampleAt(-5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, lo)

	hi, err := p.SampleAt(2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, hi)
}

func TestSampleAtUnknownKind(t *testing.T) {
	p := Primitive{Kind: "tensor", Data: []byte{1}}
	_, err := p.SampleAt(0.5)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestSampleDeterministic(t *testing.T) {
	p := Primitive{Kind: KindField, Data: []byte{5, 9, 2}}

	a, err := p.Sample(16)
	require.NoError(t, err)
	b, err := p.Sample(16)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestSampleCountFloor(t *testing.T) {
	assert.Equal(t, 1, SampleCount(0.2), "at least one sample is always taken")
	assert.Equal(t, 8, SampleCount(8))
	assert.Equal(t, 9, SampleCount(8.1))
}

func TestEmbedIn(t *testing.T) {
	p := Primitive{Kind: KindString, Data: []byte{10, 20}}

	out, err := p.EmbedIn(8, 4)
	require.NoError(t, err)
	require.Len(t, out, 8)
	assert.Equal(t, 10.0, out[0])
	assert.Equal(t, 0.0, out[7], "padding beyond the sampled grid is zero")
}
