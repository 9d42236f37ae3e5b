package engine

import (
	"context"
	"fmt"
	"math"
)

// PayloadKind identifies one of the closed set of primitive payload shapes.
type PayloadKind string

const (
	// KindString is a one-dimensional byte series sampled by linear
	// interpolation.
	KindString PayloadKind = "string"
	// KindBrane is a square two-dimensional grid sampled row-major.
	KindBrane PayloadKind = "brane"
	// KindField is a continuous superposition reconstructed from its byte
	// coefficients.
	KindField PayloadKind = "field"
)

// ValidKind reports whether k is a member of the closed variant set.
func ValidKind(k PayloadKind) bool {
	switch k {
	case KindString, KindBrane, KindField:
		return true
	}
	return false
}

// Primitive is an immutable payload held by the external primitive store.
// The core never interprets Data beyond the sampling capabilities below;
// Observable is an opaque derived-lookup name assigned at ingest.
type Primitive struct {
	ID         string
	Kind       PayloadKind
	Observable string
	Data       []byte
}

// Size returns the payload size in bytes, as charged to the growth ledger.
func (p Primitive) Size() uint64 {
	return uint64(len(p.Data))
}

// SampleAt evaluates the payload at normalized position x in [0,1).
// Deterministic: identical payloads and positions always yield identical
// samples. The switch is exhaustive over the closed variant set.
func (p Primitive) SampleAt(x float64) (float64, error) {
	if len(p.Data) == 0 {
		return 0, nil
	}
	if x < 0 {
		x = 0
	}
	if x >= 1 {
		x = math.Nextafter(1, 0)
	}

	switch p.Kind {
	case KindString:
		// Linear interpolation over the byte series.
		if len(p.Data) == 1 {
			return float64(p.Data[0]), nil
		}
		pos := x * float64(len(p.Data)-1)
		i := int(pos)
		frac := pos - float64(i)
		a := float64(p.Data[i])
		b := float64(p.Data[i+1])
		return a + (b-a)*frac, nil

	case KindBrane:
		// Row-major walk over the largest square grid the data fills.
		side := int(math.Sqrt(float64(len(p.Data))))
		if side < 1 {
			side = 1
		}
		cells := side * side
		i := int(x * float64(cells))
		if i >= cells {
			i = cells - 1
		}
		return float64(p.Data[i]), nil

	case KindField:
		// Treat bytes as cosine coefficients; low frequencies dominate.
		var v float64
		for n, c := range p.Data {
			v += float64(c) / float64(n+1) * math.Cos(2*math.Pi*float64(n+1)*x)
		}
		return v, nil
	}

	return 0, fmt.Errorf("sample %s: %w", p.Kind, ErrUnknownKind)
}

// Sample evaluates the payload at a uniform grid whose density follows the
// given resolution. The sample count depends only on resolution, so two
// materializations at the same resolution see the same grid.
func (p Primitive) Sample(resolution float64) ([]float64, error) {
	n := SampleCount(resolution)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := p.SampleAt(float64(i) / float64(n))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// EmbedIn lifts a sampled payload into a dims-dimensional context, padding
// with zeros or truncating. Used when projections of mixed-size payloads
// must share one basis.
func (p Primitive) EmbedIn(dims int, resolution float64) ([]float64, error) {
	samples, err := p.Sample(resolution)
	if err != nil {
		return nil, err
	}
	out := make([]float64, dims)
	copy(out, samples)
	return out, nil
}

// SampleCount maps a resolution to a sample grid size. At least one sample
// is always taken.
func SampleCount(resolution float64) int {
	n := int(math.Ceil(resolution))
	if n < 1 {
		n = 1
	}
	return n
}

// PrimitiveStore is the boundary to the external immutable primitive store.
// The core only ever reads from it.
type PrimitiveStore interface {
	GetPrimitive(ctx context.Context, id string) (Primitive, error)
}
