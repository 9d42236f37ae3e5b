package engine

import (
	"context"
	"fmt"
)

// Basis selects the lookup mode of a query.
type Basis string

const (
	// BasisAddress is a point lookup: Observable holds the requested key.
	BasisAddress Basis = "address"
	// BasisObservable is a retrieval lookup: Observable holds a derived
	// name resolved through the semantic index.
	BasisObservable Basis = "observable"
)

// QueryRequest is the external query surface: an observer at Position with
// time cursor Time asks about the dataset anchored at Target.
type QueryRequest struct {
	Position   Position `json:"position"`
	Target     Position `json:"target"`
	Time       float64  `json:"time"`
	Observable string   `json:"observable"`
	Basis      Basis    `json:"basis"`

	// RouteStart/RouteGoal request spatial traversal before
	// materialization. Both or neither must be set.
	RouteStart *int `json:"route_start,omitempty"`
	RouteGoal  *int `json:"route_goal,omitempty"`
}

// QueryResponse carries the materialized value and its provenance.
type QueryResponse struct {
	Keys             []Key          `json:"keys"`
	Value            []byte         `json:"value"`
	Checksum         uint64         `json:"checksum"`
	Resolution       float64        `json:"resolution"`
	Coherence        float64        `json:"coherence"`
	State            CoherenceState `json:"state"`
	Raw              bool           `json:"raw,omitempty"`
	PrecisionWarning bool           `json:"precision_warning,omitempty"`
	Route            *Route         `json:"route,omitempty"`
}

// Query answers a gated, optionally routed, materialized read. Pure:
// identical requests against identical store state return identical
// responses. The causal gate runs first so illegal requests fail before any
// routing or materialization work is spent.
func (c *Core) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	tCursor := KeyFromFloat(req.Time)

	var (
		keys []Key
		mode LookupMode
	)

	switch req.Basis {
	case BasisAddress, "":
		k, err := ParseKey(req.Observable)
		if err != nil {
			return nil, err
		}
		entry, err := c.gate.Observe(c.index, req.Position, req.Target, tCursor, k)
		if err != nil {
			return nil, err
		}
		keys = []Key{entry.Key}
		mode = LookupPoint

	case BasisObservable:
		horizon := c.gate.VisibleHorizon(req.Position, req.Target, tCursor)
		if horizon < c.index.Floor() {
			return nil, fmt.Errorf("horizon %s below floor: %w", horizon, ErrOutOfBounds)
		}
		candidates := c.resolveObservable(req.Observable)
		visible := candidates[:0:0]
		for _, k := range candidates {
			if k <= horizon {
				visible = append(visible, k)
			}
		}
		if len(visible) == 0 {
			return nil, fmt.Errorf("observable %q: %w", req.Observable, ErrNotFound)
		}
		keys = visible
		mode = LookupRetrieval

	default:
		return nil, fmt.Errorf("unknown basis %q", req.Basis)
	}

	var route *Route
	if req.RouteStart != nil || req.RouteGoal != nil {
		if req.RouteStart == nil || req.RouteGoal == nil {
			return nil, fmt.Errorf("route_start and route_goal must be set together")
		}
		r, err := c.Route(*req.RouteStart, *req.RouteGoal)
		if err != nil {
			return nil, err
		}
		switch r.Kind {
		case RouteTrapped:
			return nil, fmt.Errorf("route %d->%d: %w", *req.RouteStart, *req.RouteGoal, ErrTrapped)
		case RouteNoPath:
			return nil, fmt.Errorf("route %d->%d: %w", *req.RouteStart, *req.RouteGoal, ErrNoRoute)
		}
		route = &r
	}

	dist := Distance(req.Position, req.Target)
	ce, err := c.cache.Materialize(ctx, keys, dist, mode)
	if err != nil {
		return nil, err
	}

	return &QueryResponse{
		Keys:             ce.SourceKeys,
		Value:            ce.Projection,
		Checksum:         ce.Checksum,
		Resolution:       ce.Resolution,
		Coherence:        ce.Coherence,
		State:            ce.State,
		Raw:              ce.Raw,
		PrecisionWarning: ce.PrecisionWarning,
		Route:            route,
	}, nil
}
