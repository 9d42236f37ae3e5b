package engine

import "errors"

var (
	// ErrOutOfBounds is returned when a requested key lies below the
	// configured floor. Fatal to the request, not to the system.
	ErrOutOfBounds = errors.New("key below floor")

	// ErrNotFound is returned when no entry exists at or near the
	// requested key, or an observable resolves to nothing.
	ErrNotFound = errors.New("entry not found")

	// ErrOutOfOrder is returned when an append names a minimum key below
	// the floor. Appends never move the frontier backwards.
	ErrOutOfOrder = errors.New("append below floor")

	// ErrCausalityViolation is returned when a query asks for a key beyond
	// its propagation-limited visible horizon.
	ErrCausalityViolation = errors.New("causality violation: key beyond visible horizon")

	// ErrTrapped is returned by the query surface when routing entered an
	// absorbing sink. A defined terminal result, not a crash.
	ErrTrapped = errors.New("route trapped in absorbing sink")

	// ErrNoRoute is returned by the query surface when no path to the
	// routing goal exists.
	ErrNoRoute = errors.New("no route to goal")

	// ErrRetrievalUnavailable is returned when a semantic lookup resolves
	// only to degenerate entries. Point lookups are unaffected.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: index path degenerate")

	// ErrCapacitySaturated is returned once the growth ledger has exhausted
	// its representable range. Terminal: appends cease, reads keep working.
	ErrCapacitySaturated = errors.New("capacity saturated")

	// ErrPrecisionExceeded names the clamp-and-warn precision path. It is
	// never returned as an error; responses carry a precision warning flag
	// instead. Defined so callers have one identifier for the condition.
	ErrPrecisionExceeded = errors.New("requested resolution finer than floor granularity")

	// ErrUnknownKind is returned when a payload carries a kind outside the
	// closed variant set.
	ErrUnknownKind = errors.New("unknown payload kind")
)
