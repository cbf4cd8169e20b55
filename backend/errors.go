package backend

import "errors"

var (
	// ErrAssumptionUnsupported is returned before any backend call when
	// assumptions are passed to an adapter whose descriptor does not
	// declare assumption support.
	ErrAssumptionUnsupported = errors.New("backend does not support assumptions")

	// ErrObjectiveUnsupported is returned by adapters without
	// optimization support, and when enumeration is requested on an
	// optimizing session.
	ErrObjectiveUnsupported = errors.New("backend does not support objectives")

	// ErrCoreUnsupported is returned when core extraction is requested
	// from an adapter whose descriptor does not declare it.
	ErrCoreUnsupported = errors.New("backend does not support core extraction")

	// ErrNoCore is returned when core extraction is requested but the
	// last solve did not produce one: the result was not UNSAT, or no
	// assumptions were active.
	ErrNoCore = errors.New("no unsatisfiable core available")

	// ErrBackendFailure wraps adapter-level faults. Failed searches are
	// not retried; repeated search is not guaranteed idempotent.
	ErrBackendFailure = errors.New("backend failure")
)
