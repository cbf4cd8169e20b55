package constraint

import "github.com/cardinal-go/cardinal/expr"

// Capabilities is a backend's declared set of natively supported
// constraint shapes and solving features. The transformation pipeline
// uses it to pick the target dialect, and the session layer uses it to
// reject assumption or core requests before any backend call.
type Capabilities struct {
	// SupportedGlobals lists global constraint tags the backend
	// accepts natively; everything else is decomposed.
	SupportedGlobals map[expr.Op]bool

	// NativeLinear marks backends accepting linear constraints over
	// integer variables with integer coefficients.
	NativeLinear bool

	// NativeClauses marks clause-based backends.
	NativeClauses bool

	SupportsAssumptions    bool
	SupportsCoreExtraction bool

	// SupportsIncrementalPost marks backends that accept constraint
	// deltas between solves. Adapters without it re-submit the full
	// accumulated set internally on every solve.
	SupportsIncrementalPost bool

	// MaxIntDomain, when non-nil, bounds the magnitude of integer
	// variable domains the backend accepts. Clause-only backends set
	// it to 1 (Boolean variables only).
	MaxIntDomain *int64
}

// SupportsGlobal reports whether the tag is natively supported.
func (c Capabilities) SupportsGlobal(op expr.Op) bool {
	return c.SupportedGlobals[op]
}

// FitsDomain reports whether the variable's domain is within the
// backend's declared limit.
func (c Capabilities) FitsDomain(v *expr.Var) bool {
	if c.MaxIntDomain == nil {
		return true
	}
	lo, hi := v.Bounds()
	m := *c.MaxIntDomain
	return lo >= -m && hi <= m
}

// Bound is a convenience for building MaxIntDomain values.
func Bound(m int64) *int64 { return &m }
