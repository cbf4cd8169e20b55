// Package backend defines the solver adapter contract and the generic
// session layered on top of it: capability-gated compilation, delta
// posting for incremental engines, scoped assumptions, unsat cores,
// solution enumeration, and a concurrent portfolio runner.
package backend

import (
	"context"
	"time"

	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// Adapter is implemented once per solving engine. An adapter instance
// owns an exclusive handle to one engine invocation context; concurrent
// Solve calls on the same instance are forbidden. Callers wanting
// concurrent search instantiate independent adapters.
type Adapter interface {
	// Name identifies the backend in errors and logs.
	Name() string

	// Capabilities returns the descriptor the pipeline compiles
	// against. Queried once at session construction.
	Capabilities() constraint.Capabilities

	// Declare registers decision variables. Idempotent per instance:
	// re-declaring a known variable is a no-op.
	Declare(vars []*expr.Var) error

	// Post adds normal-form constraints. For incremental engines,
	// successive calls add only the delta; non-incremental engines
	// accumulate and re-submit the full set on every Solve.
	Post(cs []constraint.Constraint) error

	// SetObjective installs or replaces the objective. Engines without
	// optimization support return ErrObjectiveUnsupported.
	SetObjective(o *constraint.Objective) error

	// Solve runs the search. Assumptions in opts are scoped to this
	// call. A time limit maps to the engine's native timeout and
	// expires as StatusUnknown, not an error. An empty instance solves
	// trivially sat.
	Solve(ctx context.Context, opts SolveOptions) (*Result, error)

	// Core returns the assumption literals responsible for the last
	// UNSAT outcome. Valid only immediately after an UNSAT Solve with
	// assumptions active. The subset is minimal-effort, not
	// minimal-cardinality.
	Core() ([]constraint.Lit, error)
}

// SolveOptions carries per-call search parameters.
type SolveOptions struct {
	// TimeLimit is advisory; zero means no limit.
	TimeLimit time.Duration
	// Assumptions are literals forced true for this call only.
	Assumptions []constraint.Lit
}

// SolveOption configures one solve call.
type SolveOption func(*SolveOptions)

// WithTimeLimit bounds the search duration. On expiry the result
// status is unknown.
func WithTimeLimit(d time.Duration) SolveOption {
	return func(o *SolveOptions) { o.TimeLimit = d }
}

// WithAssumptions forces literals true for a single solve call without
// adding them to the model.
func WithAssumptions(lits ...constraint.Lit) SolveOption {
	return func(o *SolveOptions) { o.Assumptions = append(o.Assumptions, lits...) }
}

// Assume is shorthand for assuming Boolean variable expressions, or
// negations of them.
func Assume(es ...*expr.Expr) (SolveOption, error) {
	lits := make([]constraint.Lit, len(es))
	for i, e := range es {
		l, err := constraint.LitOf(e)
		if err != nil {
			return nil, err
		}
		lits[i] = l
	}
	return WithAssumptions(lits...), nil
}
