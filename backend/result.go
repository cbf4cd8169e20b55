package backend

import (
	"time"

	"github.com/cardinal-go/cardinal/expr"
)

// Status is the canonical solve outcome, independent of backend.
type Status uint8

const (
	// StatusUnknown means the search was inconclusive, typically
	// because the time limit expired. A timeout is not an error.
	StatusUnknown Status = iota
	// StatusSat means a satisfying assignment was found.
	StatusSat
	// StatusUnsat means the constraints admit no assignment.
	StatusUnsat
	// StatusOptimal means a satisfying assignment was found and proven
	// optimal for the objective.
	StatusOptimal
)

func (s Status) String() string {
	switch s {
	case StatusSat:
		return "sat"
	case StatusUnsat:
		return "unsat"
	case StatusOptimal:
		return "optimal"
	default:
		return "unknown"
	}
}

// Result is an immutable snapshot of one solve call.
type Result struct {
	Status Status
	// Values maps decision variables to assigned values. Only
	// meaningful on sat or optimal outcomes.
	Values map[*expr.Var]int64
	// Objective is the achieved objective value, when one was set and
	// the outcome carries an assignment.
	Objective *int64
	// Runtime is the wall-clock duration of the search.
	Runtime time.Duration
}

// HasSolution reports whether the result carries an assignment.
func (r *Result) HasSolution() bool {
	return r.Status == StatusSat || r.Status == StatusOptimal
}

// Value returns the assigned value of v, if the result carries one.
func (r *Result) Value(v *expr.Var) (int64, bool) {
	if r == nil || !r.HasSolution() {
		return 0, false
	}
	val, ok := r.Values[v]
	return val, ok
}
