package cardinal

import (
	"context"
	"fmt"

	"github.com/cardinal-go/cardinal/backend"
	"github.com/cardinal-go/cardinal/expr"
)

// Model is an ordered collection of constraints plus at most one
// objective. Insertion order is preserved and exposed: incremental
// sessions diff against previously-seen prefixes to decide what is
// new, and unsat-core reporting stays deterministic.
//
// A Model owns no solver state. Solving lazily compiles it for the
// chosen backend; the same Model can be solved against any number of
// backends, sequentially or concurrently.
type Model struct {
	cons []*expr.Expr
	obj  *expr.Expr

	status backend.Status
	objVal *int64
}

// NewModel builds a model over the given constraints.
func NewModel(cons ...*expr.Expr) (*Model, error) {
	m := &Model{}
	if err := m.Add(cons...); err != nil {
		return nil, err
	}
	return m, nil
}

// Add appends constraints in order. A constraint must be rooted at a
// comparison, a connective or a global constraint tag; anything else
// is a validation error, as is an expression carrying a construction
// error.
func (m *Model) Add(cons ...*expr.Expr) error {
	for _, c := range cons {
		if c == nil {
			return fmt.Errorf("%w: nil constraint", expr.ErrValidation)
		}
		if err := c.Err(); err != nil {
			return err
		}
		op := c.Op()
		if !op.IsComparison() && !op.IsConnective() && !op.IsGlobal() {
			return fmt.Errorf("%w: constraint must be rooted at a comparison, connective or global constraint, got %s", expr.ErrValidation, op)
		}
		m.cons = append(m.cons, c)
	}
	return nil
}

// Minimize sets or replaces the objective.
func (m *Model) Minimize(e *expr.Expr) error { return m.setObjective(expr.Minimize(e)) }

// Maximize sets or replaces the objective.
func (m *Model) Maximize(e *expr.Expr) error { return m.setObjective(expr.Maximize(e)) }

func (m *Model) setObjective(wrapped *expr.Expr) error {
	if err := wrapped.Err(); err != nil {
		return err
	}
	m.obj = wrapped
	return nil
}

// Constraints returns the constraints in insertion order. The returned
// slice is a copy; the expressions it holds are shared and immutable.
func (m *Model) Constraints() []*expr.Expr {
	return append([]*expr.Expr{}, m.cons...)
}

// Objective returns the objective wrapper, or nil.
func (m *Model) Objective() *expr.Expr { return m.obj }

// Variables returns the distinct decision variables of the model in
// first-seen order.
func (m *Model) Variables() []*expr.Var {
	all := m.cons
	if m.obj != nil {
		all = append(append([]*expr.Expr{}, m.cons...), m.obj)
	}
	return expr.Variables(all...)
}

// Reset empties the model: constraints, objective and solve state.
// Sessions already opened on the model must be discarded; they hold
// posted prefixes the model no longer has.
func (m *Model) Reset() {
	m.cons = nil
	m.obj = nil
	m.status = backend.StatusUnknown
	m.objVal = nil
}

// Copy returns an independent model over the same (immutable)
// expressions. Solve state is not carried over.
func (m *Model) Copy() *Model {
	return &Model{
		cons: append([]*expr.Expr{}, m.cons...),
		obj:  m.obj,
	}
}

// Status reports the outcome of the most recent solve through this
// model.
func (m *Model) Status() backend.Status { return m.status }

// ObjectiveValue returns the objective value achieved by the most
// recent solve, if any.
func (m *Model) ObjectiveValue() (int64, bool) {
	if m.objVal == nil {
		return 0, false
	}
	return *m.objVal, true
}

// Session opens an incremental session on the named builtin backend.
// The session sees constraints added to the model after it was opened.
func (m *Model) Session(backendName string) (*backend.Session, error) {
	ad, err := Builtin().New(backendName)
	if err != nil {
		return nil, err
	}
	return backend.NewSession(m, ad), nil
}

// Solve compiles the model for the named builtin backend and runs one
// search. On sat or optimal outcomes the satisfying values are written
// onto the model's variables.
func (m *Model) Solve(ctx context.Context, backendName string, opts ...backend.SolveOption) (*backend.Result, error) {
	sess, err := m.Session(backendName)
	if err != nil {
		return nil, err
	}
	res, err := sess.Solve(ctx, opts...)
	if err != nil {
		return nil, err
	}
	m.note(res)
	return res, nil
}

// SolveAll enumerates satisfying assignments on the named builtin
// backend, calling fn for each. limit bounds the number of solutions
// (0 means all). It returns the number found.
func (m *Model) SolveAll(ctx context.Context, backendName string, limit int, fn func(*backend.Result) bool, opts ...backend.SolveOption) (int, error) {
	sess, err := m.Session(backendName)
	if err != nil {
		return 0, err
	}
	count, err := sess.SolveAll(ctx, limit, fn, opts...)
	if res := sess.Result(); res != nil {
		m.note(res)
	}
	return count, err
}

// SolvePortfolio races the named builtin backends and returns the
// first conclusive result with the winning backend's name.
func (m *Model) SolvePortfolio(ctx context.Context, backendNames []string, opts ...backend.SolveOption) (*backend.Result, string, error) {
	adapters := make([]backend.Adapter, len(backendNames))
	for i, name := range backendNames {
		ad, err := Builtin().New(name)
		if err != nil {
			return nil, "", err
		}
		adapters[i] = ad
	}
	res, winner, err := backend.Portfolio(ctx, m, adapters, opts...)
	if err != nil {
		return nil, "", err
	}
	m.note(res)
	return res, winner, nil
}

func (m *Model) note(res *backend.Result) {
	m.status = res.Status
	m.objVal = res.Objective
}

// sessions compile from the model directly
var _ backend.Source = (*Model)(nil)
