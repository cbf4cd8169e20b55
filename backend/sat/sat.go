// Package sat adapts the gini SAT solver. It is a clause-only,
// Boolean-only backend with incremental posting, scoped assumptions
// and unsat cores.
package sat

import (
	"context"
	"fmt"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"

	"github.com/cardinal-go/cardinal/backend"
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// Adapter drives one gini instance. Not safe for concurrent use.
type Adapter struct {
	g     *gini.Gini
	lits  map[*expr.Var]z.Lit
	byVar map[z.Var]*expr.Var
	core  []constraint.Lit
}

func New() *Adapter {
	return &Adapter{
		g:     gini.New(),
		lits:  make(map[*expr.Var]z.Lit),
		byVar: make(map[z.Var]*expr.Var),
	}
}

func (a *Adapter) Name() string { return "sat" }

func (a *Adapter) Capabilities() constraint.Capabilities {
	return constraint.Capabilities{
		NativeClauses:           true,
		SupportsAssumptions:     true,
		SupportsCoreExtraction:  true,
		SupportsIncrementalPost: true,
		MaxIntDomain:            constraint.Bound(1),
	}
}

func (a *Adapter) Declare(vars []*expr.Var) error {
	for _, v := range vars {
		if _, err := a.lit(v); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) lit(v *expr.Var) (z.Lit, error) {
	if m, ok := a.lits[v]; ok {
		return m, nil
	}
	if !v.IsBool() {
		return z.LitNull, fmt.Errorf("%w: sat accepts Boolean variables only, got %q", backend.ErrBackendFailure, v.Name())
	}
	m := a.g.Lit()
	a.lits[v] = m
	a.byVar[m.Var()] = v
	return m, nil
}

func (a *Adapter) Post(cs []constraint.Constraint) error {
	a.core = nil
	for _, c := range cs {
		cl, ok := c.(constraint.Clause)
		if !ok {
			return fmt.Errorf("%w: sat cannot accept %s constraint %s", backend.ErrBackendFailure, c.Shape(), c)
		}
		for _, l := range cl.Lits {
			m, err := a.lit(l.Var)
			if err != nil {
				return err
			}
			if l.Neg {
				m = m.Not()
			}
			a.g.Add(m)
		}
		a.g.Add(z.LitNull)
	}
	return nil
}

func (a *Adapter) SetObjective(*constraint.Objective) error {
	return fmt.Errorf("%w: sat", backend.ErrObjectiveUnsupported)
}

func (a *Adapter) Solve(ctx context.Context, opts backend.SolveOptions) (*backend.Result, error) {
	a.core = nil
	start := time.Now()

	assumed := make([]z.Lit, len(opts.Assumptions))
	for i, l := range opts.Assumptions {
		m, err := a.lit(l.Var)
		if err != nil {
			return nil, err
		}
		if l.Neg {
			m = m.Not()
		}
		assumed[i] = m
	}
	a.g.Assume(assumed...)

	dur := opts.TimeLimit
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); dur == 0 || rem < dur {
			dur = rem
		}
	}
	var r int
	if dur > 0 {
		r = a.g.Try(dur)
	} else {
		r = a.g.Solve()
	}
	runtime := time.Since(start)

	switch r {
	case 1:
		vals := make(map[*expr.Var]int64, len(a.lits))
		for v, m := range a.lits {
			if a.g.Value(m) {
				vals[v] = 1
			} else {
				vals[v] = 0
			}
		}
		return &backend.Result{Status: backend.StatusSat, Values: vals, Runtime: runtime}, nil
	case -1:
		if len(assumed) > 0 {
			why := a.g.Why(nil)
			a.core = make([]constraint.Lit, 0, len(why))
			for _, m := range why {
				v, ok := a.byVar[m.Var()]
				if !ok {
					continue
				}
				a.core = append(a.core, constraint.Lit{Var: v, Neg: !m.IsPos()})
			}
		}
		return &backend.Result{Status: backend.StatusUnsat, Runtime: runtime}, nil
	default:
		return &backend.Result{Status: backend.StatusUnknown, Runtime: runtime}, nil
	}
}

func (a *Adapter) Core() ([]constraint.Lit, error) {
	if a.core == nil {
		return nil, backend.ErrNoCore
	}
	return append([]constraint.Lit{}, a.core...), nil
}
