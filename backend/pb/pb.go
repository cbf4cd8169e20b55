// Package pb adapts the gophersat pseudo-Boolean engine: linear
// constraints and clauses over 0/1 variables, with optimization by
// iterative bound strengthening. The engine is not incremental; the
// adapter accumulates constraints and rebuilds the problem on every
// solve, which also makes assumptions naturally scoped to one call.
package pb

import (
	"context"
	"fmt"
	"time"

	"github.com/crillab/gophersat/solver"

	"github.com/cardinal-go/cardinal/backend"
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// Adapter drives gophersat over one model. Not safe for concurrent
// use.
type Adapter struct {
	index  map[*expr.Var]int // 1-based engine variable index
	order  []*expr.Var
	posted []constraint.Constraint
	obj    *constraint.Objective
	fixed  map[*expr.Var]int64
}

func New() *Adapter {
	return &Adapter{
		index: make(map[*expr.Var]int),
		fixed: make(map[*expr.Var]int64),
	}
}

func (a *Adapter) Name() string { return "pb" }

func (a *Adapter) Capabilities() constraint.Capabilities {
	return constraint.Capabilities{
		NativeLinear:        true,
		NativeClauses:       true,
		SupportsAssumptions: true,
		MaxIntDomain:        constraint.Bound(1),
	}
}

func (a *Adapter) Declare(vars []*expr.Var) error {
	for _, v := range vars {
		if _, err := a.idx(v); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) idx(v *expr.Var) (int, error) {
	if i, ok := a.index[v]; ok {
		return i, nil
	}
	lo, hi := v.Bounds()
	if !v.IsBool() && (lo < 0 || hi > 1) {
		return 0, fmt.Errorf("%w: pb accepts 0/1 variables only, got %q with domain [%d,%d]", backend.ErrBackendFailure, v.Name(), lo, hi)
	}
	a.order = append(a.order, v)
	i := len(a.order)
	a.index[v] = i
	if lo == hi {
		a.fixed[v] = lo
	}
	return i, nil
}

func (a *Adapter) Post(cs []constraint.Constraint) error {
	for _, c := range cs {
		switch c.(type) {
		case constraint.Linear, constraint.Clause:
		default:
			return fmt.Errorf("%w: pb cannot accept %s constraint %s", backend.ErrBackendFailure, c.Shape(), c)
		}
		for _, v := range c.Scope() {
			if _, err := a.idx(v); err != nil {
				return err
			}
		}
		a.posted = append(a.posted, c)
	}
	return nil
}

func (a *Adapter) SetObjective(o *constraint.Objective) error {
	for _, v := range o.Vars {
		if _, err := a.idx(v); err != nil {
			return err
		}
	}
	a.obj = o
	return nil
}

func (a *Adapter) Core() ([]constraint.Lit, error) {
	return nil, fmt.Errorf("%w: pb", backend.ErrCoreUnsupported)
}

// pbOf converts one posted constraint. The gophersat constructors
// normalize negative weights by flipping literals and take ownership
// of their slices, so every call passes fresh copies.
func (a *Adapter) pbOf(c constraint.Constraint) []solver.PBConstr {
	switch nf := c.(type) {
	case constraint.Clause:
		if len(nf.Lits) == 0 {
			// unsatisfiable
			return []solver.PBConstr{solver.AtLeast(nil, 1)}
		}
		lits := make([]int, len(nf.Lits))
		for i, l := range nf.Lits {
			lits[i] = a.dimacs(l)
		}
		return []solver.PBConstr{solver.PropClause(lits...)}
	case constraint.Linear:
		return a.pbLinear(nf.Coeffs, nf.Vars, nf.Rel, nf.K)
	}
	return nil
}

func (a *Adapter) pbLinear(coeffs []int64, vars []*expr.Var, rel constraint.Rel, k int64) []solver.PBConstr {
	lits := make([]int, len(vars))
	weights := make([]int, len(vars))
	for i, v := range vars {
		lits[i] = a.index[v]
		weights[i] = int(coeffs[i])
	}
	switch rel {
	case constraint.RelGe:
		return []solver.PBConstr{solver.GtEq(lits, weights, int(k))}
	case constraint.RelLe:
		return []solver.PBConstr{solver.LtEq(lits, weights, int(k))}
	default:
		return solver.Eq(lits, weights, int(k))
	}
}

func (a *Adapter) dimacs(l constraint.Lit) int {
	i := a.index[l.Var]
	if l.Neg {
		return -i
	}
	return i
}

// build assembles the full problem: accumulated constraints, variable
// fixings, per-call assumption units, and any optimization bounds.
func (a *Adapter) build(assumptions []constraint.Lit, bounds []solver.PBConstr) *solver.Problem {
	var constrs []solver.PBConstr
	for _, c := range a.posted {
		constrs = append(constrs, a.pbOf(c)...)
	}
	for v, val := range a.fixed {
		lit := a.index[v]
		if val == 0 {
			lit = -lit
		}
		constrs = append(constrs, solver.PropClause(lit))
	}
	for _, l := range assumptions {
		constrs = append(constrs, solver.PropClause(a.dimacs(l)))
	}
	constrs = append(constrs, bounds...)
	// the engine indexes variables from the constraints it sees, so a
	// declared but unconstrained variable needs a tautology to exist
	for _, v := range a.order {
		i := a.index[v]
		constrs = append(constrs, solver.PropClause(i, -i))
	}
	return solver.ParsePBConstrs(constrs)
}

// run executes one engine search, honoring the remaining deadline. The
// engine has no interrupt: an expired search is abandoned to finish in
// the background.
func run(ctx context.Context, p *solver.Problem, deadline time.Time) (solver.Status, []bool) {
	s := solver.New(p)
	done := make(chan solver.Status, 1)
	go func() { done <- s.Solve() }()

	var expire <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		expire = t.C
	}
	select {
	case st := <-done:
		if st == solver.Sat {
			return st, s.Model()
		}
		return st, nil
	case <-expire:
		return solver.Indet, nil
	case <-ctx.Done():
		return solver.Indet, nil
	}
}

func (a *Adapter) Solve(ctx context.Context, opts backend.SolveOptions) (*backend.Result, error) {
	start := time.Now()
	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
	}
	if dl, ok := ctx.Deadline(); ok && (deadline.IsZero() || dl.Before(deadline)) {
		deadline = dl
	}

	st, model := run(ctx, a.build(opts.Assumptions, nil), deadline)
	switch st {
	case solver.Unsat:
		return &backend.Result{Status: backend.StatusUnsat, Runtime: time.Since(start)}, nil
	case solver.Indet:
		return &backend.Result{Status: backend.StatusUnknown, Runtime: time.Since(start)}, nil
	}

	if a.obj == nil {
		return &backend.Result{Status: backend.StatusSat, Values: a.values(model), Runtime: time.Since(start)}, nil
	}
	return a.optimize(ctx, opts, model, deadline, start)
}

// optimize strengthens the objective bound until the problem turns
// unsatisfiable, proving the incumbent optimal. A deadline expiring
// mid-search returns the incumbent as sat, not proven optimal.
func (a *Adapter) optimize(ctx context.Context, opts backend.SolveOptions, model []bool, deadline time.Time, start time.Time) (*backend.Result, error) {
	best := model
	bestVal := a.objValue(model)
	for {
		bound := a.strengthen(bestVal)
		st, m := run(ctx, a.build(opts.Assumptions, bound), deadline)
		switch st {
		case solver.Unsat:
			return &backend.Result{
				Status:    backend.StatusOptimal,
				Values:    a.values(best),
				Objective: &bestVal,
				Runtime:   time.Since(start),
			}, nil
		case solver.Indet:
			return &backend.Result{
				Status:    backend.StatusSat,
				Values:    a.values(best),
				Objective: &bestVal,
				Runtime:   time.Since(start),
			}, nil
		}
		best = m
		bestVal = a.objValue(m)
	}
}

// strengthen returns the bound excluding the incumbent value and
// everything worse.
func (a *Adapter) strengthen(incumbent int64) []solver.PBConstr {
	k := incumbent - a.obj.Offset // bound on the variable part
	if a.obj.Sense == constraint.Minimize {
		return a.pbLinear(a.obj.Coeffs, a.obj.Vars, constraint.RelLe, k-1)
	}
	return a.pbLinear(a.obj.Coeffs, a.obj.Vars, constraint.RelGe, k+1)
}

func (a *Adapter) objValue(model []bool) int64 {
	sum := a.obj.Offset
	for i, v := range a.obj.Vars {
		if a.valueOf(model, v) != 0 {
			sum += a.obj.Coeffs[i]
		}
	}
	return sum
}

func (a *Adapter) values(model []bool) map[*expr.Var]int64 {
	vals := make(map[*expr.Var]int64, len(a.order))
	for _, v := range a.order {
		vals[v] = a.valueOf(model, v)
	}
	return vals
}

func (a *Adapter) valueOf(model []bool, v *expr.Var) int64 {
	i := a.index[v] - 1
	if i < 0 || i >= len(model) {
		return 0
	}
	if model[i] {
		return 1
	}
	return 0
}
