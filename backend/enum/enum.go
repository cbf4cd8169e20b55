// Package enum is the built-in reference engine: exhaustive
// backtracking search over finite bitset domains. It accepts every
// constraint shape, including native global constraints, supports
// assumptions, extracts deletion-based unsat cores, and optimizes by
// incumbent bounding. It exists to make models runnable without an
// external engine and to cross-check the other backends on small
// instances.
package enum

import (
	"context"
	"fmt"
	"time"

	"github.com/bits-and-blooms/bitset"

	"github.com/cardinal-go/cardinal/backend"
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// domainBound caps the magnitude of variable domains the engine
// accepts, keeping per-variable bitsets small.
const domainBound = int64(1) << 20

// Adapter holds the declared variables, their domains and the posted
// constraints. Not safe for concurrent use.
type Adapter struct {
	vars    []*expr.Var
	domains map[*expr.Var]*bitset.BitSet
	cons    []constraint.Constraint
	obj     *constraint.Objective
	core    []constraint.Lit
	hasCore bool
}

func New() *Adapter {
	return &Adapter{domains: make(map[*expr.Var]*bitset.BitSet)}
}

func (a *Adapter) Name() string { return "enum" }

func (a *Adapter) Capabilities() constraint.Capabilities {
	return constraint.Capabilities{
		SupportedGlobals: map[expr.Op]bool{
			expr.OpAllDifferent: true,
			expr.OpTable:        true,
			expr.OpElement:      true,
			expr.OpCumulative:   true,
			expr.OpCircuit:      true,
		},
		SupportsAssumptions:     true,
		SupportsCoreExtraction:  true,
		SupportsIncrementalPost: true,
		MaxIntDomain:            constraint.Bound(domainBound),
	}
}

func (a *Adapter) Declare(vars []*expr.Var) error {
	for _, v := range vars {
		if _, ok := a.domains[v]; ok {
			continue
		}
		lo, hi := v.Bounds()
		if lo < -domainBound || hi > domainBound {
			return fmt.Errorf("%w: enum cannot hold domain [%d,%d] of %q", backend.ErrBackendFailure, lo, hi, v.Name())
		}
		d := bitset.New(uint(hi - lo + 1))
		d.FlipRange(0, uint(hi-lo+1))
		a.vars = append(a.vars, v)
		a.domains[v] = d
	}
	return nil
}

func (a *Adapter) Post(cs []constraint.Constraint) error {
	a.core, a.hasCore = nil, false
	for _, c := range cs {
		for _, v := range c.Scope() {
			if _, ok := a.domains[v]; !ok {
				if err := a.Declare([]*expr.Var{v}); err != nil {
					return err
				}
			}
		}
		a.cons = append(a.cons, c)
	}
	return nil
}

func (a *Adapter) SetObjective(o *constraint.Objective) error {
	for _, v := range o.Vars {
		if err := a.Declare([]*expr.Var{v}); err != nil {
			return err
		}
	}
	a.obj = o
	return nil
}

func (a *Adapter) Solve(ctx context.Context, opts backend.SolveOptions) (*backend.Result, error) {
	a.core, a.hasCore = nil, false
	start := time.Now()
	var deadline time.Time
	if opts.TimeLimit > 0 {
		deadline = start.Add(opts.TimeLimit)
	}
	if dl, ok := ctx.Deadline(); ok && (deadline.IsZero() || dl.Before(deadline)) {
		deadline = dl
	}

	st, vals, objVal := a.search(ctx, opts.Assumptions, deadline)
	res := &backend.Result{Status: st, Values: vals, Runtime: time.Since(start)}
	if a.obj != nil && vals != nil {
		res.Objective = &objVal
	}
	if st == backend.StatusUnsat && len(opts.Assumptions) > 0 {
		a.core = a.shrinkCore(ctx, opts.Assumptions, deadline)
		a.hasCore = true
	}
	return res, nil
}

// Core returns the deletion-shrunk assumption subset from the last
// UNSAT solve.
func (a *Adapter) Core() ([]constraint.Lit, error) {
	if !a.hasCore {
		return nil, backend.ErrNoCore
	}
	return append([]constraint.Lit{}, a.core...), nil
}

// shrinkCore drops assumptions one at a time, keeping those whose
// removal makes the problem satisfiable again. An expired deadline
// stops shrinking early; the remaining set is still a core, just less
// reduced.
func (a *Adapter) shrinkCore(ctx context.Context, lits []constraint.Lit, deadline time.Time) []constraint.Lit {
	kept := append([]constraint.Lit{}, lits...)
	for i := 0; i < len(kept); {
		if expired(ctx, deadline) {
			break
		}
		trial := make([]constraint.Lit, 0, len(kept)-1)
		trial = append(trial, kept[:i]...)
		trial = append(trial, kept[i+1:]...)
		st, _, _ := a.search(ctx, trial, deadline)
		if st == backend.StatusUnsat {
			kept = trial
		} else {
			i++
		}
	}
	return kept
}

func expired(ctx context.Context, deadline time.Time) bool {
	if ctx.Err() != nil {
		return true
	}
	return !deadline.IsZero() && time.Now().After(deadline)
}

// search runs one exhaustive backtracking pass. For satisfaction it
// stops at the first solution; for optimization it explores the whole
// space, bounding on the incumbent objective value.
func (a *Adapter) search(ctx context.Context, assumptions []constraint.Lit, deadline time.Time) (backend.Status, map[*expr.Var]int64, int64) {
	fixed := make(map[*expr.Var]int64, len(assumptions))
	for _, l := range assumptions {
		want := int64(1)
		if l.Neg {
			want = 0
		}
		if prev, ok := fixed[l.Var]; ok && prev != want {
			return backend.StatusUnsat, nil, 0
		}
		fixed[l.Var] = want
		if _, ok := a.domains[l.Var]; !ok {
			if err := a.Declare([]*expr.Var{l.Var}); err != nil {
				return backend.StatusUnsat, nil, 0
			}
		}
	}

	s := &searcher{
		ad:       a,
		fixed:    fixed,
		assign:   make(map[*expr.Var]int64, len(a.vars)),
		ctx:      ctx,
		deadline: deadline,
	}
	s.prepare()
	// constraints with no variables in scope never trigger the
	// assignment watcher and decide feasibility up front
	for i := range s.pending {
		if s.pending[i] == 0 && !s.holds(i) {
			return backend.StatusUnsat, nil, 0
		}
	}
	s.dfs(0)

	switch {
	case s.hasBest && a.obj != nil && !s.aborted:
		return backend.StatusOptimal, s.best, s.bestVal
	case s.hasBest:
		return backend.StatusSat, s.best, s.bestVal
	case s.aborted:
		return backend.StatusUnknown, nil, 0
	default:
		return backend.StatusUnsat, nil, 0
	}
}

type searcher struct {
	ad    *Adapter
	fixed map[*expr.Var]int64

	assign  map[*expr.Var]int64
	byVar   map[*expr.Var][]int // constraint indices watching the var
	pending []int               // unassigned scope vars per constraint
	objLeft int                 // unassigned objective vars

	ctx      context.Context
	deadline time.Time
	nodes    uint64
	aborted  bool

	best    map[*expr.Var]int64
	bestVal int64
	hasBest bool
}

func (s *searcher) prepare() {
	s.byVar = make(map[*expr.Var][]int, len(s.ad.vars))
	s.pending = make([]int, len(s.ad.cons))
	for i, c := range s.ad.cons {
		scope := c.Scope()
		s.pending[i] = len(scope)
		for _, v := range scope {
			s.byVar[v] = append(s.byVar[v], i)
		}
	}
	if s.ad.obj != nil {
		seen := make(map[*expr.Var]struct{})
		for _, v := range s.ad.obj.Vars {
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				s.objLeft++
			}
		}
	}
}

func (s *searcher) lookup(v *expr.Var) (int64, bool) {
	val, ok := s.assign[v]
	return val, ok
}

// holds evaluates constraint i; callable only once its scope is fully
// assigned. Undefined evaluation (division by zero, index out of
// range) counts as violated.
func (s *searcher) holds(i int) bool {
	switch c := s.ad.cons[i].(type) {
	case constraint.Clause:
		if len(c.Lits) == 0 {
			return false
		}
		for _, l := range c.Lits {
			if l.Holds(s.assign[l.Var]) {
				return true
			}
		}
		return false
	case constraint.Linear:
		ok, defined := c.Eval(s.lookup)
		return defined && ok
	case constraint.Comparison:
		val, defined := expr.Eval(c.E, s.lookup)
		return defined && val != 0
	case constraint.Global:
		val, defined := expr.Eval(c.E, s.lookup)
		return defined && val != 0
	}
	return false
}

func (s *searcher) checkpoint() bool {
	s.nodes++
	if s.nodes%256 == 0 && expired(s.ctx, s.deadline) {
		s.aborted = true
	}
	return !s.aborted
}

// dfs assigns variables in declaration order. It returns false to stop
// the whole search (first solution found in satisfaction mode, or
// abort).
func (s *searcher) dfs(i int) bool {
	if !s.checkpoint() {
		return false
	}
	if i == len(s.ad.vars) {
		return s.record()
	}
	v := s.ad.vars[i]
	lo, _ := v.Bounds()
	d := s.ad.domains[v]
	for b, ok := d.NextSet(0); ok; b, ok = d.NextSet(b + 1) {
		val := lo + int64(b)
		if want, isFixed := s.fixed[v]; isFixed && val != want {
			continue
		}
		if !s.enter(v, val) {
			s.leave(v)
			continue
		}
		if !s.dfs(i + 1) {
			s.leave(v)
			return false
		}
		s.leave(v)
	}
	return true
}

// enter assigns v and checks every constraint that became fully
// assigned, plus the incumbent bound. It reports whether the branch is
// still viable; leave must be called either way.
func (s *searcher) enter(v *expr.Var, val int64) bool {
	s.assign[v] = val
	viable := true
	for _, ci := range s.byVar[v] {
		s.pending[ci]--
		if viable && s.pending[ci] == 0 && !s.holds(ci) {
			viable = false
		}
	}
	if s.ad.obj != nil && s.isObjVar(v) {
		s.objLeft--
		if viable && s.objLeft == 0 && s.hasBest && !s.improves() {
			viable = false
		}
	}
	return viable
}

func (s *searcher) leave(v *expr.Var) {
	delete(s.assign, v)
	for _, ci := range s.byVar[v] {
		s.pending[ci]++
	}
	if s.ad.obj != nil && s.isObjVar(v) {
		s.objLeft++
	}
}

func (s *searcher) isObjVar(v *expr.Var) bool {
	for _, ov := range s.ad.obj.Vars {
		if ov == v {
			return true
		}
	}
	return false
}

func (s *searcher) improves() bool {
	val, ok := s.ad.obj.Value(s.lookup)
	if !ok {
		return false
	}
	if s.ad.obj.Sense == constraint.Minimize {
		return val < s.bestVal
	}
	return val > s.bestVal
}

// record snapshots a full satisfying assignment. In satisfaction mode
// the first one ends the search; in optimization mode the incumbent is
// kept and the search goes on.
func (s *searcher) record() bool {
	snap := make(map[*expr.Var]int64, len(s.assign))
	for v, val := range s.assign {
		snap[v] = val
	}
	if s.ad.obj == nil {
		s.best, s.hasBest = snap, true
		return false
	}
	val, ok := s.ad.obj.Value(s.lookup)
	if !ok {
		return true
	}
	if !s.hasBest || (s.ad.obj.Sense == constraint.Minimize && val < s.bestVal) ||
		(s.ad.obj.Sense == constraint.Maximize && val > s.bestVal) {
		s.best, s.bestVal, s.hasBest = snap, val, true
	}
	return true
}
