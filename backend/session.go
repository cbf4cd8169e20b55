package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
	"github.com/cardinal-go/cardinal/logger"
	"github.com/cardinal-go/cardinal/transform"
)

// Source is the model view a session compiles from: constraints in
// insertion order, and at most one objective wrapper. Sessions diff
// against previously-seen prefixes of Constraints to decide what is
// new, so order is part of the contract.
type Source interface {
	Constraints() []*expr.Expr
	Objective() *expr.Expr
}

// State tracks the adapter lifecycle.
type State uint8

const (
	StateFresh State = iota
	StateDeclared
	StatePosted
	StateSolved
)

func (s State) String() string {
	switch s {
	case StateDeclared:
		return "declared"
	case StatePosted:
		return "posted"
	case StateSolved:
		return "solved"
	default:
		return "fresh"
	}
}

// Session drives one adapter over one model source. It owns the
// compile pipeline for the adapter's capability descriptor, posts only
// new constraints on re-solves, gates capability mismatches before any
// backend call, and writes satisfying values back onto the source's
// decision variables. Auxiliary variables introduced by compilation
// are existentially quantified: declared to the adapter, never
// surfaced in results or written back.
//
// A session is single-writer: concurrent calls on the same session are
// forbidden, matching the adapter ownership rule.
type Session struct {
	src     Source
	adapter Adapter
	caps    constraint.Capabilities
	pipe    *transform.Pipeline
	log     zerolog.Logger

	state     State
	synced    int // source constraints already compiled and posted
	declared  map[*expr.Var]struct{}
	modelVars map[*expr.Var]struct{}
	objective *expr.Expr
	last      *Result
	assumed   bool
	writeBack bool
}

// NewSession builds a session for src on the given adapter.
func NewSession(src Source, ad Adapter) *Session {
	caps := ad.Capabilities()
	return &Session{
		src:       src,
		adapter:   ad,
		caps:      caps,
		pipe:      transform.NewPipeline(ad.Name(), caps),
		log:       logger.Logger().With().Str("backend", ad.Name()).Logger(),
		declared:  make(map[*expr.Var]struct{}),
		modelVars: make(map[*expr.Var]struct{}),
		writeBack: true,
	}
}

// State returns the lifecycle state.
func (s *Session) State() State { return s.state }

// Result returns the last solve result, or nil before the first solve.
func (s *Session) Result() *Result { return s.last }

// sync compiles and posts everything the source added since the last
// solve, plus the objective if it changed.
func (s *Session) sync() error {
	cons := s.src.Constraints()
	delta := cons[s.synced:]
	obj := s.src.Objective()
	objChanged := obj != s.objective

	if len(delta) == 0 && !objChanged {
		return nil
	}

	for _, v := range expr.Variables(delta...) {
		s.modelVars[v] = struct{}{}
	}
	var compileObj *expr.Expr
	if objChanged {
		compileObj = obj
		if obj != nil {
			for _, v := range expr.Variables(obj) {
				s.modelVars[v] = struct{}{}
			}
		}
	}

	compiled, err := s.pipe.Compile(delta, compileObj)
	if err != nil {
		return err
	}

	if err := s.declare(compiled); err != nil {
		return err
	}
	if len(compiled.Constraints) > 0 {
		if err := s.adapter.Post(compiled.Constraints); err != nil {
			return err
		}
		s.state = StatePosted
	}
	if objChanged && compiled.Objective != nil {
		if err := s.adapter.SetObjective(compiled.Objective); err != nil {
			return err
		}
	}

	s.synced = len(cons)
	s.objective = obj
	s.last = nil
	s.log.Debug().Int("constraints", len(compiled.Constraints)).Msg("posted")
	return nil
}

// declare registers every variable in scope of the compiled output,
// auxiliaries included, skipping already-declared ones.
func (s *Session) declare(c *transform.Compiled) error {
	var fresh []*expr.Var
	add := func(v *expr.Var) {
		if _, ok := s.declared[v]; !ok {
			s.declared[v] = struct{}{}
			fresh = append(fresh, v)
		}
	}
	for _, nf := range c.Constraints {
		for _, v := range nf.Scope() {
			add(v)
		}
	}
	if c.Objective != nil {
		for _, v := range c.Objective.Vars {
			add(v)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	if err := s.adapter.Declare(fresh); err != nil {
		return err
	}
	if s.state == StateFresh {
		s.state = StateDeclared
	}
	return nil
}

// Solve syncs the model to the adapter and runs the search. Solve is
// idempotent with respect to state: a second call without new
// constraints re-runs the search rather than returning a cached
// result.
func (s *Session) Solve(ctx context.Context, opts ...SolveOption) (*Result, error) {
	var o SolveOptions
	for _, opt := range opts {
		opt(&o)
	}
	if len(o.Assumptions) > 0 && !s.caps.SupportsAssumptions {
		return nil, fmt.Errorf("%w: %s", ErrAssumptionUnsupported, s.adapter.Name())
	}
	if err := s.sync(); err != nil {
		return nil, err
	}

	res, err := s.adapter.Solve(ctx, o)
	if err != nil {
		return nil, err
	}
	res = s.project(res)
	s.state = StateSolved
	s.last = res
	s.assumed = len(o.Assumptions) > 0
	if s.writeBack && res.HasSolution() {
		for v := range s.modelVars {
			if val, ok := res.Values[v]; ok {
				v.SetValue(val)
			}
		}
	}
	s.log.Debug().Stringer("status", res.Status).Dur("runtime", res.Runtime).Msg("solved")
	return res, nil
}

// project filters auxiliary variables out of the adapter's assignment.
func (s *Session) project(res *Result) *Result {
	if len(res.Values) == 0 {
		return res
	}
	vals := make(map[*expr.Var]int64, len(s.modelVars))
	for v := range s.modelVars {
		if val, ok := res.Values[v]; ok {
			vals[v] = val
		}
	}
	out := *res
	out.Values = vals
	return &out
}

// Core returns the assumption literals responsible for the last UNSAT
// result. It fails when the adapter lacks core extraction, when the
// last result was not UNSAT, or when no assumptions were active.
func (s *Session) Core() ([]constraint.Lit, error) {
	if !s.caps.SupportsCoreExtraction {
		return nil, fmt.Errorf("%w: %s", ErrCoreUnsupported, s.adapter.Name())
	}
	if s.last == nil {
		return nil, fmt.Errorf("%w: nothing solved yet", ErrNoCore)
	}
	if s.last.Status != StatusUnsat {
		return nil, fmt.Errorf("%w: last result is %s", ErrNoCore, s.last.Status)
	}
	if !s.assumed {
		return nil, fmt.Errorf("%w: no assumptions were active", ErrNoCore)
	}
	return s.adapter.Core()
}

// SolveAll enumerates satisfying assignments, invoking fn for each one
// found, until the model is exhausted, limit solutions were produced
// (0 means no limit), fn returns false, or the search turns
// inconclusive. It returns the number of solutions found.
//
// Enumeration posts blocking constraints to the adapter, not to the
// source model, so the model is unchanged afterwards; the session's
// adapter, however, is consumed and later plain solves on it will see
// the blocks. Optimizing models cannot be enumerated.
func (s *Session) SolveAll(ctx context.Context, limit int, fn func(*Result) bool, opts ...SolveOption) (int, error) {
	if s.src.Objective() != nil {
		return 0, fmt.Errorf("%w: cannot enumerate an optimizing model", ErrObjectiveUnsupported)
	}
	count := 0
	for {
		res, err := s.Solve(ctx, opts...)
		if err != nil {
			return count, err
		}
		if res.Status != StatusSat {
			return count, nil
		}
		count++
		if fn != nil && !fn(res) {
			return count, nil
		}
		if limit > 0 && count >= limit {
			return count, nil
		}
		block, ok := s.blockExpr(res)
		if !ok {
			return count, nil
		}
		compiled, err := s.pipe.Compile([]*expr.Expr{block}, nil)
		if err != nil {
			return count, err
		}
		if err := s.declare(compiled); err != nil {
			return count, err
		}
		if err := s.adapter.Post(compiled.Constraints); err != nil {
			return count, err
		}
		s.state = StatePosted
	}
}

// blockExpr builds the constraint excluding the assignment in res. A
// model with no decision variables has a single solution.
func (s *Session) blockExpr(res *Result) (*expr.Expr, bool) {
	var parts []*expr.Expr
	for v := range s.modelVars {
		val, ok := res.Values[v]
		if !ok {
			continue
		}
		ve := v.Expr()
		if v.IsBool() {
			if val != 0 {
				parts = append(parts, expr.Not(ve))
			} else {
				parts = append(parts, ve)
			}
		} else {
			parts = append(parts, ve.Ne(expr.K(val)))
		}
	}
	if len(parts) == 0 {
		return nil, false
	}
	return expr.Or(parts...), true
}
