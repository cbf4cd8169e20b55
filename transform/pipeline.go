// Package transform rewrites models into the normal-form constraint
// vocabulary a target backend accepts.
//
// The pipeline applies a fixed, composable pass order:
//
//	Decompose -> Flatten -> Normalize (NNF) -> Encode -> Dedup
//
// The first three passes map expression trees to expression trees and
// can be unit-tested independently; Encode produces normal-form
// constraints for the target dialect and Dedup removes structural
// duplicates. Every pass preserves the satisfying assignments of the
// original variables; auxiliary variables introduced along the way are
// existentially quantified and never surfaced in results.
package transform

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
	"github.com/cardinal-go/cardinal/logger"
)

// Pipeline rewrites models for one target backend, identified by name
// in errors and logs.
type Pipeline struct {
	target string
	caps   constraint.Capabilities
	log    zerolog.Logger
}

// NewPipeline builds a pipeline for a backend's capability descriptor.
func NewPipeline(target string, caps constraint.Capabilities) *Pipeline {
	return &Pipeline{
		target: target,
		caps:   caps,
		log:    logger.Logger().With().Str("target", target).Logger(),
	}
}

// Compiled is the pipeline output: normal-form constraints in source
// order (rewrites of a constraint appear contiguously at its position)
// and an optional compiled objective.
type Compiled struct {
	Constraints []constraint.Constraint
	Objective   *constraint.Objective
}

// Compile rewrites the given constraints, and the optional objective
// wrapper expression, into the target's normal form.
func (p *Pipeline) Compile(cons []*expr.Expr, objective *expr.Expr) (*Compiled, error) {
	for _, c := range cons {
		if c == nil {
			return nil, fmt.Errorf("%w: nil constraint", expr.ErrValidation)
		}
		if err := c.Err(); err != nil {
			return nil, err
		}
		if !c.IsBool() {
			return nil, fmt.Errorf("%w: constraint %s is not Boolean-valued", expr.ErrValidation, c)
		}
	}
	if err := p.checkDomains(cons, objective); err != nil {
		return nil, err
	}

	a := newAlloc()

	rewritten, err := decompose(cons, p.caps, a)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Int("in", len(cons)).Int("out", len(rewritten)).Msg("decompose")

	flat, err := flatten(rewritten, a)
	if err != nil {
		return nil, err
	}
	p.log.Debug().Int("out", len(flat)).Msg("flatten")

	norm := make([]*expr.Expr, len(flat))
	for i, c := range flat {
		norm[i] = nnf(c, false)
	}

	var obj *constraint.Objective
	if objective != nil {
		if err := objective.Err(); err != nil {
			return nil, err
		}
		if !objective.Op().IsObjective() {
			return nil, fmt.Errorf("%w: objective must be wrapped in Minimize or Maximize, got %s", expr.ErrValidation, objective.Op())
		}
		var defs []*expr.Expr
		obj, defs, err = compileObjective(objective, p.caps, a)
		if err != nil {
			return nil, err
		}
		norm = append(norm, defs...)
	}

	encoded, err := encode(norm, p.caps, p.target, a)
	if err != nil {
		return nil, err
	}

	deduped := Dedup(encoded)
	p.log.Debug().
		Int("constraints", len(deduped)).
		Int("aux_vars", a.count()).
		Msg("compiled")

	return &Compiled{Constraints: deduped, Objective: obj}, nil
}

// checkDomains rejects variables whose domains exceed the target's
// declared integer bound before any rewriting happens.
func (p *Pipeline) checkDomains(cons []*expr.Expr, objective *expr.Expr) error {
	if p.caps.MaxIntDomain == nil {
		return nil
	}
	all := cons
	if objective != nil {
		all = append(append([]*expr.Expr{}, cons...), objective)
	}
	for _, v := range expr.Variables(all...) {
		if !p.caps.FitsDomain(v) {
			lo, hi := v.Bounds()
			return fmt.Errorf("%w: variable %q domain [%d,%d] exceeds target %q integer bound %d",
				ErrUnsupportedOperator, v.Name(), lo, hi, p.target, *p.caps.MaxIntDomain)
		}
	}
	return nil
}

// Decompose rewrites global constraints the descriptor does not list
// as native into equivalent conjunctions of primitive constraints.
// Exported for pass-level testing; the replacement constraints of each
// input appear contiguously at the input's position.
func Decompose(cons []*expr.Expr, caps constraint.Capabilities) ([]*expr.Expr, error) {
	return decompose(cons, caps, newAlloc())
}

// Flatten rewrites nested arithmetic so that every comparison has at
// most one level of arithmetic nesting per side, introducing auxiliary
// variables bound by equality constraints. Exported for pass-level
// testing.
func Flatten(cons []*expr.Expr) ([]*expr.Expr, error) {
	return flatten(cons, newAlloc())
}

// Normalize pushes negation inward (De Morgan over connectives,
// comparison flips) so no connective carries an unresolved outer
// negation. Exported for pass-level testing.
func Normalize(cons []*expr.Expr) []*expr.Expr {
	out := make([]*expr.Expr, len(cons))
	for i, c := range cons {
		out[i] = nnf(c, false)
	}
	return out
}

// Encode lowers decomposed, flattened, negation-normal constraints
// into the target dialect. Exported for pass-level testing.
func Encode(cons []*expr.Expr, caps constraint.Capabilities, target string) ([]constraint.Constraint, error) {
	return encode(cons, caps, target, newAlloc())
}
