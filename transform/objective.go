package transform

import (
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// compileObjective lowers a Minimize/Maximize wrapper into a linear
// objective over variables, plus the defining constraints of any
// auxiliaries it needed. A body that is not linear after flattening is
// bound to a single auxiliary carrying the whole term. Returned
// definitions are already in negation normal form, ready to encode.
func compileObjective(objective *expr.Expr, caps constraint.Capabilities, a *alloc) (*constraint.Objective, []*expr.Expr, error) {
	sense := constraint.Minimize
	if objective.Op() == expr.OpMaximize {
		sense = constraint.Maximize
	}
	body := objective.Children()[0]

	d := &decomposer{caps: caps, a: a, memo: make(map[*expr.Expr]*expr.Expr)}
	rb := d.rewrite(body, polMixed)
	if err := rb.Err(); err != nil {
		return nil, nil, err
	}
	defs := append([]*expr.Expr{}, d.extras...)

	f := &flattener{a: a, memo: make(map[*expr.Expr]*expr.Expr)}
	flat := f.side(rb)
	if err := flat.Err(); err != nil {
		return nil, nil, err
	}
	defs = append(defs, f.defs...)

	l := newLinExpr()
	if err := linOf(flat, 1, l, "objective"); err != nil {
		lo, hi := flat.Bounds()
		aux := a.Int(lo, hi)
		defs = append(defs, aux.Eq(flat))
		l = newLinExpr()
		l.add(1, aux.Var())
	}

	for i, def := range defs {
		defs[i] = nnf(def, false)
	}
	obj := &constraint.Objective{
		Sense:  sense,
		Coeffs: l.coeffs,
		Vars:   l.vars,
		Offset: l.k,
	}
	return obj, defs, nil
}
