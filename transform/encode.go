package transform

import (
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// The target encoding pass lowers decomposed, flattened,
// negation-normal constraints into the dialect the capability
// descriptor selects:
//
//   - clause-based targets get CNF, with Tseitin auxiliaries for
//     shared Boolean structure (linear-size encoding);
//   - linear targets get integer linear constraints, with big-M
//     indicator encodings for reified comparisons and clauses
//     rewritten as sum-of-literals inequalities;
//   - targets that are neither (CP-style engines) get flattened
//     comparisons and clauses over reified comparison literals.
//
// Global constraints reaching this pass are native pass-throughs.

type dialect uint8

const (
	dialectCP dialect = iota
	dialectClause
	dialectLinear
)

type encoder struct {
	mode   dialect
	caps   constraint.Capabilities
	target string
	a      *alloc
	out    []constraint.Constraint

	trueLit   *constraint.Lit
	reifyMemo map[*expr.Expr]constraint.Lit
}

func encode(cons []*expr.Expr, caps constraint.Capabilities, target string, a *alloc) ([]constraint.Constraint, error) {
	mode := dialectCP
	switch {
	case caps.NativeLinear:
		mode = dialectLinear
	case caps.NativeClauses:
		mode = dialectClause
	}
	enc := &encoder{
		mode:      mode,
		caps:      caps,
		target:    target,
		a:         a,
		reifyMemo: make(map[*expr.Expr]constraint.Lit),
	}
	for _, c := range cons {
		if err := enc.top(c); err != nil {
			return nil, err
		}
	}
	return enc.out, nil
}

// top asserts one constraint.
func (enc *encoder) top(e *expr.Expr) error {
	switch op := e.Op(); {
	case op == expr.OpConst:
		if e.Const() == 0 {
			enc.falsum()
		}
		return nil

	case op == expr.OpAnd:
		for _, k := range e.Children() {
			if err := enc.top(k); err != nil {
				return err
			}
		}
		return nil

	case op.IsGlobal():
		enc.out = append(enc.out, constraint.Global{E: e})
		return nil

	case op.IsComparison():
		return enc.comparison(e)

	case op == expr.OpVar, op == expr.OpNot:
		lit, err := enc.lit(e)
		if err != nil {
			return err
		}
		enc.emitClause([]constraint.Lit{lit})
		return nil

	case op == expr.OpOr:
		lits, sat, err := enc.litsOf(e.Children())
		if err != nil {
			return err
		}
		if !sat {
			enc.emitClause(lits)
		}
		return nil
	}
	return unsupported(e.Op(), enc.target, "not a constraint form")
}

// comparison asserts a flattened comparison.
func (enc *encoder) comparison(e *expr.Expr) error {
	switch enc.mode {
	case dialectLinear:
		return enc.assertLinear(e)
	case dialectClause:
		f, err := boolComparisonFormula(e, enc.target)
		if err != nil {
			return err
		}
		return enc.top(f)
	default:
		enc.out = append(enc.out, constraint.Comparison{E: e})
		return nil
	}
}

// lit returns the literal of a Boolean leaf or subformula, introducing
// Tseitin or reification auxiliaries as needed.
func (enc *encoder) lit(e *expr.Expr) (constraint.Lit, error) {
	switch op := e.Op(); {
	case op == expr.OpVar:
		return constraint.Pos(e.Var()), nil

	case op == expr.OpNot:
		inner, err := enc.lit(e.Children()[0])
		if err != nil {
			return constraint.Lit{}, err
		}
		return inner.Negate(), nil

	case op == expr.OpConst:
		if e.Const() != 0 {
			return enc.constLit(), nil
		}
		return enc.constLit().Negate(), nil

	case op == expr.OpAnd, op == expr.OpOr:
		lits, sat, err := enc.litsOf(e.Children())
		if err != nil {
			return constraint.Lit{}, err
		}
		if op == expr.OpOr && sat {
			return enc.constLit(), nil
		}
		if op == expr.OpAnd && len(lits) == 0 {
			return enc.constLit(), nil
		}
		if len(lits) == 1 {
			return lits[0], nil
		}
		if op == expr.OpAnd {
			return enc.tseitinAnd(lits), nil
		}
		return enc.tseitinOr(lits), nil

	case op.IsComparison():
		return enc.reify(e)
	}
	return constraint.Lit{}, unsupported(e.Op(), enc.target, "cannot appear under a connective")
}

// litsOf maps disjunct/conjunct children to literals, folding
// constants. For disjunctions the sat flag reports a constant-true
// child (the clause is vacuous); constant-false children are dropped.
func (enc *encoder) litsOf(kids []*expr.Expr) ([]constraint.Lit, bool, error) {
	var lits []constraint.Lit
	sat := false
	for _, k := range kids {
		if k.Op() == expr.OpConst {
			if k.Const() != 0 {
				sat = true
			}
			continue
		}
		l, err := enc.lit(k)
		if err != nil {
			return nil, false, err
		}
		lits = append(lits, l)
	}
	return lits, sat, nil
}

// reify returns a literal equivalent to the comparison.
func (enc *encoder) reify(e *expr.Expr) (constraint.Lit, error) {
	if l, ok := enc.reifyMemo[e]; ok {
		return l, nil
	}
	var lit constraint.Lit
	switch enc.mode {
	case dialectLinear:
		l, err := enc.reifyLinear(e)
		if err != nil {
			return constraint.Lit{}, err
		}
		lit = l
	case dialectClause:
		f, err := boolComparisonFormula(e, enc.target)
		if err != nil {
			return constraint.Lit{}, err
		}
		l, err := enc.lit(f)
		if err != nil {
			return constraint.Lit{}, err
		}
		lit = l
	default:
		t := enc.a.Bool()
		enc.out = append(enc.out, constraint.Comparison{E: t.Eq(e)})
		lit = constraint.Pos(t.Var())
	}
	enc.reifyMemo[e] = lit
	return lit, nil
}

// tseitinAnd introduces t with t <-> (l1 and ... and ln).
func (enc *encoder) tseitinAnd(lits []constraint.Lit) constraint.Lit {
	t := constraint.Pos(enc.a.Bool().Var())
	long := make([]constraint.Lit, 0, len(lits)+1)
	long = append(long, t)
	for _, l := range lits {
		enc.emitClause([]constraint.Lit{t.Negate(), l})
		long = append(long, l.Negate())
	}
	enc.emitClause(long)
	return t
}

// tseitinOr introduces t with t <-> (l1 or ... or ln).
func (enc *encoder) tseitinOr(lits []constraint.Lit) constraint.Lit {
	t := constraint.Pos(enc.a.Bool().Var())
	long := make([]constraint.Lit, 0, len(lits)+1)
	long = append(long, t.Negate())
	for _, l := range lits {
		enc.emitClause([]constraint.Lit{t, l.Negate()})
		long = append(long, l)
	}
	enc.emitClause(long)
	return t
}

// constLit returns a literal forced true, allocated once per run.
func (enc *encoder) constLit() constraint.Lit {
	if enc.trueLit == nil {
		t := constraint.Pos(enc.a.Bool().Var())
		enc.emitClause([]constraint.Lit{t})
		enc.trueLit = &t
	}
	return *enc.trueLit
}

// emitClause emits a disjunction of literals in the target dialect.
func (enc *encoder) emitClause(lits []constraint.Lit) {
	if enc.mode != dialectLinear {
		enc.out = append(enc.out, constraint.Clause{Lits: lits})
		return
	}
	// sum(pos) + sum(1-neg) >= 1
	coeffs := make([]int64, len(lits))
	vars := make([]*expr.Var, len(lits))
	k := int64(1)
	for i, l := range lits {
		vars[i] = l.Var
		if l.Neg {
			coeffs[i] = -1
			k--
		} else {
			coeffs[i] = 1
		}
	}
	enc.out = append(enc.out, constraint.Linear{Coeffs: coeffs, Vars: vars, Rel: constraint.RelGe, K: k})
}

// falsum emits an unsatisfiable constraint.
func (enc *encoder) falsum() {
	if enc.mode == dialectLinear {
		enc.out = append(enc.out, constraint.Linear{Rel: constraint.RelGe, K: 1})
		return
	}
	enc.out = append(enc.out, constraint.Clause{})
}

// boolComparisonFormula rewrites a comparison whose both sides are
// Boolean-valued into pure connective structure, for clause targets.
// Comparisons over integer-domain sides have no clause encoding and
// fail fast.
func boolComparisonFormula(e *expr.Expr, target string) (*expr.Expr, error) {
	kids := e.Children()
	a, b := kids[0], kids[1]
	if !a.IsBool() || !b.IsBool() {
		return nil, unsupported(e.Op(), target, "integer comparison on a clause-only target")
	}
	na, nb := nnf(a, true), nnf(b, true)
	pa, pb := nnf(a, false), nnf(b, false)
	switch e.Op() {
	case expr.OpEq:
		return expr.And(expr.Or(na, pb), expr.Or(pa, nb)), nil
	case expr.OpNe:
		return expr.And(expr.Or(pa, pb), expr.Or(na, nb)), nil
	case expr.OpLt: // a < b over 0/1: !a and b
		return expr.And(na, pb), nil
	case expr.OpLe:
		return expr.Or(na, pb), nil
	case expr.OpGt:
		return expr.And(pa, nb), nil
	default: // OpGe
		return expr.Or(pa, nb), nil
	}
}
