package transform

import (
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// linExpr accumulates an integer linear combination sum(coeffs*vars)+k
// while walking comparison sides. Coefficients of a repeated variable
// merge; variable order is first-appearance, keeping output
// deterministic.
type linExpr struct {
	coeffs []int64
	vars   []*expr.Var
	k      int64
	index  map[*expr.Var]int
}

func newLinExpr() *linExpr {
	return &linExpr{index: make(map[*expr.Var]int)}
}

func (l *linExpr) add(c int64, v *expr.Var) {
	if i, ok := l.index[v]; ok {
		l.coeffs[i] += c
		return
	}
	l.index[v] = len(l.vars)
	l.coeffs = append(l.coeffs, c)
	l.vars = append(l.vars, v)
}

// bounds returns the interval of sum(coeffs*vars), excluding k.
func (l *linExpr) bounds() (int64, int64) {
	var lo, hi int64
	for i, v := range l.vars {
		vlo, vhi := v.Bounds()
		c := l.coeffs[i]
		if c >= 0 {
			lo += c * vlo
			hi += c * vhi
		} else {
			lo += c * vhi
			hi += c * vlo
		}
	}
	return lo, hi
}

func (l *linExpr) clone() *linExpr {
	c := newLinExpr()
	c.coeffs = append([]int64{}, l.coeffs...)
	c.vars = append([]*expr.Var{}, l.vars...)
	c.k = l.k
	for v, i := range l.index {
		c.index[v] = i
	}
	return c
}

// linOf folds a flattened expression into l with the given sign. Only
// linear structure is accepted; anything else fails fast naming the
// operator.
func linOf(e *expr.Expr, sign int64, l *linExpr, target string) error {
	switch e.Op() {
	case expr.OpConst:
		l.k += sign * e.Const()
		return nil
	case expr.OpVar:
		l.add(sign, e.Var())
		return nil
	case expr.OpAdd, expr.OpSum:
		for _, k := range e.Children() {
			if err := linOf(k, sign, l, target); err != nil {
				return err
			}
		}
		return nil
	case expr.OpSub:
		kids := e.Children()
		if err := linOf(kids[0], sign, l, target); err != nil {
			return err
		}
		return linOf(kids[1], -sign, l, target)
	case expr.OpNeg:
		return linOf(e.Children()[0], -sign, l, target)
	case expr.OpMul:
		consts := int64(1)
		var v *expr.Var
		for _, k := range e.Children() {
			switch k.Op() {
			case expr.OpConst:
				consts *= k.Const()
			case expr.OpVar:
				if v != nil {
					return unsupported(expr.OpMul, target, "product of two variables")
				}
				v = k.Var()
			default:
				return unsupported(k.Op(), target, "non-leaf factor")
			}
		}
		if v == nil {
			l.k += sign * consts
		} else {
			l.add(sign*consts, v)
		}
		return nil
	}
	return unsupported(e.Op(), target, "nonlinear operator on a linear target")
}

// diffOf builds lhs - rhs as a linear combination.
func diffOf(e *expr.Expr, target string) (*linExpr, error) {
	kids := e.Children()
	l := newLinExpr()
	if err := linOf(kids[0], 1, l, target); err != nil {
		return nil, err
	}
	if err := linOf(kids[1], -1, l, target); err != nil {
		return nil, err
	}
	return l, nil
}

// assertLinear emits a top-level comparison as linear constraints.
func (enc *encoder) assertLinear(e *expr.Expr) error {
	l, err := diffOf(e, enc.target)
	if err != nil {
		return err
	}
	k := -l.k
	switch e.Op() {
	case expr.OpEq:
		enc.emitLinear(l, constraint.RelEq, k)
	case expr.OpLe:
		enc.emitLinear(l, constraint.RelLe, k)
	case expr.OpLt:
		enc.emitLinear(l, constraint.RelLe, k-1)
	case expr.OpGe:
		enc.emitLinear(l, constraint.RelGe, k)
	case expr.OpGt:
		enc.emitLinear(l, constraint.RelGe, k+1)
	case expr.OpNe:
		// disequality needs a side indicator: b selects < or >
		b := enc.a.Bool().Var()
		enc.halfImply(constraint.Pos(b), l, constraint.RelLe, k-1)
		enc.halfImply(constraint.Not(b), l, constraint.RelGe, k+1)
	}
	return nil
}

func (enc *encoder) emitLinear(l *linExpr, rel constraint.Rel, k int64) {
	enc.out = append(enc.out, constraint.Linear{
		Coeffs: l.coeffs,
		Vars:   l.vars,
		Rel:    rel,
		K:      k,
	})
}

// halfImply emits lit -> (sum rel k) with a big-M sized from the
// sum's interval bounds. A vacuous implication emits nothing; an
// impossible consequent forces the literal false.
func (enc *encoder) halfImply(lit constraint.Lit, l *linExpr, rel constraint.Rel, k int64) {
	lo, hi := l.bounds()
	switch rel {
	case constraint.RelLe:
		if hi <= k {
			return
		}
		if lo > k {
			enc.emitClause([]constraint.Lit{lit.Negate()})
			return
		}
		m := hi - k
		s := l.clone()
		if lit.Neg {
			// sum - m*v <= k
			s.add(-m, lit.Var)
			enc.emitLinear(s, constraint.RelLe, k)
		} else {
			// sum + m*v <= k + m
			s.add(m, lit.Var)
			enc.emitLinear(s, constraint.RelLe, k+m)
		}
	case constraint.RelGe:
		if lo >= k {
			return
		}
		if hi < k {
			enc.emitClause([]constraint.Lit{lit.Negate()})
			return
		}
		m := k - lo
		s := l.clone()
		if lit.Neg {
			// sum + m*v >= k
			s.add(m, lit.Var)
			enc.emitLinear(s, constraint.RelGe, k)
		} else {
			// sum - m*v >= k - m
			s.add(-m, lit.Var)
			enc.emitLinear(s, constraint.RelGe, k-m)
		}
	}
}

// indicator returns a fresh literal t with t <-> (sum rel k).
func (enc *encoder) indicator(l *linExpr, rel constraint.Rel, k int64) constraint.Lit {
	t := constraint.Pos(enc.a.Bool().Var())
	switch rel {
	case constraint.RelLe:
		enc.halfImply(t, l, constraint.RelLe, k)
		enc.halfImply(t.Negate(), l, constraint.RelGe, k+1)
	case constraint.RelGe:
		enc.halfImply(t, l, constraint.RelGe, k)
		enc.halfImply(t.Negate(), l, constraint.RelLe, k-1)
	}
	return t
}

// reifyLinear returns a literal equivalent to the comparison on a
// linear target.
func (enc *encoder) reifyLinear(e *expr.Expr) (constraint.Lit, error) {
	l, err := diffOf(e, enc.target)
	if err != nil {
		return constraint.Lit{}, err
	}
	k := -l.k
	switch e.Op() {
	case expr.OpLe:
		return enc.indicator(l, constraint.RelLe, k), nil
	case expr.OpLt:
		return enc.indicator(l, constraint.RelLe, k-1), nil
	case expr.OpGe:
		return enc.indicator(l, constraint.RelGe, k), nil
	case expr.OpGt:
		return enc.indicator(l, constraint.RelGe, k+1), nil
	case expr.OpEq:
		t1 := enc.indicator(l, constraint.RelLe, k)
		t2 := enc.indicator(l, constraint.RelGe, k)
		return enc.tseitinAnd([]constraint.Lit{t1, t2}), nil
	default: // OpNe
		t1 := enc.indicator(l, constraint.RelLe, k-1)
		t2 := enc.indicator(l, constraint.RelGe, k+1)
		return enc.tseitinOr([]constraint.Lit{t1, t2}), nil
	}
}
