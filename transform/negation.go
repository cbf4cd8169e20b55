package transform

import "github.com/cardinal-go/cardinal/expr"

// Negation normal form: push negation through connectives (De Morgan)
// and into comparisons (not(a<b) becomes a>=b), and eliminate implies
// and xor, so that afterwards negation only appears directly on
// Boolean variable leaves. Clause and linear encoders rely on this.

func nnf(e *expr.Expr, neg bool) *expr.Expr {
	kids := e.Children()
	switch op := e.Op(); op {
	case expr.OpNot:
		return nnf(kids[0], !neg)

	case expr.OpAnd, expr.OpOr:
		out := make([]*expr.Expr, len(kids))
		for i, k := range kids {
			out[i] = nnf(k, neg)
		}
		if (op == expr.OpAnd) != neg {
			return expr.And(out...)
		}
		return expr.Or(out...)

	case expr.OpImplies:
		a, b := kids[0], kids[1]
		if neg {
			// not(a -> b) == a and not b
			return expr.And(nnf(a, false), nnf(b, true))
		}
		return expr.Or(nnf(a, true), nnf(b, false))

	case expr.OpXor:
		a, b := kids[0], kids[1]
		if neg {
			// not(a xor b) == (not a or b) and (a or not b)
			return expr.And(
				expr.Or(nnf(a, true), nnf(b, false)),
				expr.Or(nnf(a, false), nnf(b, true)),
			)
		}
		return expr.And(
			expr.Or(nnf(a, false), nnf(b, false)),
			expr.Or(nnf(a, true), nnf(b, true)),
		)

	case expr.OpVar:
		if neg {
			return expr.Not(e)
		}
		return e

	case expr.OpConst:
		if neg {
			if e.Const() == 0 {
				return expr.K(1)
			}
			return expr.K(0)
		}
		return e

	case expr.OpEq:
		// Boolean equality is reification; normalize the inner
		// structure of each side but keep the comparison itself.
		if kids[0].IsBool() && kids[1].IsBool() && (isCompound(kids[0]) || isCompound(kids[1])) {
			a, b := nnfSide(kids[0]), nnfSide(kids[1])
			out := a.Eq(b)
			if neg {
				return a.Ne(b)
			}
			return out
		}
	}

	op := e.Op()
	if op.IsComparison() {
		if neg {
			return flipNode(e)
		}
		return e
	}
	// globals reaching this pass are native pass-throughs in positive
	// position; decomposition removed every negated one
	return e
}

func isCompound(e *expr.Expr) bool {
	op := e.Op()
	return op.IsConnective() || op.IsComparison() || op.IsGlobal()
}

// nnfSide normalizes a Boolean side of a reifying comparison.
func nnfSide(e *expr.Expr) *expr.Expr {
	if e.Op().IsGlobal() {
		return e
	}
	return nnf(e, false)
}

// flipNode returns a node shell carrying the negated comparison
// operator, for Rebuild.
func flipNode(e *expr.Expr) *expr.Expr {
	kids := e.Children()
	switch e.Op().Negated() {
	case expr.OpEq:
		return kids[0].Eq(kids[1])
	case expr.OpNe:
		return kids[0].Ne(kids[1])
	case expr.OpLt:
		return kids[0].Lt(kids[1])
	case expr.OpLe:
		return kids[0].Le(kids[1])
	case expr.OpGt:
		return kids[0].Gt(kids[1])
	default:
		return kids[0].Ge(kids[1])
	}
}
