package transform

import (
	"fmt"

	"github.com/cardinal-go/cardinal/expr"
)

// The flattening pass bounds expression depth: afterwards every
// comparison has at most one level of arithmetic nesting per side and
// every global constraint ranges over leaves. Deeper nesting is cut by
// fresh auxiliary variables bound by equality constraints, whose
// domains come from the subexpression's cached interval bounds.
// Rewrites of shared subtrees are memoized so a DAG keeps its sharing:
// the same subexpression always maps to the same auxiliary.

type flattener struct {
	a    *alloc
	defs []*expr.Expr
	memo map[*expr.Expr]*expr.Expr
}

func flatten(cons []*expr.Expr, a *alloc) ([]*expr.Expr, error) {
	f := &flattener{a: a, memo: make(map[*expr.Expr]*expr.Expr)}
	out := make([]*expr.Expr, 0, len(cons))
	for _, c := range cons {
		fc := f.bool(c)
		if err := fc.Err(); err != nil {
			return nil, err
		}
		out = append(out, fc)
		for _, def := range f.defs {
			if err := def.Err(); err != nil {
				return nil, fmt.Errorf("flattening %s: %w", c, err)
			}
			out = append(out, def)
		}
		f.defs = f.defs[:0]
	}
	return out, nil
}

// bool flattens a Boolean-valued node.
func (f *flattener) bool(e *expr.Expr) *expr.Expr {
	op := e.Op()
	switch {
	case op == expr.OpVar || op == expr.OpConst:
		return e
	case op.IsConnective():
		kids := e.Children()
		out := make([]*expr.Expr, len(kids))
		for i, k := range kids {
			out[i] = f.bool(k)
		}
		return rebuild(e, out)
	case op.IsComparison():
		kids := e.Children()
		return rebuild(e, []*expr.Expr{f.side(kids[0]), f.side(kids[1])})
	case op.IsGlobal():
		kids := e.Children()
		out := make([]*expr.Expr, len(kids))
		for i, k := range kids {
			out[i] = f.leaf(k)
		}
		return rebuild(e, out)
	}
	return e
}

// side flattens one side of a comparison to at most one arithmetic
// level.
func (f *flattener) side(e *expr.Expr) *expr.Expr {
	op := e.Op()
	switch {
	case op == expr.OpVar || op == expr.OpConst:
		return e
	case op.IsComparison() || op.IsConnective() || (op.IsGlobal() && op != expr.OpElement):
		return f.boolLeaf(e)
	default: // arithmetic or element
		kids := e.Children()
		out := make([]*expr.Expr, len(kids))
		for i, k := range kids {
			out[i] = f.leaf(k)
		}
		return rebuild(e, out)
	}
}

// leaf flattens an expression all the way down to a variable or
// constant, introducing an auxiliary when needed.
func (f *flattener) leaf(e *expr.Expr) *expr.Expr {
	op := e.Op()
	if op == expr.OpVar || op == expr.OpConst {
		return e
	}
	if r, ok := f.memo[e]; ok {
		return r
	}
	if op.IsComparison() || op.IsConnective() || (op.IsGlobal() && op != expr.OpElement) {
		return f.boolLeaf(e)
	}
	flat := f.side(e)
	lo, hi := flat.Bounds()
	aux := f.a.Int(lo, hi)
	f.defs = append(f.defs, aux.Eq(flat))
	f.memo[e] = aux
	return aux
}

// boolLeaf reifies a Boolean subexpression into a fresh Boolean
// variable equated with the flattened subexpression.
func (f *flattener) boolLeaf(e *expr.Expr) *expr.Expr {
	if r, ok := f.memo[e]; ok {
		return r
	}
	t := f.a.Bool()
	f.defs = append(f.defs, t.Eq(f.bool(e)))
	f.memo[e] = t
	return t
}
