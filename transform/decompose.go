package transform

import (
	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

// The decomposition pass prefers native support: a global constraint
// the descriptor lists stays untouched (fewer, stronger constraints).
// Native pass-through is only sound where the constraint is asserted,
// so it is restricted to positive positions: the constraint root and
// conjuncts reachable through And. A global under negation,
// disjunction or reification is always decomposed.

type polarity uint8

const (
	polPos polarity = iota
	polMixed
)

type decomposer struct {
	caps   constraint.Capabilities
	a      *alloc
	extras []*expr.Expr
	memo   map[*expr.Expr]*expr.Expr // element replacements, keyed by shared node
}

func decompose(cons []*expr.Expr, caps constraint.Capabilities, a *alloc) ([]*expr.Expr, error) {
	d := &decomposer{
		caps: caps,
		a:    a,
		memo: make(map[*expr.Expr]*expr.Expr),
	}
	out := make([]*expr.Expr, 0, len(cons))
	for _, c := range cons {
		rc := d.rewrite(c, polPos)
		if err := rc.Err(); err != nil {
			return nil, err
		}
		out = append(out, rc)
		out = append(out, d.extras...)
		d.extras = d.extras[:0]
	}
	return out, nil
}

func (d *decomposer) rewrite(e *expr.Expr, pol polarity) *expr.Expr {
	switch op := e.Op(); {
	case op == expr.OpVar || op == expr.OpConst:
		return e

	case op == expr.OpAnd:
		// conjunction preserves assertion polarity
		return rebuild(e, d.rewriteKids(e, pol))

	case op == expr.OpElement:
		return d.rewriteElement(e)

	case op.IsGlobal():
		kids := d.rewriteKids(e, polMixed)
		if pol == polPos && d.caps.SupportsGlobal(op) {
			return rebuild(e, kids)
		}
		return d.rewrite(d.expand(rebuild(e, kids)), pol)

	default:
		return rebuild(e, d.rewriteKids(e, polMixed))
	}
}

func (d *decomposer) rewriteKids(e *expr.Expr, pol polarity) []*expr.Expr {
	kids := e.Children()
	out := make([]*expr.Expr, len(kids))
	changed := false
	for i, k := range kids {
		out[i] = d.rewrite(k, pol)
		if out[i] != k {
			changed = true
		}
	}
	if !changed {
		return kids
	}
	return out
}

// rebuild reconstructs a node over new children, reusing the original
// when nothing changed so sharing (and memoization keys) survive.
func rebuild(e *expr.Expr, kids []*expr.Expr) *expr.Expr {
	same := len(kids) == len(e.Children())
	if same {
		for i, k := range e.Children() {
			if kids[i] != k {
				same = false
				break
			}
		}
	}
	if same {
		return e
	}
	return expr.Rebuild(e, kids)
}

func (d *decomposer) expand(e *expr.Expr) *expr.Expr {
	switch e.Op() {
	case expr.OpAllDifferent:
		return expandAllDifferent(e.Children())
	case expr.OpTable:
		return expandTable(e)
	case expr.OpCumulative:
		return expandCumulative(e)
	case expr.OpCircuit:
		return d.expandCircuit(e.Children())
	}
	return e
}

// expandAllDifferent rewrites to pairwise inequalities.
func expandAllDifferent(xs []*expr.Expr) *expr.Expr {
	var parts []*expr.Expr
	for i := 0; i < len(xs); i++ {
		for j := i + 1; j < len(xs); j++ {
			parts = append(parts, xs[i].Ne(xs[j]))
		}
	}
	return expr.And(parts...)
}

// expandTable rewrites to a disjunction over rows of per-column
// equalities. A table with no rows is unsatisfiable.
func expandTable(e *expr.Expr) *expr.Expr {
	vars := e.Children()
	cells := e.Data()
	n := len(vars)
	var rows []*expr.Expr
	for r := 0; r+n <= len(cells); r += n {
		conj := make([]*expr.Expr, n)
		for i := 0; i < n; i++ {
			conj[i] = vars[i].Eq(expr.K(cells[r+i]))
		}
		rows = append(rows, expr.And(conj...))
	}
	return expr.Or(rows...)
}

// expandCumulative rewrites to a time-indexed load constraint: at each
// time point of the horizon, the summed demand of tasks covering it
// stays within capacity.
func expandCumulative(e *expr.Expr) *expr.Expr {
	starts := e.Children()
	data := e.Data()
	n := len(starts)
	capacity := data[0]
	durs := data[1 : 1+n]
	dems := data[1+n:]

	est, lct := int64(0), int64(0)
	for i, s := range starts {
		lo, hi := s.Bounds()
		if i == 0 || lo < est {
			est = lo
		}
		if i == 0 || hi+durs[i] > lct {
			lct = hi + durs[i]
		}
	}

	var parts []*expr.Expr
	for t := est; t < lct; t++ {
		var load []*expr.Expr
		for i, s := range starts {
			if dems[i] == 0 || durs[i] == 0 {
				continue
			}
			running := expr.And(s.Le(expr.K(t)), expr.K(t).Lt(s.Add(expr.K(durs[i]))))
			load = append(load, expr.K(dems[i]).Mul(running))
		}
		if len(load) == 0 {
			continue
		}
		parts = append(parts, expr.Sum(load...).Le(expr.K(capacity)))
	}
	return expr.And(parts...)
}

// expandCircuit rewrites successor variables into all-different plus
// position (order) variables: u[0] = 0 and following an edge i->j
// (j != 0) increments the position, which forbids subtours.
func (d *decomposer) expandCircuit(xs []*expr.Expr) *expr.Expr {
	n := len(xs)
	var parts []*expr.Expr
	parts = append(parts, expr.AllDifferent(xs...))
	for i, x := range xs {
		parts = append(parts, x.Ne(expr.K(int64(i))))
		parts = append(parts, x.Ge(expr.K(0)))
		parts = append(parts, x.Le(expr.K(int64(n-1))))
	}
	u := make([]*expr.Expr, n)
	for i := range u {
		u[i] = d.a.Int(0, int64(n-1))
	}
	parts = append(parts, u[0].Eq(expr.K(0)))
	for i := 0; i < n; i++ {
		for j := 1; j < n; j++ {
			if i == j {
				continue
			}
			parts = append(parts, xs[i].Eq(expr.K(int64(j))).Implies(u[j].Eq(u[i].Add(expr.K(1)))))
		}
	}
	return expr.And(parts...)
}

// rewriteElement replaces arr[idx] with an auxiliary result variable
// defined by indexed implications, unless the target supports element
// natively. Shared element nodes map to the same auxiliary.
func (d *decomposer) rewriteElement(e *expr.Expr) *expr.Expr {
	if r, ok := d.memo[e]; ok {
		return r
	}
	kids := d.rewriteKids(e, polMixed)
	if d.caps.SupportsGlobal(expr.OpElement) {
		r := rebuild(e, kids)
		d.memo[e] = r
		return r
	}
	idx, arr := kids[0], kids[1:]
	lo, hi := e.Bounds()
	r := d.a.Int(lo, hi)
	d.extras = append(d.extras,
		idx.Ge(expr.K(0)),
		idx.Le(expr.K(int64(len(arr)-1))),
	)
	for i, cell := range arr {
		d.extras = append(d.extras, idx.Eq(expr.K(int64(i))).Implies(cell.Eq(r)))
	}
	d.memo[e] = r
	return r
}
