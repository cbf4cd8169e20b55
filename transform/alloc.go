package transform

import (
	"fmt"

	"github.com/cardinal-go/cardinal/expr"
)

// alloc hands out fresh auxiliary variables for one compilation run.
// Auxiliary variables are existentially quantified: they are declared
// to the backend but never surfaced in results.
type alloc struct {
	n int
}

func newAlloc() *alloc { return &alloc{} }

func (a *alloc) count() int { return a.n }

// Int allocates an auxiliary integer variable. Bounds come from the
// defining expression's cached interval, so they are conservative and
// never exclude a valid solution.
func (a *alloc) Int(lo, hi int64) *expr.Expr {
	a.n++
	return expr.Int(fmt.Sprintf("_iv%d", a.n), lo, hi)
}

// Bool allocates an auxiliary Boolean variable.
func (a *alloc) Bool() *expr.Expr {
	a.n++
	return expr.Bool(fmt.Sprintf("_bv%d", a.n))
}
