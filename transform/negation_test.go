package transform

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinal-go/cardinal/expr"
)

func TestNormalizeComparisonFlip(t *testing.T) {
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)

	out := Normalize([]*expr.Expr{expr.Not(x.Lt(y))})
	require.Len(t, out, 1)
	assert.Equal(t, expr.OpGe, out[0].Op())

	out = Normalize([]*expr.Expr{expr.Not(x.Eq(y))})
	assert.Equal(t, expr.OpNe, out[0].Op())
}

func TestNormalizeDeMorgan(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")

	out := Normalize([]*expr.Expr{expr.Not(a.And(b))})
	require.Len(t, out, 1)
	root := out[0]
	assert.Equal(t, expr.OpOr, root.Op())
	for _, k := range root.Children() {
		assert.Equal(t, expr.OpNot, k.Op())
		assert.Equal(t, expr.OpVar, k.Children()[0].Op())
	}
}

func TestNormalizeEliminatesImpliesAndXor(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")
	x := expr.Int("x", 0, 3)

	for _, c := range []*expr.Expr{
		a.Implies(b),
		expr.Not(a.Implies(b)),
		a.Xor(b),
		expr.Not(a.Xor(b)),
		a.Implies(b.Xor(expr.Not(a))),
		expr.Not(expr.Not(a.Or(b)).Or(x.Ge(expr.K(1)))),
	} {
		out := Normalize([]*expr.Expr{c})
		require.Len(t, out, 1)
		expr.Walk(out[0], func(n *expr.Expr) bool {
			assert.NotEqual(t, expr.OpImplies, n.Op())
			assert.NotEqual(t, expr.OpXor, n.Op())
			if n.Op() == expr.OpNot {
				assert.Equal(t, expr.OpVar, n.Children()[0].Op(), "negation pushed down to leaves in %s", out[0])
			}
			return true
		})
	}
}

// Normalization must preserve truth on every assignment.
func TestNormalizeEquivalence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("nnf(e) == e pointwise", prop.ForAll(
		func(av, bv, cv bool, xv, yv int64, shape int64) bool {
			a := expr.Bool("a")
			b := expr.Bool("b")
			c := expr.Bool("c")
			x := expr.Int("x", 0, 3)
			y := expr.Int("y", 0, 3)

			forms := []*expr.Expr{
				expr.Not(a.And(b.Or(expr.Not(c)))),
				a.Implies(b.Implies(c)),
				expr.Not(a.Xor(b.Xor(c))),
				expr.Not(x.Lt(y).Or(expr.Not(a))),
				a.Eq(b.Or(c)),
				expr.Not(a.Eq(x.Le(y))),
				expr.Not(expr.Not(a.Implies(expr.Not(b)))),
			}
			f := forms[int(shape)%len(forms)]

			vals := map[*expr.Var]int64{
				a.Var(): b2i(av), b.Var(): b2i(bv), c.Var(): b2i(cv),
				x.Var(): xv, y.Var(): yv,
			}
			lookup := func(v *expr.Var) (int64, bool) {
				val, ok := vals[v]
				return val, ok
			}

			want, ok1 := expr.Eval(f, lookup)
			got, ok2 := expr.Eval(Normalize([]*expr.Expr{f})[0], lookup)
			return ok1 && ok2 && (want != 0) == (got != 0)
		},
		gen.Bool(), gen.Bool(), gen.Bool(),
		gen.Int64Range(0, 3), gen.Int64Range(0, 3),
		gen.Int64Range(0, 1<<30),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
