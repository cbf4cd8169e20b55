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

// sideDepth measures arithmetic nesting of a comparison side.
func sideDepth(e *expr.Expr) int {
	op := e.Op()
	if op == expr.OpVar || op == expr.OpConst {
		return 0
	}
	d := 0
	for _, k := range e.Children() {
		if kd := sideDepth(k); kd > d {
			d = kd
		}
	}
	return d + 1
}

func assertFlat(t *testing.T, cons []*expr.Expr) {
	t.Helper()
	for _, c := range cons {
		expr.Walk(c, func(n *expr.Expr) bool {
			if n.Op().IsComparison() {
				for _, side := range n.Children() {
					assert.LessOrEqual(t, sideDepth(side), 1, "side %s of %s too deep", side, n)
				}
				return false
			}
			return true
		})
	}
}

func TestFlattenNestedArithmetic(t *testing.T) {
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)
	z := expr.Int("z", 0, 3)
	c := x.Add(y.Mul(z)).Eq(expr.K(3))

	out, err := Flatten([]*expr.Expr{c})
	require.NoError(t, err)
	require.Len(t, out, 2, "one rewritten comparison plus one auxiliary definition")
	assertFlat(t, out)

	// the auxiliary's domain covers the product's interval
	def := out[1]
	require.Equal(t, expr.OpEq, def.Op())
	aux := def.Children()[0].Var()
	lo, hi := aux.Bounds()
	assert.Equal(t, int64(0), lo)
	assert.Equal(t, int64(9), hi)
}

func TestFlattenSharedSubtree(t *testing.T) {
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)
	prod := x.Mul(y)
	c1 := prod.Add(x).Ge(expr.K(1))
	c2 := prod.Sub(y).Le(expr.K(5))

	out, err := Flatten([]*expr.Expr{c1, c2})
	require.NoError(t, err)
	assertFlat(t, out)

	// both constraints must reference the same auxiliary for x*y
	auxOf := func(c *expr.Expr) *expr.Var {
		var aux *expr.Var
		for _, k := range c.Children()[0].Children() {
			if k.Op() == expr.OpVar && k.Var() != x.Var() && k.Var() != y.Var() {
				aux = k.Var()
			}
		}
		return aux
	}
	a1 := auxOf(out[0])
	a2 := auxOf(out[2])
	require.NotNil(t, a1)
	assert.Same(t, a1, a2)
}

func TestFlattenReifiesBoolSides(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")
	x := expr.Int("x", 0, 3)
	c := x.Eq(expr.Sum(a.Or(b), x))

	out, err := Flatten([]*expr.Expr{c})
	require.NoError(t, err)
	assertFlat(t, out)
	// the disjunction became a Boolean auxiliary with a definition
	found := false
	for _, fc := range out[1:] {
		if fc.Op() == expr.OpEq && fc.Children()[0].Op() == expr.OpVar && fc.Children()[0].IsBool() {
			found = true
		}
	}
	assert.True(t, found)
}

// Flattening preserves satisfaction: auxiliary values are functionally
// determined by their definitions, so deriving them from the original
// assignment and checking everything must agree with the original
// constraint.
func TestFlattenEquivalence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 400
	properties := gopter.NewProperties(parameters)

	properties.Property("projection onto original variables unchanged", prop.ForAll(
		func(xv, yv, zv int64) bool {
			x := expr.Int("x", 0, 3)
			y := expr.Int("y", 0, 3)
			z := expr.Int("z", 0, 3)
			orig := x.Add(y.Mul(z)).Sub(z.Abs()).Le(expr.Max(y, z.Add(x)))

			out, err := Flatten([]*expr.Expr{orig})
			if err != nil {
				return false
			}

			vals := map[*expr.Var]int64{x.Var(): xv, y.Var(): yv, z.Var(): zv}
			lookup := func(v *expr.Var) (int64, bool) {
				val, ok := vals[v]
				return val, ok
			}
			// derive auxiliaries from their defining equalities
			for pass := 0; pass < len(out); pass++ {
				for _, c := range out {
					if c.Op() != expr.OpEq || c.Children()[0].Op() != expr.OpVar {
						continue
					}
					aux := c.Children()[0].Var()
					if _, ok := vals[aux]; ok {
						continue
					}
					if val, ok := expr.Eval(c.Children()[1], lookup); ok {
						vals[aux] = val
					}
				}
			}

			want, ok := expr.Eval(orig, lookup)
			if !ok {
				return false
			}
			for _, c := range out {
				got, ok := expr.Eval(c, lookup)
				if !ok || got == 0 {
					return want == 0
				}
			}
			return want != 0
		},
		gen.Int64Range(0, 3), gen.Int64Range(0, 3), gen.Int64Range(0, 3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
