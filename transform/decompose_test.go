package transform

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

func capsWith(globals ...expr.Op) constraint.Capabilities {
	m := make(map[expr.Op]bool, len(globals))
	for _, op := range globals {
		m[op] = true
	}
	return constraint.Capabilities{SupportedGlobals: m}
}

func TestDecomposeNativePassThrough(t *testing.T) {
	xs := expr.Ints("x", 3, 0, 2)
	ad := expr.AllDifferent(xs...)

	out, err := Decompose([]*expr.Expr{ad}, capsWith(expr.OpAllDifferent))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Same(t, ad, out[0])
}

func TestDecomposeAllDifferent(t *testing.T) {
	xs := expr.Ints("x", 3, 0, 2)
	ad := expr.AllDifferent(xs...)

	out, err := Decompose([]*expr.Expr{ad}, capsWith())
	require.NoError(t, err)
	require.Len(t, out, 1)
	conj := out[0]
	assert.Equal(t, expr.OpAnd, conj.Op())
	assert.Len(t, conj.Children(), 3) // one inequality per pair
	for _, k := range conj.Children() {
		assert.Equal(t, expr.OpNe, k.Op())
	}
}

// A natively supported global under negation must still be decomposed:
// pass-through is only sound where the constraint is asserted.
func TestDecomposeNegatedGlobal(t *testing.T) {
	xs := expr.Ints("x", 2, 0, 2)
	neg := expr.Not(expr.AllDifferent(xs...))

	out, err := Decompose([]*expr.Expr{neg}, capsWith(expr.OpAllDifferent))
	require.NoError(t, err)
	require.Len(t, out, 1)
	found := false
	expr.Walk(out[0], func(n *expr.Expr) bool {
		if n.Op().IsGlobal() {
			found = true
		}
		return true
	})
	assert.False(t, found, "no global may survive under negation")
}

func TestDecomposeElementOrder(t *testing.T) {
	xs := expr.Ints("x", 3, 0, 5)
	idx := expr.Int("i", 0, 5)
	first := xs[0].Ge(expr.K(0))
	elem := expr.Element(xs, idx).Eq(expr.K(2))
	last := xs[1].Ge(expr.K(0))

	out, err := Decompose([]*expr.Expr{first, elem, last}, capsWith())
	require.NoError(t, err)
	// replacements of the element constraint sit contiguously at its
	// position; untouched neighbours keep theirs
	assert.Same(t, first, out[0])
	assert.Same(t, last, out[len(out)-1])
	assert.Greater(t, len(out), 3, "element decomposition adds index bounds and implications")
}

func TestDecomposeSharedElement(t *testing.T) {
	xs := expr.Ints("x", 3, 0, 5)
	idx := expr.Int("i", 0, 5)
	el := expr.Element(xs, idx)
	c1 := el.Ge(expr.K(1))
	c2 := el.Le(expr.K(4))

	out, err := Decompose([]*expr.Expr{c1, c2}, capsWith())
	require.NoError(t, err)
	var g1, g2 *expr.Var
	for _, c := range out {
		kids := c.Children()
		if len(kids) != 2 || kids[0].Op() != expr.OpVar || kids[1].Op() != expr.OpConst {
			continue
		}
		if c.Op() == expr.OpGe && kids[1].Const() == 1 {
			g1 = kids[0].Var()
		}
		if c.Op() == expr.OpLe && kids[1].Const() == 4 {
			g2 = kids[0].Var()
		}
	}
	require.NotNil(t, g1)
	assert.Same(t, g1, g2, "a shared element node maps to one auxiliary")
}

// Decompositions that introduce no auxiliaries must agree with the
// original global on every assignment.
func TestDecompositionSoundness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	eval := func(e *expr.Expr, vals []int64, vars []*expr.Expr) (int64, bool) {
		return expr.Eval(e, func(v *expr.Var) (int64, bool) {
			for i, x := range vars {
				if x.Var() == v {
					return vals[i], true
				}
			}
			return 0, false
		})
	}

	properties.Property("pairwise decomposition == alldifferent", prop.ForAll(
		func(a, b, c int64) bool {
			xs := expr.Ints("x", 3, 0, 3)
			ad := expr.AllDifferent(xs...)
			out, err := Decompose([]*expr.Expr{ad}, capsWith())
			if err != nil || len(out) != 1 {
				return false
			}
			vals := []int64{a, b, c}
			want, ok1 := eval(ad, vals, xs)
			got, ok2 := eval(out[0], vals, xs)
			return ok1 && ok2 && want == got
		},
		gen.Int64Range(0, 3), gen.Int64Range(0, 3), gen.Int64Range(0, 3),
	))

	properties.Property("row decomposition == table", prop.ForAll(
		func(a, b int64) bool {
			xs := expr.Ints("y", 2, 0, 2)
			tbl := expr.Table(xs, [][]int64{{0, 2}, {1, 1}, {2, 0}})
			out, err := Decompose([]*expr.Expr{tbl}, capsWith())
			if err != nil || len(out) != 1 {
				return false
			}
			vals := []int64{a, b}
			want, ok1 := eval(tbl, vals, xs)
			got, ok2 := eval(out[0], vals, xs)
			return ok1 && ok2 && want == got
		},
		gen.Int64Range(0, 2), gen.Int64Range(0, 2),
	))

	properties.Property("time-indexed decomposition == cumulative", prop.ForAll(
		func(s1, s2 int64) bool {
			starts := expr.Ints("s", 2, 0, 3)
			cum := expr.Cumulative(starts, []int64{2, 1}, []int64{1, 1}, 1)
			out, err := Decompose([]*expr.Expr{cum}, capsWith())
			if err != nil || len(out) != 1 {
				return false
			}
			vals := []int64{s1, s2}
			want, ok1 := eval(cum, vals, starts)
			got, ok2 := eval(out[0], vals, starts)
			return ok1 && ok2 && want == got
		},
		gen.Int64Range(0, 3), gen.Int64Range(0, 3),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
