package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinal-go/cardinal/constraint"
	"github.com/cardinal-go/cardinal/expr"
)

var (
	clauseCaps = constraint.Capabilities{NativeClauses: true}
	linearCaps = constraint.Capabilities{NativeLinear: true}
	cpCaps     = constraint.Capabilities{}
)

func TestEncodeClauses(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")
	c := expr.Bool("c")

	out, err := Encode(Normalize([]*expr.Expr{
		a.Or(expr.Not(b)),
		expr.And(a, c),
		expr.Not(b),
	}), clauseCaps, "sat")
	require.NoError(t, err)
	for _, nf := range out {
		assert.Equal(t, constraint.ShapeClause, nf.Shape())
	}
	// (a | !b), a, c, !b: conjunction splits, no auxiliaries needed
	require.Len(t, out, 4)
	first := out[0].(constraint.Clause)
	require.Len(t, first.Lits, 2)
	assert.Equal(t, a.Var(), first.Lits[0].Var)
	assert.Equal(t, b.Var(), first.Lits[1].Var)
	assert.True(t, first.Lits[1].Neg)
}

func TestEncodeTseitinSharing(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")
	c := expr.Bool("c")
	// nested structure under a disjunction forces an auxiliary
	f := expr.Or(expr.And(a, b), c)

	out, err := Encode([]*expr.Expr{f}, clauseCaps, "sat")
	require.NoError(t, err)
	// t <-> (a & b): 3 clauses, plus the top clause (t | c)
	require.Len(t, out, 4)
	top := out[len(out)-1].(constraint.Clause)
	require.Len(t, top.Lits, 2)
	assert.Equal(t, c.Var(), top.Lits[1].Var)
}

func TestEncodeClauseRejectsIntegers(t *testing.T) {
	x := expr.Int("x", 0, 3)
	_, err := Encode([]*expr.Expr{x.Ge(expr.K(1))}, clauseCaps, "sat")
	require.ErrorIs(t, err, ErrUnsupportedOperator)
	assert.Contains(t, err.Error(), "sat")
}

func TestEncodeBoolComparisonAsClauses(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")

	out, err := Encode([]*expr.Expr{a.Eq(b)}, clauseCaps, "sat")
	require.NoError(t, err)
	require.Len(t, out, 2) // (!a | b) and (a | !b)
	for _, nf := range out {
		assert.Equal(t, constraint.ShapeClause, nf.Shape())
	}
}

func TestEncodeLinearComparisons(t *testing.T) {
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)

	out, err := Encode([]*expr.Expr{x.Add(y).Eq(expr.K(3))}, linearCaps, "mip")
	require.NoError(t, err)
	require.Len(t, out, 1)
	lin := out[0].(constraint.Linear)
	assert.Equal(t, constraint.RelEq, lin.Rel)
	assert.Equal(t, []int64{1, 1}, lin.Coeffs)
	assert.Equal(t, int64(3), lin.K)

	// strict comparison tightens the bound
	out, err = Encode([]*expr.Expr{x.Lt(y)}, linearCaps, "mip")
	require.NoError(t, err)
	lin = out[0].(constraint.Linear)
	assert.Equal(t, constraint.RelLe, lin.Rel)
	assert.Equal(t, []int64{1, -1}, lin.Coeffs)
	assert.Equal(t, int64(-1), lin.K)

	// coefficients of a repeated variable merge
	out, err = Encode([]*expr.Expr{x.Add(x).Le(x.Add(expr.K(1)))}, linearCaps, "mip")
	require.NoError(t, err)
	lin = out[0].(constraint.Linear)
	assert.Equal(t, []int64{1}, lin.Coeffs)
	assert.Equal(t, int64(1), lin.K)
}

func TestEncodeLinearClauseForm(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")

	out, err := Encode([]*expr.Expr{a.Or(expr.Not(b))}, linearCaps, "mip")
	require.NoError(t, err)
	require.Len(t, out, 1)
	lin := out[0].(constraint.Linear)
	// a + (1-b) >= 1, i.e. a - b >= 0
	assert.Equal(t, constraint.RelGe, lin.Rel)
	assert.Equal(t, []int64{1, -1}, lin.Coeffs)
	assert.Equal(t, int64(0), lin.K)
}

func TestEncodeLinearRejectsProducts(t *testing.T) {
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)
	_, err := Encode([]*expr.Expr{x.Mul(y).Le(expr.K(4))}, linearCaps, "mip")
	require.ErrorIs(t, err, ErrUnsupportedOperator)
	assert.Contains(t, err.Error(), "product of two variables")
}

func TestEncodeCP(t *testing.T) {
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)
	a := expr.Bool("a")

	out, err := Encode([]*expr.Expr{x.Lt(y)}, cpCaps, "cp")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, constraint.ShapeComparison, out[0].Shape())

	// a comparison under a disjunction gets reified
	out, err = Encode([]*expr.Expr{expr.Or(a, x.Lt(y))}, cpCaps, "cp")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, constraint.ShapeComparison, out[0].Shape())
	cl, ok := out[1].(constraint.Clause)
	require.True(t, ok)
	assert.Len(t, cl.Lits, 2)
}

func TestEncodeGlobalPassThrough(t *testing.T) {
	xs := expr.Ints("x", 3, 0, 2)
	ad := expr.AllDifferent(xs...)

	out, err := Encode([]*expr.Expr{ad}, cpCaps, "cp")
	require.NoError(t, err)
	require.Len(t, out, 1)
	g, ok := out[0].(constraint.Global)
	require.True(t, ok)
	assert.Same(t, ad, g.E)
}

func TestEncodeConstants(t *testing.T) {
	out, err := Encode([]*expr.Expr{expr.True()}, clauseCaps, "sat")
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = Encode([]*expr.Expr{expr.False()}, clauseCaps, "sat")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Empty(t, out[0].(constraint.Clause).Lits)

	out, err = Encode([]*expr.Expr{expr.False()}, linearCaps, "mip")
	require.NoError(t, err)
	require.Len(t, out, 1)
	lin := out[0].(constraint.Linear)
	assert.Empty(t, lin.Vars)
	assert.Equal(t, int64(1), lin.K)
}
