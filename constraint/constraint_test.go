package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinal-go/cardinal/expr"
)

func TestLit(t *testing.T) {
	b := expr.Bool("b")
	l := Pos(b.Var())
	assert.False(t, l.Neg)
	assert.True(t, l.Negate().Neg)
	assert.True(t, l.Holds(1))
	assert.False(t, l.Holds(0))
	assert.True(t, l.Negate().Holds(0))
	assert.Equal(t, "b", l.String())
	assert.Equal(t, "!b", l.Negate().String())
}

func TestLitOf(t *testing.T) {
	b := expr.Bool("b")
	x := expr.Int("x", 0, 3)

	l, err := LitOf(b)
	require.NoError(t, err)
	assert.Equal(t, b.Var(), l.Var)
	assert.False(t, l.Neg)

	l, err = LitOf(expr.Not(b))
	require.NoError(t, err)
	assert.True(t, l.Neg)

	_, err = LitOf(x)
	assert.ErrorIs(t, err, expr.ErrTypeMismatch)
	_, err = LitOf(b.And(b))
	assert.ErrorIs(t, err, expr.ErrTypeMismatch)
	_, err = LitOf(nil)
	assert.ErrorIs(t, err, expr.ErrValidation)
}

func TestLinearEval(t *testing.T) {
	x := expr.Int("x", 0, 5).Var()
	y := expr.Int("y", 0, 5).Var()
	c := Linear{Coeffs: []int64{2, -1}, Vars: []*expr.Var{x, y}, Rel: RelLe, K: 3}

	assign := func(vals map[*expr.Var]int64) func(*expr.Var) (int64, bool) {
		return func(v *expr.Var) (int64, bool) {
			val, ok := vals[v]
			return val, ok
		}
	}

	ok, defined := c.Eval(assign(map[*expr.Var]int64{x: 1, y: 0}))
	require.True(t, defined)
	assert.True(t, ok) // 2 <= 3

	ok, defined = c.Eval(assign(map[*expr.Var]int64{x: 3, y: 1}))
	require.True(t, defined)
	assert.False(t, ok) // 5 > 3

	_, defined = c.Eval(assign(map[*expr.Var]int64{x: 3}))
	assert.False(t, defined)
}

func TestScopeDedup(t *testing.T) {
	a := expr.Bool("a").Var()
	b := expr.Bool("b").Var()
	c := Clause{Lits: []Lit{Pos(a), Not(b), Not(a)}}
	assert.Equal(t, []*expr.Var{a, b}, c.Scope())
}

func TestEqualAndHash(t *testing.T) {
	a := expr.Bool("a").Var()
	b := expr.Bool("b").Var()
	x := expr.Int("x", 0, 5).Var()

	c1 := Clause{Lits: []Lit{Pos(a), Not(b)}}
	c2 := Clause{Lits: []Lit{Pos(a), Not(b)}}
	c3 := Clause{Lits: []Lit{Not(b), Pos(a)}}
	assert.True(t, Equal(c1, c2))
	assert.Equal(t, c1.Hash(), c2.Hash())
	assert.False(t, Equal(c1, c3), "literal order is part of identity")

	l1 := Linear{Coeffs: []int64{1}, Vars: []*expr.Var{x}, Rel: RelGe, K: 2}
	l2 := Linear{Coeffs: []int64{1}, Vars: []*expr.Var{x}, Rel: RelGe, K: 2}
	l3 := Linear{Coeffs: []int64{1}, Vars: []*expr.Var{x}, Rel: RelLe, K: 2}
	assert.True(t, Equal(l1, l2))
	assert.Equal(t, l1.Hash(), l2.Hash())
	assert.False(t, Equal(l1, l3))
	assert.False(t, Equal(c1, l1))

	xe := x.Expr()
	cmp1 := Comparison{E: xe.Ge(expr.K(2))}
	cmp2 := Comparison{E: xe.Ge(expr.K(2))}
	assert.True(t, Equal(cmp1, cmp2))
	assert.Equal(t, cmp1.Hash(), cmp2.Hash())
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities{
		SupportedGlobals: map[expr.Op]bool{expr.OpAllDifferent: true},
		MaxIntDomain:     Bound(1),
	}
	assert.True(t, caps.SupportsGlobal(expr.OpAllDifferent))
	assert.False(t, caps.SupportsGlobal(expr.OpCircuit))

	assert.True(t, caps.FitsDomain(expr.Bool("b").Var()))
	assert.False(t, caps.FitsDomain(expr.Int("x", 0, 3).Var()))
	caps.MaxIntDomain = nil
	assert.True(t, caps.FitsDomain(expr.Int("x", -1000, 1000).Var()))
}

func TestObjectiveValue(t *testing.T) {
	x := expr.Int("x", 0, 5).Var()
	y := expr.Int("y", 0, 5).Var()
	o := Objective{Sense: Maximize, Coeffs: []int64{2, 3}, Vars: []*expr.Var{x, y}, Offset: -1}

	val, ok := o.Value(func(v *expr.Var) (int64, bool) {
		return map[*expr.Var]int64{x: 1, y: 2}[v], true
	})
	require.True(t, ok)
	assert.Equal(t, int64(7), val)
}
