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

func TestDedup(t *testing.T) {
	a := expr.Bool("a")
	b := expr.Bool("b")

	c1 := constraint.Clause{Lits: []constraint.Lit{constraint.Pos(a.Var()), constraint.Not(b.Var())}}
	c2 := constraint.Clause{Lits: []constraint.Lit{constraint.Pos(a.Var())}}
	c3 := constraint.Clause{Lits: []constraint.Lit{constraint.Pos(a.Var()), constraint.Not(b.Var())}}

	out := Dedup([]constraint.Constraint{c1, c2, c3, c2})
	require.Len(t, out, 2)
	assert.True(t, constraint.Equal(out[0], c1))
	assert.True(t, constraint.Equal(out[1], c2))
}

func TestDedupIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	vars := make([]*expr.Var, 4)
	for i, e := range expr.Bools("p", 4) {
		vars[i] = e.Var()
	}

	genLit := gopter.CombineGens(gen.IntRange(0, 3), gen.Bool()).
		Map(func(vs []interface{}) constraint.Lit {
			return constraint.Lit{Var: vars[vs[0].(int)], Neg: vs[1].(bool)}
		})
	genClause := gen.SliceOfN(3, genLit).Map(func(ls []constraint.Lit) constraint.Constraint {
		return constraint.Clause{Lits: ls}
	})

	properties.Property("dedup is idempotent and order-preserving", prop.ForAll(
		func(cs []constraint.Constraint) bool {
			once := Dedup(cs)
			twice := Dedup(once)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if !constraint.Equal(once[i], twice[i]) {
					return false
				}
			}
			// every survivor is distinct from every earlier survivor
			for i := range once {
				for j := 0; j < i; j++ {
					if constraint.Equal(once[i], once[j]) {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(genClause),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCompileRejectsInvalidInput(t *testing.T) {
	p := NewPipeline("cp", cpCaps)
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)

	_, err := p.Compile([]*expr.Expr{nil}, nil)
	require.ErrorIs(t, err, expr.ErrValidation)

	_, err = p.Compile([]*expr.Expr{x.Add(y)}, nil)
	require.ErrorIs(t, err, expr.ErrValidation)

	// poisoned expressions surface their construction error
	_, err = p.Compile([]*expr.Expr{expr.And(x, y)}, nil)
	require.ErrorIs(t, err, expr.ErrTypeMismatch)

	// a bare objective expression must carry a direction
	_, err = p.Compile(nil, x.Add(y))
	require.ErrorIs(t, err, expr.ErrValidation)
}

func TestCompileDomainGate(t *testing.T) {
	caps := constraint.Capabilities{NativeClauses: true, MaxIntDomain: constraint.Bound(1)}
	p := NewPipeline("sat", caps)

	x := expr.Int("wide", 0, 10)
	_, err := p.Compile([]*expr.Expr{x.Ge(expr.K(1))}, nil)
	require.ErrorIs(t, err, ErrUnsupportedOperator)
	assert.Contains(t, err.Error(), "wide")
	assert.Contains(t, err.Error(), "sat")
}

func TestCompileLinearObjective(t *testing.T) {
	p := NewPipeline("mip", linearCaps)
	x := expr.Int("x", 0, 5)
	y := expr.Int("y", 0, 5)

	compiled, err := p.Compile(
		[]*expr.Expr{x.Add(y).Ge(expr.K(2))},
		expr.Minimize(x.Add(y)),
	)
	require.NoError(t, err)
	require.NotNil(t, compiled.Objective)
	obj := compiled.Objective
	assert.Equal(t, constraint.Minimize, obj.Sense)
	assert.Equal(t, []int64{1, 1}, obj.Coeffs)
	assert.Equal(t, []*expr.Var{x.Var(), y.Var()}, obj.Vars)
	assert.Equal(t, int64(0), obj.Offset)
	require.Len(t, compiled.Constraints, 1)
}

func TestCompileNonlinearObjective(t *testing.T) {
	p := NewPipeline("cp", cpCaps)
	x := expr.Int("x", 0, 3)
	y := expr.Int("y", 0, 3)

	compiled, err := p.Compile(
		[]*expr.Expr{x.Le(y)},
		expr.Maximize(x.Mul(y)),
	)
	require.NoError(t, err)
	require.NotNil(t, compiled.Objective)
	obj := compiled.Objective
	assert.Equal(t, constraint.Maximize, obj.Sense)
	require.Len(t, obj.Vars, 1)
	aux := obj.Vars[0]
	assert.NotSame(t, x.Var(), aux)
	assert.NotSame(t, y.Var(), aux)
	lo, hi := aux.Bounds()
	assert.LessOrEqual(t, lo, int64(0))
	assert.GreaterOrEqual(t, hi, int64(9))

	// the defining constraint ties the auxiliary to the product
	found := false
	for _, c := range compiled.Constraints {
		cmp, ok := c.(constraint.Comparison)
		if !ok {
			continue
		}
		for _, v := range cmp.Scope() {
			if v == aux {
				found = true
			}
		}
	}
	assert.True(t, found, "no defining constraint mentions the objective auxiliary")
}

func TestCompileEndToEndSAT(t *testing.T) {
	p := NewPipeline("sat", clauseCaps)
	a := expr.Bool("a")
	b := expr.Bool("b")
	c := expr.Bool("c")

	compiled, err := p.Compile([]*expr.Expr{
		a.Implies(b),
		expr.Not(expr.And(b, c)),
		a.Implies(b), // duplicate, removed by dedup
	}, nil)
	require.NoError(t, err)
	require.Len(t, compiled.Constraints, 2)
	for _, nf := range compiled.Constraints {
		assert.Equal(t, constraint.ShapeClause, nf.Shape())
	}
	assert.Nil(t, compiled.Objective)
}

func TestCompileDecomposesForClauseTarget(t *testing.T) {
	p := NewPipeline("sat", clauseCaps)
	xs := expr.Bools("q", 2)

	// alldifferent over two Booleans decomposes to a disequality,
	// which the Boolean rewrite turns into clauses
	compiled, err := p.Compile([]*expr.Expr{expr.AllDifferent(xs...)}, nil)
	require.NoError(t, err)
	require.NotEmpty(t, compiled.Constraints)
	for _, nf := range compiled.Constraints {
		assert.Equal(t, constraint.ShapeClause, nf.Shape())
	}
}
