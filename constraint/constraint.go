// Package constraint defines the normal-form constraint vocabulary
// produced by the transformation pipeline and consumed by solver
// adapters, together with the capability descriptor adapters use to
// declare which shapes they accept.
package constraint

import (
	"fmt"
	"strings"

	"github.com/cardinal-go/cardinal/expr"
)

// Shape identifies one of the fixed normal-form constraint shapes.
type Shape uint8

const (
	ShapeUnknown Shape = iota
	// ShapeClause is a disjunction of Boolean literals.
	ShapeClause
	// ShapeLinear is sum(coeff_i * var_i) REL k with integer coefficients.
	ShapeLinear
	// ShapeComparison is a flattened comparison: each side is a
	// variable, a constant or a single operator over leaves.
	ShapeComparison
	// ShapeGlobal is a global constraint passed through natively.
	ShapeGlobal
)

func (s Shape) String() string {
	switch s {
	case ShapeClause:
		return "clause"
	case ShapeLinear:
		return "linear"
	case ShapeComparison:
		return "comparison"
	case ShapeGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// A Constraint is one unit of pipeline output. Every Constraint is
// semantically equivalent to the source expression it was rewritten
// from, under the same assignment of the original variables.
type Constraint interface {
	Shape() Shape
	// Hash is a structural hash used by the deduplication pass.
	Hash() uint64
	// Scope returns the distinct decision variables the constraint
	// mentions, in first-seen order.
	Scope() []*expr.Var
	fmt.Stringer

	sealed()
}

// Lit is a Boolean variable or its negation. Lits appear in clauses
// and serve as assumption literals scoped to a single solve call.
type Lit struct {
	Var *expr.Var
	Neg bool
}

// Pos returns the positive literal of v.
func Pos(v *expr.Var) Lit { return Lit{Var: v} }

// Not returns the negative literal of v.
func Not(v *expr.Var) Lit { return Lit{Var: v, Neg: true} }

// Negate returns the opposite literal.
func (l Lit) Negate() Lit { return Lit{Var: l.Var, Neg: !l.Neg} }

// Holds reports whether the literal is satisfied by the given value of
// its variable.
func (l Lit) Holds(val int64) bool { return (val != 0) != l.Neg }

func (l Lit) String() string {
	if l.Neg {
		return "!" + l.Var.Name()
	}
	return l.Var.Name()
}

// LitOf converts a Boolean variable expression, or the negation of
// one, into a literal.
func LitOf(e *expr.Expr) (Lit, error) {
	if e == nil {
		return Lit{}, fmt.Errorf("%w: nil literal expression", expr.ErrValidation)
	}
	if err := e.Err(); err != nil {
		return Lit{}, err
	}
	neg := false
	if e.Op() == expr.OpNot {
		neg = true
		e = e.Children()[0]
	}
	if e.Op() != expr.OpVar || !e.Var().IsBool() {
		return Lit{}, fmt.Errorf("%w: literal must be a Boolean variable or its negation, got %s", expr.ErrTypeMismatch, e.Op())
	}
	return Lit{Var: e.Var(), Neg: neg}, nil
}

// Clause is a disjunction of literals. The empty clause is
// unsatisfiable.
type Clause struct {
	Lits []Lit
}

func (c Clause) Shape() Shape { return ShapeClause }
func (c Clause) sealed()      {}

func (c Clause) Scope() []*expr.Var {
	out := make([]*expr.Var, 0, len(c.Lits))
	seen := make(map[*expr.Var]struct{}, len(c.Lits))
	for _, l := range c.Lits {
		if _, ok := seen[l.Var]; !ok {
			seen[l.Var] = struct{}{}
			out = append(out, l.Var)
		}
	}
	return out
}

func (c Clause) Hash() uint64 {
	h := hashInit(uint64(ShapeClause))
	for _, l := range c.Lits {
		h = hashMix(h, l.Var.ID())
		if l.Neg {
			h = hashMix(h, 1)
		} else {
			h = hashMix(h, 0)
		}
	}
	return h
}

func (c Clause) String() string {
	parts := make([]string, len(c.Lits))
	for i, l := range c.Lits {
		parts[i] = l.String()
	}
	return "(" + strings.Join(parts, " | ") + ")"
}

// Rel is the relation of a linear constraint.
type Rel uint8

const (
	RelLe Rel = iota // sum <= k
	RelGe            // sum >= k
	RelEq            // sum == k
)

func (r Rel) String() string {
	switch r {
	case RelLe:
		return "<="
	case RelGe:
		return ">="
	default:
		return "=="
	}
}

// Linear is sum(Coeffs[i]*Vars[i]) Rel K.
type Linear struct {
	Coeffs []int64
	Vars   []*expr.Var
	Rel    Rel
	K      int64
}

func (c Linear) Shape() Shape { return ShapeLinear }
func (c Linear) sealed()      {}

func (c Linear) Scope() []*expr.Var { return c.Vars }

func (c Linear) Hash() uint64 {
	h := hashInit(uint64(ShapeLinear))
	for i, v := range c.Vars {
		h = hashMix(h, v.ID())
		h = hashMix(h, uint64(c.Coeffs[i]))
	}
	h = hashMix(h, uint64(c.Rel))
	return hashMix(h, uint64(c.K))
}

// Eval reports whether the constraint holds under the assignment.
func (c Linear) Eval(assign func(*expr.Var) (int64, bool)) (bool, bool) {
	var sum int64
	for i, v := range c.Vars {
		val, ok := assign(v)
		if !ok {
			return false, false
		}
		sum += c.Coeffs[i] * val
	}
	switch c.Rel {
	case RelLe:
		return sum <= c.K, true
	case RelGe:
		return sum >= c.K, true
	default:
		return sum == c.K, true
	}
}

func (c Linear) String() string {
	parts := make([]string, len(c.Vars))
	for i, v := range c.Vars {
		parts[i] = fmt.Sprintf("%d*%s", c.Coeffs[i], v.Name())
	}
	return fmt.Sprintf("%s %s %d", strings.Join(parts, " + "), c.Rel, c.K)
}

// Comparison is a flattened comparison expression: each side has at
// most one level of arithmetic nesting, and the expression may reify a
// Boolean variable against a comparison (b == (x < y)).
type Comparison struct {
	E *expr.Expr
}

func (c Comparison) Shape() Shape       { return ShapeComparison }
func (c Comparison) sealed()            {}
func (c Comparison) Scope() []*expr.Var { return expr.Variables(c.E) }
func (c Comparison) Hash() uint64       { return hashMix(hashInit(uint64(ShapeComparison)), c.E.Hash()) }
func (c Comparison) String() string     { return c.E.String() }

// Global is a natively supported global constraint, passed through to
// the adapter unrewritten.
type Global struct {
	E *expr.Expr
}

func (c Global) Shape() Shape       { return ShapeGlobal }
func (c Global) sealed()            {}
func (c Global) Scope() []*expr.Var { return expr.Variables(c.E) }
func (c Global) Hash() uint64       { return hashMix(hashInit(uint64(ShapeGlobal)), c.E.Hash()) }
func (c Global) String() string     { return c.E.String() }

const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

func hashInit(tag uint64) uint64 { return hashMix(fnvOffset, tag) }

func hashMix(h, x uint64) uint64 {
	for i := 0; i < 8; i++ {
		h ^= x & 0xff
		h *= fnvPrime
		x >>= 8
	}
	return h
}
