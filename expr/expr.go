// Package expr implements the solver-agnostic expression model:
// immutable nodes over Boolean and bounded-integer decision variables,
// with structural equality and cached interval bounds.
//
// Nodes are built by operator composition, either with free functions
// (Sum, And, AllDifferent, ...) or fluently with methods
// (x.Add(y).Eq(K(3))). Construction validates arity and operand
// domains; instead of returning an error from every combinator, an
// invalid construction poisons the node and the first error travels to
// the root, where Model.Add or the transformation pipeline surfaces it.
//
// Trees may share subtrees (DAG); sharing is by *Expr pointer and is
// exploited by the pipeline's memoization.
package expr

import (
	"fmt"
	"strings"
)

// Expr is an immutable expression node: a variable or constant leaf,
// or a compound node over ordered children. The zero value is not
// usable; nodes are created through the package constructors only.
type Expr struct {
	op   Op
	kids []*Expr
	v    *Var    // OpVar only
	k    int64   // OpConst only
	data []int64 // extra immediate payload (table rows, cumulative profile)

	lo, hi int64 // cached interval bounds
	hash   uint64
	err    error // first construction error in this subtree
}

// K returns a constant expression.
func K(v int64) *Expr {
	e := &Expr{op: OpConst, k: v, lo: v, hi: v}
	e.hash = hashNode(e)
	return e
}

// True returns the constant 1, usable wherever a Boolean is expected.
func True() *Expr { return K(1) }

// False returns the constant 0, usable wherever a Boolean is expected.
func False() *Expr { return K(0) }

func varNode(v *Var) *Expr {
	e := &Expr{op: OpVar, v: v, lo: v.lo, hi: v.hi}
	e.hash = hashNode(e)
	return e
}

// errNode returns a poisoned node carrying a construction error.
func errNode(op Op, err error) *Expr {
	return &Expr{op: op, err: err}
}

// newNode builds a compound node, propagating the first child error
// and computing cached bounds and the structural hash.
func newNode(op Op, kids []*Expr, data []int64) *Expr {
	e := &Expr{op: op, kids: kids, data: data}
	for _, k := range kids {
		if k == nil {
			e.err = fmt.Errorf("%w: nil operand for %s", ErrValidation, op)
			return e
		}
		if k.err != nil {
			e.err = k.err
			return e
		}
	}
	e.lo, e.hi = boundsOf(op, kids, data)
	e.hash = hashNode(e)
	return e
}

// Op returns the node's operator tag.
func (e *Expr) Op() Op { return e.op }

// Children returns the node's ordered children. The returned slice
// must not be mutated.
func (e *Expr) Children() []*Expr { return e.kids }

// Var returns the underlying variable of an OpVar leaf, or nil.
func (e *Expr) Var() *Var { return e.v }

// Const returns the value of an OpConst leaf.
func (e *Expr) Const() int64 { return e.k }

// Data returns the node's immediate payload (table cells, cumulative
// capacity/durations/demands). The returned slice must not be mutated.
func (e *Expr) Data() []int64 { return e.data }

// Bounds returns the cached inclusive interval [lo,hi] containing
// every value the expression can take. Bounds are computed by interval
// arithmetic at construction and are conservative: they may be wider
// than the reachable set, never narrower.
func (e *Expr) Bounds() (lo, hi int64) { return e.lo, e.hi }

// Err returns the first construction error recorded in this subtree,
// if any. A non-nil Err makes the expression unusable in a Model.
func (e *Expr) Err() error { return e.err }

// IsBool reports whether the expression is Boolean-valued: a Boolean
// variable, a 0/1 constant, a comparison, a connective or a global
// constraint. Boolean expressions coerce to 0/1 in arithmetic contexts.
func (e *Expr) IsBool() bool {
	switch {
	case e.op == OpVar:
		return e.v.bool
	case e.op == OpConst:
		return e.k == 0 || e.k == 1
	case e.op.IsComparison(), e.op.IsConnective(), e.op.IsGlobal():
		return true
	}
	return false
}

// Value evaluates the expression under the variable values written by
// the last solve. The second return is false if any involved variable
// has no value or evaluation is undefined (division by zero,
// out-of-range element index).
func (e *Expr) Value() (int64, bool) {
	return Eval(e, func(v *Var) (int64, bool) { return v.Value() })
}

func (e *Expr) String() string {
	if e.err != nil {
		return fmt.Sprintf("<invalid %s: %v>", e.op, e.err)
	}
	switch e.op {
	case OpVar:
		return e.v.name
	case OpConst:
		return fmt.Sprintf("%d", e.k)
	case OpNot:
		return fmt.Sprintf("not(%s)", e.kids[0])
	case OpNeg:
		return fmt.Sprintf("-(%s)", e.kids[0])
	case OpAbs:
		return fmt.Sprintf("abs(%s)", e.kids[0])
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpImplies:
		return fmt.Sprintf("(%s %s %s)", e.kids[0], e.op, e.kids[1])
	default:
		parts := make([]string, len(e.kids))
		for i, k := range e.kids {
			parts[i] = k.String()
		}
		return fmt.Sprintf("%s(%s)", e.op, strings.Join(parts, ","))
	}
}
