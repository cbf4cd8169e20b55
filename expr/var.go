package expr

import (
	"fmt"
	"sync/atomic"
)

var varSeq atomic.Uint64

// Var is a decision variable: a Boolean {0,1} or a bounded integer
// [lo,hi]. A Var is a leaf of expression trees and is shared by
// reference; it is never mutated after creation except for the value
// slot, which is overwritten by the last solve's result.
type Var struct {
	id   uint64
	name string
	lo   int64
	hi   int64
	bool bool

	val    int64
	hasVal bool
}

func newVar(name string, lo, hi int64, boolean bool) *Var {
	return &Var{
		id:   varSeq.Add(1),
		name: name,
		lo:   lo,
		hi:   hi,
		bool: boolean,
	}
}

// ID returns a process-unique identifier, stable for the lifetime of
// the variable. Structural hashes are built from it.
func (v *Var) ID() uint64 { return v.id }

// Name returns the variable's name.
func (v *Var) Name() string { return v.name }

// Bounds returns the variable's domain as an inclusive interval.
func (v *Var) Bounds() (lo, hi int64) { return v.lo, v.hi }

// IsBool reports whether the variable is Boolean.
func (v *Var) IsBool() bool { return v.bool }

// Value returns the value assigned by the last solve, if any.
func (v *Var) Value() (int64, bool) { return v.val, v.hasVal }

// SetValue overwrites the value slot. It is called by solver sessions
// after a satisfiable solve; user code normally only reads values.
func (v *Var) SetValue(x int64) { v.val, v.hasVal = x, true }

// ClearValue empties the value slot.
func (v *Var) ClearValue() { v.val, v.hasVal = 0, false }

func (v *Var) String() string { return v.name }

// Expr wraps the variable as an expression node, for building
// constraints over variables recovered from compiled output.
func (v *Var) Expr() *Expr { return varNode(v) }

// Bool creates a fresh Boolean decision variable wrapped in an
// expression leaf.
func Bool(name string) *Expr {
	return varNode(newVar(name, 0, 1, true))
}

// Int creates a fresh integer decision variable with inclusive domain
// [lo,hi], wrapped in an expression leaf.
func Int(name string, lo, hi int64) *Expr {
	if lo > hi {
		return errNode(OpVar, fmt.Errorf("%w: variable %q has empty domain [%d,%d]", ErrValidation, name, lo, hi))
	}
	return varNode(newVar(name, lo, hi, false))
}

// Bools creates n Boolean variables named prefix0..prefix{n-1}.
func Bools(prefix string, n int) []*Expr {
	vs := make([]*Expr, n)
	for i := range vs {
		vs[i] = Bool(fmt.Sprintf("%s%d", prefix, i))
	}
	return vs
}

// Ints creates n integer variables named prefix0..prefix{n-1}, all
// with domain [lo,hi].
func Ints(prefix string, n int, lo, hi int64) []*Expr {
	vs := make([]*Expr, n)
	for i := range vs {
		vs[i] = Int(fmt.Sprintf("%s%d", prefix, i), lo, hi)
	}
	return vs
}
