package expr

import "fmt"

// Constructors validate operand arity and domains. A failed check
// poisons the node (see Expr.Err); valid children of a poisoned parent
// stay usable on their own.

// asBool coerces a 0/1-bounded integer operand into the test x != 0,
// so counting expressions plug directly into connectives. Anything
// else is returned unchanged for boolCheck to reject.
func asBool(x *Expr) *Expr {
	if x == nil || x.err != nil || x.IsBool() {
		return x
	}
	if x.lo >= 0 && x.hi <= 1 {
		return cmp(OpNe, x, K(0))
	}
	return x
}

func asBools(xs []*Expr) []*Expr {
	out := make([]*Expr, len(xs))
	for i, x := range xs {
		out[i] = asBool(x)
	}
	return out
}

func boolCheck(op Op, kids ...*Expr) error {
	for _, k := range kids {
		if k == nil {
			return fmt.Errorf("%w: nil operand for %s", ErrValidation, op)
		}
		if k.err != nil {
			return k.err
		}
		if !k.IsBool() {
			return fmt.Errorf("%w: %s requires Boolean operands, got %s with bounds [%d,%d]", ErrTypeMismatch, op, k.op, k.lo, k.hi)
		}
	}
	return nil
}

// --- arithmetic ---

// Sum returns the n-ary sum of the operands. Boolean operands are
// coerced to 0/1, which makes Sum usable for counting.
func Sum(xs ...*Expr) *Expr {
	if len(xs) == 0 {
		return K(0)
	}
	return newNode(OpSum, xs, nil)
}

// Min returns the n-ary minimum of the operands.
func Min(xs ...*Expr) *Expr {
	if len(xs) == 0 {
		return errNode(OpMin, fmt.Errorf("%w: min of zero operands", ErrValidation))
	}
	return newNode(OpMin, xs, nil)
}

// Max returns the n-ary maximum of the operands.
func Max(xs ...*Expr) *Expr {
	if len(xs) == 0 {
		return errNode(OpMax, fmt.Errorf("%w: max of zero operands", ErrValidation))
	}
	return newNode(OpMax, xs, nil)
}

// Add returns e + o.
func (e *Expr) Add(o *Expr) *Expr { return newNode(OpAdd, []*Expr{e, o}, nil) }

// Sub returns e - o.
func (e *Expr) Sub(o *Expr) *Expr { return newNode(OpSub, []*Expr{e, o}, nil) }

// Mul returns e * o.
func (e *Expr) Mul(o *Expr) *Expr { return newNode(OpMul, []*Expr{e, o}, nil) }

// Div returns e / o, integer division truncated toward zero. A
// constant zero divisor is rejected at construction; a divisor whose
// domain merely contains zero is legal and makes solutions with that
// value infeasible at solve time.
func (e *Expr) Div(o *Expr) *Expr {
	if o != nil && o.err == nil && o.op == OpConst && o.k == 0 {
		return errNode(OpDiv, fmt.Errorf("%w: division by constant zero", ErrValidation))
	}
	return newNode(OpDiv, []*Expr{e, o}, nil)
}

// Mod returns e mod o with the sign of the dividend (Go semantics).
func (e *Expr) Mod(o *Expr) *Expr {
	if o != nil && o.err == nil && o.op == OpConst && o.k == 0 {
		return errNode(OpMod, fmt.Errorf("%w: modulo by constant zero", ErrValidation))
	}
	return newNode(OpMod, []*Expr{e, o}, nil)
}

// Neg returns -e.
func (e *Expr) Neg() *Expr { return newNode(OpNeg, []*Expr{e}, nil) }

// Abs returns |e|.
func (e *Expr) Abs() *Expr { return newNode(OpAbs, []*Expr{e}, nil) }

// --- comparisons ---

func cmp(op Op, a, b *Expr) *Expr { return newNode(op, []*Expr{a, b}, nil) }

// Eq returns e == o. Over Boolean operands this is logical
// equivalence, usable for reification.
func (e *Expr) Eq(o *Expr) *Expr { return cmp(OpEq, e, o) }

// Ne returns e != o.
func (e *Expr) Ne(o *Expr) *Expr { return cmp(OpNe, e, o) }

// Lt returns e < o.
func (e *Expr) Lt(o *Expr) *Expr { return cmp(OpLt, e, o) }

// Le returns e <= o.
func (e *Expr) Le(o *Expr) *Expr { return cmp(OpLe, e, o) }

// Gt returns e > o.
func (e *Expr) Gt(o *Expr) *Expr { return cmp(OpGt, e, o) }

// Ge returns e >= o.
func (e *Expr) Ge(o *Expr) *Expr { return cmp(OpGe, e, o) }

// --- connectives ---

// And returns the n-ary conjunction. And() is True. Integer operands
// with bounds within [0,1] are coerced via asBool.
func And(xs ...*Expr) *Expr {
	if len(xs) == 0 {
		return True()
	}
	kids := asBools(xs)
	if len(kids) == 1 {
		if err := boolCheck(OpAnd, kids[0]); err != nil {
			return errNode(OpAnd, err)
		}
		return kids[0]
	}
	if err := boolCheck(OpAnd, kids...); err != nil {
		return errNode(OpAnd, err)
	}
	return newNode(OpAnd, kids, nil)
}

// Or returns the n-ary disjunction. Or() is False. Integer operands
// with bounds within [0,1] are coerced via asBool.
func Or(xs ...*Expr) *Expr {
	if len(xs) == 0 {
		return False()
	}
	kids := asBools(xs)
	if len(kids) == 1 {
		if err := boolCheck(OpOr, kids[0]); err != nil {
			return errNode(OpOr, err)
		}
		return kids[0]
	}
	if err := boolCheck(OpOr, kids...); err != nil {
		return errNode(OpOr, err)
	}
	return newNode(OpOr, kids, nil)
}

// Not returns the negation of a Boolean expression.
func Not(x *Expr) *Expr {
	x = asBool(x)
	if err := boolCheck(OpNot, x); err != nil {
		return errNode(OpNot, err)
	}
	return newNode(OpNot, []*Expr{x}, nil)
}

// And returns e ∧ o.
func (e *Expr) And(o *Expr) *Expr { return And(e, o) }

// Or returns e ∨ o.
func (e *Expr) Or(o *Expr) *Expr { return Or(e, o) }

// Not returns ¬e.
func (e *Expr) Not() *Expr { return Not(e) }

// Implies returns e → o.
func (e *Expr) Implies(o *Expr) *Expr {
	a, b := asBool(e), asBool(o)
	if err := boolCheck(OpImplies, a, b); err != nil {
		return errNode(OpImplies, err)
	}
	return newNode(OpImplies, []*Expr{a, b}, nil)
}

// Xor returns e ⊕ o.
func (e *Expr) Xor(o *Expr) *Expr {
	a, b := asBool(e), asBool(o)
	if err := boolCheck(OpXor, a, b); err != nil {
		return errNode(OpXor, err)
	}
	return newNode(OpXor, []*Expr{a, b}, nil)
}

// --- globals ---

// AllDifferent constrains all operands to take pairwise distinct
// values. With fewer than two operands it is trivially true.
func AllDifferent(xs ...*Expr) *Expr {
	if len(xs) < 2 {
		return True()
	}
	return newNode(OpAllDifferent, xs, nil)
}

// Table constrains the tuple of variables to equal one of the given
// rows. Every row must have exactly len(vars) cells.
func Table(vars []*Expr, rows [][]int64) *Expr {
	if len(vars) == 0 {
		return errNode(OpTable, fmt.Errorf("%w: table over zero variables", ErrValidation))
	}
	data := make([]int64, 0, len(rows)*len(vars))
	for i, row := range rows {
		if len(row) != len(vars) {
			return errNode(OpTable, fmt.Errorf("%w: table row %d has %d cells, want %d", ErrValidation, i, len(row), len(vars)))
		}
		data = append(data, row...)
	}
	return newNode(OpTable, vars, data)
}

// Element returns the expression arr[idx]. Indices outside [0,len(arr))
// make the enclosing constraint unsatisfiable rather than erroring.
func Element(arr []*Expr, idx *Expr) *Expr {
	if len(arr) == 0 {
		return errNode(OpElement, fmt.Errorf("%w: element over empty array", ErrValidation))
	}
	kids := make([]*Expr, 0, len(arr)+1)
	kids = append(kids, idx)
	kids = append(kids, arr...)
	return newNode(OpElement, kids, nil)
}

// Cumulative constrains tasks with the given start variables, fixed
// durations and fixed demands so that at every time point the summed
// demand of running tasks stays within capacity.
func Cumulative(starts []*Expr, durations, demands []int64, capacity int64) *Expr {
	n := len(starts)
	if n == 0 || len(durations) != n || len(demands) != n {
		return errNode(OpCumulative, fmt.Errorf("%w: cumulative needs equally many starts (%d), durations (%d) and demands (%d)", ErrValidation, n, len(durations), len(demands)))
	}
	for i := 0; i < n; i++ {
		if durations[i] < 0 || demands[i] < 0 {
			return errNode(OpCumulative, fmt.Errorf("%w: cumulative task %d has negative duration or demand", ErrValidation, i))
		}
	}
	if capacity < 0 {
		return errNode(OpCumulative, fmt.Errorf("%w: cumulative capacity is negative", ErrValidation))
	}
	data := make([]int64, 0, 2*n+1)
	data = append(data, capacity)
	data = append(data, durations...)
	data = append(data, demands...)
	return newNode(OpCumulative, starts, data)
}

// Circuit constrains the successor variables xs (xs[i] = next node
// after i) to form a single Hamiltonian cycle over all nodes.
func Circuit(xs ...*Expr) *Expr {
	if len(xs) < 2 {
		return errNode(OpCircuit, fmt.Errorf("%w: circuit needs at least two nodes", ErrValidation))
	}
	return newNode(OpCircuit, xs, nil)
}

// Rebuild returns a node with the same operator and immediate payload
// as e, over new children. Rewrite passes use it to reconstruct nodes
// after transforming subtrees; leaves are returned unchanged.
func Rebuild(e *Expr, kids []*Expr) *Expr {
	switch {
	case e.op == OpVar || e.op == OpConst:
		return e
	case e.op.IsConnective():
		if err := boolCheck(e.op, kids...); err != nil {
			return errNode(e.op, err)
		}
	}
	return newNode(e.op, kids, e.data)
}

// --- objective wrappers ---

// Minimize wraps a numeric expression as a minimization objective.
func Minimize(e *Expr) *Expr { return objective(OpMinimize, e) }

// Maximize wraps a numeric expression as a maximization objective.
func Maximize(e *Expr) *Expr { return objective(OpMaximize, e) }

func objective(op Op, e *Expr) *Expr {
	if e == nil {
		return errNode(op, fmt.Errorf("%w: nil objective", ErrValidation))
	}
	if e.op.IsObjective() {
		return errNode(op, fmt.Errorf("%w: nested objective wrapper", ErrValidation))
	}
	return newNode(op, []*Expr{e}, nil)
}
