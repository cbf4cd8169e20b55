package expr

// Walk visits e and its descendants pre-order, visiting each distinct
// node once (shared subtrees are not revisited). If fn returns false
// the node's children are skipped.
func Walk(e *Expr, fn func(*Expr) bool) {
	seen := make(map[*Expr]struct{})
	var visit func(*Expr)
	visit = func(n *Expr) {
		if n == nil {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		if !fn(n) {
			return
		}
		for _, k := range n.kids {
			visit(k)
		}
	}
	visit(e)
}

// Variables returns the distinct decision variables appearing in the
// given expressions, in first-seen order.
func Variables(es ...*Expr) []*Var {
	var out []*Var
	seen := make(map[*Var]struct{})
	for _, e := range es {
		Walk(e, func(n *Expr) bool {
			if n.op == OpVar {
				if _, ok := seen[n.v]; !ok {
					seen[n.v] = struct{}{}
					out = append(out, n.v)
				}
			}
			return true
		})
	}
	return out
}

// Eval evaluates an expression under the given variable assignment.
// Boolean results are 0/1. The second return is false when the value
// is undefined: an unassigned variable, division or modulo by zero, or
// an element index outside the array. Callers holding a complete
// assignment may treat an undefined constraint as violated.
func Eval(e *Expr, assign func(*Var) (int64, bool)) (int64, bool) {
	if e == nil || e.err != nil {
		return 0, false
	}
	ev := func(n *Expr) (int64, bool) { return Eval(n, assign) }
	b2i := func(b bool) int64 {
		if b {
			return 1
		}
		return 0
	}

	switch e.op {
	case OpVar:
		return assign(e.v)
	case OpConst:
		return e.k, true
	case OpMinimize, OpMaximize:
		return ev(e.kids[0])
	}

	// all remaining operators need every child value
	vals := make([]int64, len(e.kids))
	for i, k := range e.kids {
		v, ok := ev(k)
		if !ok {
			return 0, false
		}
		vals[i] = v
	}

	switch e.op {
	case OpAdd:
		return vals[0] + vals[1], true
	case OpSub:
		return vals[0] - vals[1], true
	case OpMul:
		p := int64(1)
		for _, v := range vals {
			p *= v
		}
		return p, true
	case OpDiv:
		if vals[1] == 0 {
			return 0, false
		}
		return vals[0] / vals[1], true
	case OpMod:
		if vals[1] == 0 {
			return 0, false
		}
		return vals[0] % vals[1], true
	case OpNeg:
		return -vals[0], true
	case OpAbs:
		return abs64(vals[0]), true
	case OpMin:
		m := vals[0]
		for _, v := range vals[1:] {
			m = min(m, v)
		}
		return m, true
	case OpMax:
		m := vals[0]
		for _, v := range vals[1:] {
			m = max(m, v)
		}
		return m, true
	case OpSum:
		var s int64
		for _, v := range vals {
			s += v
		}
		return s, true

	case OpEq:
		return b2i(vals[0] == vals[1]), true
	case OpNe:
		return b2i(vals[0] != vals[1]), true
	case OpLt:
		return b2i(vals[0] < vals[1]), true
	case OpLe:
		return b2i(vals[0] <= vals[1]), true
	case OpGt:
		return b2i(vals[0] > vals[1]), true
	case OpGe:
		return b2i(vals[0] >= vals[1]), true

	case OpAnd:
		for _, v := range vals {
			if v == 0 {
				return 0, true
			}
		}
		return 1, true
	case OpOr:
		for _, v := range vals {
			if v != 0 {
				return 1, true
			}
		}
		return 0, true
	case OpNot:
		return b2i(vals[0] == 0), true
	case OpImplies:
		return b2i(vals[0] == 0 || vals[1] != 0), true
	case OpXor:
		return b2i((vals[0] != 0) != (vals[1] != 0)), true

	case OpAllDifferent:
		seen := make(map[int64]struct{}, len(vals))
		for _, v := range vals {
			if _, dup := seen[v]; dup {
				return 0, true
			}
			seen[v] = struct{}{}
		}
		return 1, true
	case OpTable:
		n := len(e.kids)
		for r := 0; r+n <= len(e.data); r += n {
			match := true
			for i := 0; i < n; i++ {
				if vals[i] != e.data[r+i] {
					match = false
					break
				}
			}
			if match {
				return 1, true
			}
		}
		return 0, true
	case OpElement:
		idx := vals[0]
		if idx < 0 || int(idx) >= len(vals)-1 {
			return 0, false
		}
		return vals[1+idx], true
	case OpCumulative:
		n := len(e.kids)
		capacity := e.data[0]
		durs := e.data[1 : 1+n]
		dems := e.data[1+n:]
		for i := 0; i < n; i++ {
			for t := vals[i]; t < vals[i]+durs[i]; t++ {
				var load int64
				for j := 0; j < n; j++ {
					if vals[j] <= t && t < vals[j]+durs[j] {
						load += dems[j]
					}
				}
				if load > capacity {
					return 0, true
				}
			}
		}
		return 1, true
	case OpCircuit:
		n := int64(len(vals))
		visited := make([]bool, n)
		cur := int64(0)
		for step := int64(1); step <= n; step++ {
			next := vals[cur]
			if next < 0 || next >= n || next == cur {
				return 0, true
			}
			if next == 0 {
				return b2i(step == n), true
			}
			if visited[next] {
				return 0, true
			}
			visited[next] = true
			cur = next
		}
		return 0, true
	}
	return 0, false
}
