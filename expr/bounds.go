package expr

// Interval arithmetic over cached node bounds. Bounds feed the
// flattening pass (auxiliary variable domains) and big-M selection in
// the linear encoder; they must contain every reachable value, so all
// rules widen and clamp rather than narrow.

// boundCap limits bound magnitudes so interval products cannot
// overflow int64 when combined further up the tree.
const boundCap = int64(1) << 40

func clamp(x int64) int64 {
	if x > boundCap {
		return boundCap
	}
	if x < -boundCap {
		return -boundCap
	}
	return x
}

func minMax4(a, b, c, d int64) (int64, int64) {
	lo, hi := a, a
	for _, x := range []int64{b, c, d} {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func boundsOf(op Op, kids []*Expr, data []int64) (int64, int64) {
	switch op {
	case OpAdd, OpSum:
		var lo, hi int64
		for _, k := range kids {
			lo = clamp(lo + k.lo)
			hi = clamp(hi + k.hi)
		}
		return lo, hi
	case OpSub:
		return clamp(kids[0].lo - kids[1].hi), clamp(kids[0].hi - kids[1].lo)
	case OpMul:
		lo, hi := kids[0].lo, kids[0].hi
		for _, k := range kids[1:] {
			a, b := clamp(lo*k.lo), clamp(lo*k.hi)
			c, d := clamp(hi*k.lo), clamp(hi*k.hi)
			lo, hi = minMax4(a, b, c, d)
		}
		return lo, hi
	case OpDiv:
		num, den := kids[0], kids[1]
		if den.lo > 0 || den.hi < 0 {
			a, b := num.lo/den.lo, num.lo/den.hi
			c, d := num.hi/den.lo, num.hi/den.hi
			return minMax4(a, b, c, d)
		}
		// divisor interval crosses zero: widen to the largest
		// magnitude the quotient can reach with divisor ±1
		m := max(abs64(num.lo), abs64(num.hi))
		return -m, m
	case OpMod:
		// result follows the dividend's sign (Go semantics)
		m := max(abs64(kids[1].lo), abs64(kids[1].hi))
		if m > 0 {
			m--
		}
		lo, hi := -m, m
		if kids[0].lo >= 0 {
			lo = 0
		}
		if kids[0].hi <= 0 {
			hi = 0
		}
		return lo, hi
	case OpNeg:
		return -kids[0].hi, -kids[0].lo
	case OpAbs:
		lo, hi := kids[0].lo, kids[0].hi
		m := max(abs64(lo), abs64(hi))
		if lo <= 0 && hi >= 0 {
			return 0, m
		}
		return min(abs64(lo), abs64(hi)), m
	case OpMin:
		lo, hi := kids[0].lo, kids[0].hi
		for _, k := range kids[1:] {
			lo = min(lo, k.lo)
			hi = min(hi, k.hi)
		}
		return lo, hi
	case OpMax:
		lo, hi := kids[0].lo, kids[0].hi
		for _, k := range kids[1:] {
			lo = max(lo, k.lo)
			hi = max(hi, k.hi)
		}
		return lo, hi
	case OpElement:
		// kids[0] is the index, the rest the array
		lo, hi := kids[1].lo, kids[1].hi
		for _, k := range kids[2:] {
			lo = min(lo, k.lo)
			hi = max(hi, k.hi)
		}
		return lo, hi
	case OpMinimize, OpMaximize:
		return kids[0].lo, kids[0].hi
	}
	if op.IsComparison() || op.IsConnective() || op.IsGlobal() {
		return 0, 1
	}
	return 0, 0
}
