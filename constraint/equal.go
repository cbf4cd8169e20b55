package constraint

import "github.com/cardinal-go/cardinal/expr"

// Equal reports structural equality of two constraints. Variables
// compare by identity, matching expr.Equal.
func Equal(a, b Constraint) bool {
	if a.Shape() != b.Shape() {
		return false
	}
	switch x := a.(type) {
	case Clause:
		y := b.(Clause)
		if len(x.Lits) != len(y.Lits) {
			return false
		}
		for i, l := range x.Lits {
			if l != y.Lits[i] {
				return false
			}
		}
		return true
	case Linear:
		y := b.(Linear)
		if x.Rel != y.Rel || x.K != y.K || len(x.Vars) != len(y.Vars) {
			return false
		}
		for i, v := range x.Vars {
			if v != y.Vars[i] || x.Coeffs[i] != y.Coeffs[i] {
				return false
			}
		}
		return true
	case Comparison:
		return expr.Equal(x.E, b.(Comparison).E)
	case Global:
		return expr.Equal(x.E, b.(Global).E)
	}
	return false
}
