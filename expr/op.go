package expr

// Op tags an expression node. The tag decides how a node is typed
// (numeric or Boolean), how its cached bounds are computed and which
// transformation rules apply to it.
type Op uint8

const (
	OpInvalid Op = iota

	// leaves
	OpVar
	OpConst

	// arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpAbs
	OpMin
	OpMax
	OpSum

	// comparisons
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// boolean connectives
	OpAnd
	OpOr
	OpNot
	OpImplies
	OpXor

	// global constraints
	OpAllDifferent
	OpTable
	OpElement
	OpCumulative
	OpCircuit

	// objective wrappers
	OpMinimize
	OpMaximize
)

var opNames = map[Op]string{
	OpInvalid:      "invalid",
	OpVar:          "var",
	OpConst:        "const",
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpMod:          "mod",
	OpNeg:          "neg",
	OpAbs:          "abs",
	OpMin:          "min",
	OpMax:          "max",
	OpSum:          "sum",
	OpEq:           "==",
	OpNe:           "!=",
	OpLt:           "<",
	OpLe:           "<=",
	OpGt:           ">",
	OpGe:           ">=",
	OpAnd:          "and",
	OpOr:           "or",
	OpNot:          "not",
	OpImplies:      "->",
	OpXor:          "xor",
	OpAllDifferent: "alldifferent",
	OpTable:        "table",
	OpElement:      "element",
	OpCumulative:   "cumulative",
	OpCircuit:      "circuit",
	OpMinimize:     "minimize",
	OpMaximize:     "maximize",
}

// String returns the canonical name of the operator.
func (op Op) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "unknown"
}

// IsArithmetic reports whether op is a numeric operator.
func (op Op) IsArithmetic() bool {
	return op >= OpAdd && op <= OpSum
}

// IsComparison reports whether op compares two numeric operands.
func (op Op) IsComparison() bool {
	return op >= OpEq && op <= OpGe
}

// IsConnective reports whether op is a Boolean connective.
func (op Op) IsConnective() bool {
	return op >= OpAnd && op <= OpXor
}

// IsGlobal reports whether op is a global constraint tag.
func (op Op) IsGlobal() bool {
	return op >= OpAllDifferent && op <= OpCircuit
}

// IsObjective reports whether op wraps an objective expression.
func (op Op) IsObjective() bool {
	return op == OpMinimize || op == OpMaximize
}

// Negated returns the comparison holding exactly when op does not,
// e.g. Negated(<) is >=. It panics if op is not a comparison; callers
// normalizing negation must only flip comparison nodes.
func (op Op) Negated() Op {
	switch op {
	case OpEq:
		return OpNe
	case OpNe:
		return OpEq
	case OpLt:
		return OpGe
	case OpLe:
		return OpGt
	case OpGt:
		return OpLe
	case OpGe:
		return OpLt
	}
	panic("expr: Negated called on non-comparison operator " + op.String())
}
