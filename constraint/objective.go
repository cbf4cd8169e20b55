package constraint

import (
	"fmt"
	"strings"

	"github.com/cardinal-go/cardinal/expr"
)

// Sense is the optimization direction.
type Sense uint8

const (
	Minimize Sense = iota
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}

// Objective is a compiled linear objective: Sense over
// sum(Coeffs[i]*Vars[i]) + Offset. The pipeline flattens arbitrary
// objective expressions to this form, introducing an auxiliary
// variable and defining constraints when the expression is not linear.
type Objective struct {
	Sense  Sense
	Coeffs []int64
	Vars   []*expr.Var
	Offset int64
}

// Value evaluates the objective under the assignment.
func (o Objective) Value(assign func(*expr.Var) (int64, bool)) (int64, bool) {
	sum := o.Offset
	for i, v := range o.Vars {
		val, ok := assign(v)
		if !ok {
			return 0, false
		}
		sum += o.Coeffs[i] * val
	}
	return sum, true
}

func (o Objective) String() string {
	parts := make([]string, len(o.Vars))
	for i, v := range o.Vars {
		parts[i] = fmt.Sprintf("%d*%s", o.Coeffs[i], v.Name())
	}
	lin := strings.Join(parts, " + ")
	if o.Offset != 0 {
		lin = fmt.Sprintf("%s + %d", lin, o.Offset)
	}
	return fmt.Sprintf("%s %s", o.Sense, lin)
}
