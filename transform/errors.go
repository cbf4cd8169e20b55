package transform

import (
	"errors"
	"fmt"

	"github.com/cardinal-go/cardinal/expr"
)

// ErrUnsupportedOperator is returned when a pass cannot lower a
// construct for the target capability descriptor. The wrapped message
// names the offending operator and the target identity; the pipeline
// never silently drops a constraint it cannot encode.
var ErrUnsupportedOperator = errors.New("unsupported operator")

func unsupported(op expr.Op, target, gap string) error {
	return fmt.Errorf("%w: %s cannot be lowered for target %q (%s)", ErrUnsupportedOperator, op, target, gap)
}
