package expr

import "errors"

var (
	// ErrTypeMismatch is returned when an operator is applied to an
	// operand whose domain it cannot accept, e.g. a Boolean connective
	// over a non-Boolean expression.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidation is returned for structurally malformed
	// constructions: wrong arity, empty variable sets, inverted
	// domains and the like.
	ErrValidation = errors.New("invalid construction")
)
