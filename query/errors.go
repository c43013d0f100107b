package query

import "github.com/cockroachdb/errors"

// Error is returned for malformed queries or unknown operators, per
// spec.md §4.A. Reason is one of a small fixed set of string tags so
// callers can distinguish failure modes without string matching on
// Error().
type Error struct {
	Reason string
	Op     string
	err    error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return e.Reason + ": " + e.Op
	}
	return e.Reason
}

func (e *Error) Unwrap() error { return e.err }

func newError(reason, op string) error {
	return &Error{Reason: reason, Op: op, err: errors.Newf("query: %s %s", reason, op)}
}

// ErrUnknownOperator reports an operator the dialect does not recognize.
func ErrUnknownOperator(op string) error { return newError("unknown_operator", op) }

// ErrMalformed reports a query document that cannot be parsed at all
// (e.g. an operator expression with a non-map value where a map was
// required).
func ErrMalformed(reason string) error { return newError("malformed", reason) }
