package storage

import "github.com/cockroachdb/errors"

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
	return &Error{Reason: reason, Op: op, err: errors.Newf("storage: %s %s", reason, op)}
}

func ErrUnknownUpdateOperator(op string) error { return newError("unknown_update_operator", op) }
func ErrNoBackend(name string) error        { return newError("no_such_backend", name) }
func ErrDuplicateBackend(name string) error { return newError("duplicate_backend", name) }

// ErrNotFound is a sentinel for a missing document. The adapters do
// not return it: Get and FindOne report a miss as (nil, nil).
var ErrNotFound = errors.New("storage: not found")
