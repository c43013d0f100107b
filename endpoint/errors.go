package endpoint

import (
	"github.com/cockroachdb/errors"
)

// Kind-tagged sentinel errors, matched with errors.Is after unwrapping
// whatever a hook or handler wrapped them in, per spec.md §7's
// "kinds, not type names" taxonomy. The dispatcher maps each to its
// fixed HTTP status via statusFor below.
var (
	ErrValidation    = errors.New("endpoint: validation error")
	ErrAuthn         = errors.New("endpoint: authentication error")
	ErrAuthz         = errors.New("endpoint: authorization error")
	ErrRateLimited   = errors.New("endpoint: rate limit exceeded")
	ErrNotFound      = errors.New("endpoint: not found")
	ErrConflict      = errors.New("endpoint: conflict")
	ErrQuery         = errors.New("endpoint: query error")
	ErrStorage       = errors.New("endpoint: storage error")
)

// Wrap attaches kind to err so statusFor can later recover it; handlers
// and hooks call this instead of constructing a new error type per
// failure, keeping the taxonomy closed over the kinds spec.md §7 names.
func Wrap(kind error, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithSecondaryError(kind, err)
}

// statusFor maps a dispatcher-visible error to its HTTP status,
// defaulting to 500 for anything outside the named taxonomy (the
// "Internal" kind).
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return 422
	case errors.Is(err, ErrAuthn):
		return 401
	case errors.Is(err, ErrAuthz):
		return 403
	case errors.Is(err, ErrRateLimited):
		return 429
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrConflict):
		return 409
	case errors.Is(err, ErrQuery):
		return 400
	case errors.Is(err, ErrStorage):
		return 500
	default:
		return 500
	}
}
