package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSourceUnavailable = errors.New("price source unavailable")
	ErrRateLimited       = errors.New("rate limited")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrLockHeld          = errors.New("lock already held")
)

// UserError is an error whose message is safe to return to API clients.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg }
func (e *UserError) Unwrap() error { return e.Err }

// Invalid returns a UserError wrapping ErrInvalidInput.
func Invalid(msg string) error {
	return &UserError{Msg: msg, Err: ErrInvalidInput}
}
