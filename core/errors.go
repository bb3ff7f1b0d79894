package core

import "github.com/pkg/errors"

// Error conventions:
//
// Domain packages export sentinel errors for their lookup misses
// (user.ErrNotFound, content.ErrNotFound, course.ErrNotFound, ...) and wrap
// everything else with pkg/errors for context. The API error handler resolves
// errors with errors.Cause, so sentinels survive any amount of wrapping.
// Errors that invalidate a request rather than the server are raised as
// ValidationError; shutdown errors signal that the process can no longer be
// trusted and should terminate.

// FieldError reports a problem with one field of a request payload.
type FieldError struct {
	Field string
	Error string
}

// ValidationError rejects a request as malformed. When Fields is set the
// client gets a per-field breakdown, otherwise Err's message is returned
// as-is.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err *ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

func (err *ValidationError) Unwrap() error { return err.Err }

// shutdown means the service hit a state it cannot safely continue from,
// such as a lost database connection.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s *shutdown) Error() string {
	return s.message
}

// IsShutdown reports whether err, at any level of wrapping, asks for the
// service to terminate.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
