// Package apperr defines the error type used for user-facing failures.
package apperr

import "fmt"

// Error is an application error with a message that may contain format
// verbs, and an optional underlying cause.
type Error struct {
	Cause   error
	Message string
	// tmpl is the unformatted message of the sentinel this error was
	// derived from.
	tmpl string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches a sentinel by its message template so that formatted and
// wrapped copies still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.template() == e.template()
}

func (e *Error) template() string {
	if e.tmpl != "" {
		return e.tmpl
	}

	return e.Message
}

// Fmt returns a copy of the error with the message formatted using args.
func (e *Error) Fmt(args ...any) *Error {
	return &Error{
		Message: fmt.Sprintf(e.Message, args...),
		Cause:   e.Cause,
		tmpl:    e.template(),
	}
}

// Wrap returns a copy of the error with err as its cause.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		Message: e.Message,
		Cause:   err,
		tmpl:    e.template(),
	}
}
