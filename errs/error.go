package errs

import (
	"errors"
	"fmt"
)

// Application error codes. Every error leaving a crud service carries one of
// these, so the http layer can map it to a status code without inspecting
// error strings.
const (
	// EINVALID is returned for malformed, missing or oversized input.
	EINVALID = "invalid"
	// EUNAUTHORIZED is returned when a credential is required but missing or invalid.
	EUNAUTHORIZED = "unauthorized"
	// EFORBIDDEN is returned when a valid caller lacks the role or ownership for a write.
	EFORBIDDEN = "forbidden"
	// ENOTFOUND is returned when a resource is absent or invisible to the caller.
	ENOTFOUND = "not_found"
	// ECONFLICT is returned when a uniqueness constraint could not be satisfied.
	ECONFLICT = "conflict"
	// EINTERNAL is returned for store failures and anything unexpected.
	EINTERNAL = "internal"
)

// Error represents an application-specific error. Message is meant for the
// end user, Cause is never shown to them and only ends up in the logs.
type Error struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface. It is not shown to end users.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("greenmag error: code=%s message=%s cause=%v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("greenmag error: code=%s message=%s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Errorf is a helper function to return an Error with a given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Invalid returns an EINVALID error naming the offending input field.
func Invalid(field string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    EINVALID,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Internal wraps a store or library failure. The cause is kept for logging only.
func Internal(cause error) *Error {
	return &Error{
		Code:    EINTERNAL,
		Message: "An internal error has occurred.",
		Cause:   cause,
	}
}

// Ensure passes application errors through and wraps everything else as EINTERNAL.
func Ensure(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(err)
}

// ErrorCode unwraps an application error and returns its code.
// Non-application errors always return EINTERNAL.
func ErrorCode(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage unwraps an application error and returns its message.
// Non-application errors always return "An internal error has occurred.".
func ErrorMessage(err error) string {
	var e *Error
	if err == nil {
		return ""
	} else if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return "An internal error has occurred."
}

// ErrorField returns the input field an EINVALID error refers to, if any.
func ErrorField(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
