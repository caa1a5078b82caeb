package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so the HTTP boundary can map them
// to status codes without inspecting messages.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindForbidden
	KindBadRequest
	KindInvalidRange
	KindInvalidDate
	KindConflict
	KindNotFound
)

// Error is the tagged domain error carried across layer boundaries.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Forbidden signals a caller without access to the requested ledger.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Code: "forbidden", Message: msg}
}

// BadRequest signals malformed or contradictory input.
func BadRequest(msg string) *Error {
	return &Error{Kind: KindBadRequest, Code: "bad_request", Message: msg}
}

// BadRequestf is BadRequest with formatting.
func BadRequestf(format string, args ...any) *Error {
	return BadRequest(fmt.Sprintf(format, args...))
}

// InvalidRange signals a date range whose start falls after its end.
func InvalidRange(msg string) *Error {
	return &Error{Kind: KindInvalidRange, Code: "invalid_range", Message: msg}
}

// InvalidDate signals an unparseable date input.
func InvalidDate(msg string) *Error {
	return &Error{Kind: KindInvalidDate, Code: "invalid_date", Message: msg}
}

// InvalidDatef is InvalidDate with formatting.
func InvalidDatef(format string, args ...any) *Error {
	return InvalidDate(fmt.Sprintf(format, args...))
}

// Conflict signals a uniqueness violation on a write.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Code: "conflict", Message: msg}
}

// Conflictf is Conflict with formatting.
func Conflictf(format string, args ...any) *Error {
	return Conflict(fmt.Sprintf(format, args...))
}

// NotFound signals an operation on a row that does not exist.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Code: "not_found", Message: msg}
}

// NotFoundf is NotFound with formatting.
func NotFoundf(format string, args ...any) *Error {
	return NotFound(fmt.Sprintf(format, args...))
}

// KindOf extracts the ErrorKind from err, unwrapping as needed.
// Unexpected errors report KindUnknown and propagate unchanged.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
