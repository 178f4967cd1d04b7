package transport

import (
	"errors"
	"fmt"
)

// Kind classifies a failed call. Callers branch on Kind, never on Message.
type Kind int

const (
	// KindValidation: the payload was rejected (HTTP 400).
	KindValidation Kind = iota + 1
	// KindConnectivity: no response was received (DNS, refused, reset).
	KindConnectivity
	// KindTimeout: an attempt exceeded its deadline.
	KindTimeout
	// KindGeneric: any other status >= 400 that did receive a response.
	KindGeneric
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConnectivity:
		return "connectivity"
	case KindTimeout:
		return "timeout"
	case KindGeneric:
		return "generic"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the envelope every failed call surfaces with.
type Error struct {
	Kind    Kind
	Message string

	// StatusCode is 0 when the failure happened before a response existed.
	StatusCode int

	// Body is the raw response body, when there was one.
	Body []byte

	// Details carries "validation_errors" (or "details") from a JSON error body.
	Details any

	// Cause is the underlying transport or context error, if any.
	Cause error

	// sent is false when the request never left the client (dial/DNS phase).
	sent bool
	// terminal marks failures that must not be retried (caller cancellation,
	// local build errors).
	terminal bool
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("[%d] %s", e.StatusCode, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf extracts the Kind of err, if err carries an *Error.
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// AsError extracts *Error.
func AsError(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

func IsValidation(err error) bool   { return isKind(err, KindValidation) }
func IsConnectivity(err error) bool { return isKind(err, KindConnectivity) }
func IsTimeout(err error) bool      { return isKind(err, KindTimeout) }
func IsGeneric(err error) bool      { return isKind(err, KindGeneric) }

func isKind(err error, k Kind) bool {
	got, ok := KindOf(err)
	return ok && got == k
}

// LocalError builds a Validation envelope for problems detected before any
// network I/O (unsupported bank, malformed payload). It is never retried.
func LocalError(cause error) *Error {
	return &Error{
		Kind:     KindValidation,
		Message:  cause.Error(),
		Cause:    cause,
		terminal: true,
	}
}

// DecodeError wraps a success response whose body could not be decoded. It
// is Generic: the service answered, but not with the documented shape.
func DecodeError(status int, body []byte, cause error) *Error {
	return &Error{
		Kind:       KindGeneric,
		Message:    cause.Error(),
		StatusCode: status,
		Body:       body,
		Cause:      cause,
		sent:       true,
		terminal:   true,
	}
}
