package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure llmkit surfaces. Callers branch on
// the kind instead of matching message strings or raw HTTP statuses.
type ErrorKind string

const (
	// ErrValidation: caller-supplied parameters violate a documented
	// constraint. Never produced by the network path.
	ErrValidation ErrorKind = "validation"

	// ErrTransport: network-level failure (DNS, connection, timeout) or a
	// retryable status that survived every retry attempt.
	ErrTransport ErrorKind = "transport"

	// ErrAPI: the provider returned a non-2xx status with a structured
	// error body. HTTPStatus carries the status code.
	ErrAPI ErrorKind = "api"

	// ErrDecode: a 2xx response whose body is not valid JSON or does not
	// match the expected shape for the requested variant.
	ErrDecode ErrorKind = "decode"
)

// Error is the typed failure returned by every llmkit operation.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Op         Op        `json:"op,omitempty"`
	cause      error
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Validationf builds an ErrValidation failure.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Transportf builds an ErrTransport failure wrapping cause.
func Transportf(cause error, format string, args ...any) *Error {
	return &Error{
		Kind:      ErrTransport,
		Message:   fmt.Sprintf(format, args...),
		Retryable: true,
		cause:     cause,
	}
}

// APIError builds an ErrAPI failure from a provider status and message.
// 429 and 5xx are marked retryable; every other status is terminal.
func APIError(status int, msg string) *Error {
	return &Error{
		Kind:       ErrAPI,
		Message:    msg,
		HTTPStatus: status,
		Retryable:  status == 429 || status >= 500,
	}
}

// Decodef builds an ErrDecode failure wrapping cause (may be nil when the
// body parsed but a required field was absent).
func Decodef(cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    ErrDecode,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// KindOf extracts the ErrorKind from err, or "" when err is not (and does
// not wrap) an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRetryable reports whether err is an *Error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
