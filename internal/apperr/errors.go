package apperr

import (
	"errors"
	"fmt"
)

// ErrInvalidArguments is returned when a call is rejected before any network
// activity: missing URL or provider, unsupported method, missing body.
var ErrInvalidArguments = errors.New("invalid arguments")

// ErrNetwork covers transport-level failures, including DoH resolution
// failures, refused connections and timeouts.
var ErrNetwork = errors.New("network error")

// ErrHTTPStatus is returned when the server answered with a status code
// outside 200–299.
var ErrHTTPStatus = errors.New("http status error")

// ErrDecode is returned when a 2xx response body is not valid text.
var ErrDecode = errors.New("decode error")

// ErrCancelled is returned when the caller cancelled a request that had
// already been dispatched.
var ErrCancelled = errors.New("cancelled")

// Kind classifies a request failure.
type Kind int

// Failure kinds, one per sentinel.
const (
	KindInvalidArguments Kind = iota + 1
	KindNetwork
	KindHTTPStatus
	KindDecode
	KindCancelled
)

// String returns the kind name used in logs and JSON output.
func (k Kind) String() string {
	switch k {
	case KindInvalidArguments:
		return "invalid_arguments"
	case KindNetwork:
		return "network"
	case KindHTTPStatus:
		return "http_status"
	case KindDecode:
		return "decode"
	case KindCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinel returns the package-level sentinel error for k.
func (k Kind) Sentinel() error {
	switch k {
	case KindInvalidArguments:
		return ErrInvalidArguments
	case KindNetwork:
		return ErrNetwork
	case KindHTTPStatus:
		return ErrHTTPStatus
	case KindDecode:
		return ErrDecode
	case KindCancelled:
		return ErrCancelled
	default:
		return nil
	}
}

// Error is the failure variant of a request result.
// errors.Is(err, ErrNetwork) (and the other sentinels) matches on Kind.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is set for KindHTTPStatus.
	StatusCode int
	// Detail carries the raw response body of a non-2xx response, if any.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

// New returns an *Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind whose message is err's message.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.Sentinel()
	return s != nil && target == s
}

// As extracts an *Error from err. If err is not (and does not wrap) an
// *Error it is classified as a network failure.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(KindNetwork, err)
}
