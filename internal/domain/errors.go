package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for classifying provider failures. Transport and client
// errors match these through errors.Is so commands can react to a category
// without inspecting status codes.
//
//	if errors.Is(err, domain.ErrUnauthorized) { ... }
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrUnauthorized indicates the request was rejected due to
	// invalid, expired, or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")

	// ErrConflict indicates a state or uniqueness conflict, such as an
	// operation on an instance in a transitional state.
	ErrConflict = errors.New("conflict")

	// ErrUnknownInstance is returned when an operation names an instance id
	// that is not part of the last fetched instance list.
	ErrUnknownInstance = errors.New("unknown instance")

	// ErrInstanceBusy is returned when a mutation is already in flight for
	// the same instance.
	ErrInstanceBusy = errors.New("instance has an operation in flight")

	// ErrInvalidState is returned when the instance status does not allow
	// the requested operation.
	ErrInvalidState = errors.New("operation not valid for instance status")
)

// Kind classifies an Error by where it originated and whether retrying
// can help.
type Kind int

const (
	// KindValidation is raised locally before any network call.
	KindValidation Kind = iota + 1
	// KindClient is a 4xx response; the provider message is kept verbatim.
	KindClient
	// KindServer is a 5xx, an unexpected status or an undecodable body.
	KindServer
	// KindNetwork means no response was received (dial failure, timeout).
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the classified error returned by every provider operation.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	var prefix string
	if e.Op != "" {
		prefix = e.Op + ": "
	}
	switch e.Kind {
	case KindValidation:
		if e.Err != nil && e.Message == "" {
			return prefix + e.Err.Error()
		}
		return prefix + e.Message
	case KindClient:
		return fmt.Sprintf("%sprovider rejected request (HTTP %d): %s", prefix, e.StatusCode, e.Message)
	case KindServer:
		if e.Message != "" {
			return fmt.Sprintf("%sprovider error (HTTP %d): %s", prefix, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%sprovider error (HTTP %d)", prefix, e.StatusCode)
	case KindNetwork:
		if e.Err != nil {
			return prefix + "network failure: " + e.Err.Error()
		}
		return prefix + "network failure"
	default:
		return prefix + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is maps client status codes onto the sentinel errors.
func (e *Error) Is(target error) bool {
	if e.Kind != KindClient {
		return false
	}
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// NewValidationError builds a KindValidation error. When cause is non-nil it
// is wrapped so errors.Is keeps working against sentinels like
// ErrUnknownInstance.
func NewValidationError(op string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindValidation,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     cause,
	}
}

// KindOf reports the Kind of err, or 0 when err is not a classified *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsValidation reports whether err was raised before reaching the network.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsTransient reports whether err is a server or network failure that a
// retry may resolve. Rate limiting is deliberately excluded.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindServer, KindNetwork:
		return true
	}
	return false
}
