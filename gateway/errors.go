package gateway

import "fmt"

// ErrorKind tags an [APIError] with the transport-level failure class the
// session client branches on.
type ErrorKind uint8

const (
	// KindNetwork is a transport/availability failure: connection refused,
	// timeout, DNS. Does not imply the credential is invalid.
	KindNetwork ErrorKind = iota
	// KindUnauthorized is a 401-class response.
	KindUnauthorized
	// KindForbidden is a 403-class response.
	KindForbidden
	// KindValidation is a 400/422-class response: the backend rejected the
	// request input.
	KindValidation
	// KindNotFound is a 404 response.
	KindNotFound
	// KindConflict is a 409 response, e.g. a duplicate registration.
	KindConflict
	// KindServer is any 5xx response.
	KindServer
)

// String returns the kind's wire name.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError is a structured transport failure. StatusCode is zero for
// network-level failures.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	RequestID  string
	Cause      error
}

// Error implements error.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// AuthFailure reports whether the error means the current credential is no
// longer valid. Satisfies the classifier interface the session client
// consults.
func (e *APIError) AuthFailure() bool {
	return e.Kind == KindUnauthorized || e.Kind == KindForbidden
}

func kindForStatus(status int) ErrorKind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 409:
		return KindConflict
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
