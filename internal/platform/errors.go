package platform

import "fmt"

// ErrorKind classifies a platform API failure for retry decisions.
type ErrorKind int

const (
	// KindRejected means the platform validated and refused the content
	// (too long, unsupported media). Terminal; retrying cannot succeed.
	KindRejected ErrorKind = iota
	// KindUnavailable means the platform could not be reached or answered
	// with a transient failure (timeout, 429, 5xx). Retry-eligible.
	KindUnavailable
	// KindAuth means the token was refused. Terminal for this run; the user
	// has to reconnect the account.
	KindAuth
)

// String returns the machine-readable kind label.
func (k ErrorKind) String() string {
	switch k {
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	case KindAuth:
		return "auth"
	default:
		return "unknown"
	}
}

// Error is the normalized platform failure. Message is a short summary safe
// to surface to users; the raw platform payload stays in the wrapped cause
// and is only logged.
type Error struct {
	Platform string
	Kind     ErrorKind
	Message  string
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Platform, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Retryable reports whether another attempt could succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable
}

// NewError builds a normalized platform error.
func NewError(platform string, kind ErrorKind, message string, cause error) *Error {
	return &Error{Platform: platform, Kind: kind, Message: message, cause: cause}
}
