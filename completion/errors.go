package completion

import "net/http"

// Kind classifies a completion failure. The user-facing behavior is identical
// for every kind; the classification exists for logs and events only.
type Kind string

const (
	KindAuth      Kind = "auth"
	KindNetwork   Kind = "network"
	KindRateLimit Kind = "rate_limit"
	KindMalformed Kind = "malformed_response"
	KindEmpty     Kind = "empty_completion"
	KindUnknown   Kind = "unknown"
)

// Error is the single failure type returned by completion clients. Raw
// provider internals stay in Cause and are never shown to end users.
type Error struct {
	Kind  Kind
	Cause error
}

func (e *Error) Error() string {
	msg := "completion: " + string(e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// classifyStatus maps an HTTP status from the completion endpoint to a
// failure kind.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindNetwork
	default:
		return KindUnknown
	}
}
