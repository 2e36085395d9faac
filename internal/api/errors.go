package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated indicates a missing, invalid, or expired credential.
// Any 401/403 from the backend maps here; the session manager treats it
// as a forced-logout signal.
var ErrUnauthenticated = errors.New("credential missing, invalid, or expired")

// ServerError is a non-2xx response that carried a body. Message is the
// server's own message, surfaced verbatim to the user when present.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected request (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server rejected request (%d)", e.Status)
}

// NetworkError means the request never reached the server.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network unavailable: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// Kind is the coarse failure classification used by callers to pick
// user-facing behavior.
type Kind int

const (
	KindUnexpected Kind = iota
	KindUnauthenticated
	KindServerRejected
	KindNetworkUnavailable
)

// Classify maps an error from any client call onto the failure taxonomy.
// Anything unrecognized is Unexpected.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindUnexpected
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	default:
	}
	var se *ServerError
	if errors.As(err, &se) {
		return KindServerRejected
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return KindNetworkUnavailable
	}
	return KindUnexpected
}
