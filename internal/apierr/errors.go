// Package apierr defines the error taxonomy shared by the client controllers.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Precondition failures on chat operations. Surfaced to the caller, recoverable.
var (
	ErrUnauthenticated      = errors.New("authenticated session required")
	ErrInvalidTarget        = errors.New("chat target participant is required")
	ErrNoActiveConversation = errors.New("no active conversation selected")
)

// DecodeError reports a wire payload that is missing a required field or
// carries a malformed value.
type DecodeError struct {
	Payload string
	Field   string
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: invalid field %s", e.Payload, e.Field)
	}
	return fmt.Sprintf("decode %s: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError is a websocket-level failure for one connection slot. It is a
// transient signal; the connection is not retried by the transport layer.
type TransportError struct {
	Slot string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("realtime transport %s: %v", e.Slot, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is a non-success REST response. Detail carries the
// server-provided message when one was present.
type RemoteError struct {
	Status int
	Detail string
}

func (e *RemoteError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Unauthorized reports whether the response indicates a missing or rejected credential.
func (e *RemoteError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsUnauthorized reports whether err carries a 401/403 remote response.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.Unauthorized()
}
