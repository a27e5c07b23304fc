package chat

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUpstream matches every failed model call.
	ErrUpstream = errors.New("upstream model request failed")
	// ErrUpstreamAuth matches model calls rejected for bad credentials.
	ErrUpstreamAuth = errors.New("upstream model rejected credentials")
)

// ValidationError reports a malformed chat request. Message is safe to
// show to the end user.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UpstreamError wraps a provider failure. StatusCode is 0 when the request
// never produced an HTTP response.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is lets callers match with errors.Is(err, ErrUpstream) or ErrUpstreamAuth.
func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrUpstreamAuth:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
