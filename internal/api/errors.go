package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors classifying service failures. Callers check them with
// errors.Is; only ErrTransient is eligible for retry.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrTransient    = errors.New("transient service error")
)

// StatusError carries the HTTP status and response body of a failed request.
// It unwraps to one of the sentinel errors above so callers can classify it
// without inspecting status codes.
type StatusError struct {
	Status int
	Body   string

	// RetryAfter is the server's Retry-After hint, when it sent one.
	RetryAfter *time.Duration
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("service returned HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("service returned HTTP %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status == http.StatusRequestTimeout || e.Status == http.StatusTooManyRequests || e.Status >= 500:
		return ErrTransient
	}
	return nil
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsUnauthorized reports whether err indicates rejected credentials.
func IsUnauthorized(err error) bool { return errors.Is(err, ErrUnauthorized) }

// IsConflict reports whether err indicates a conflicting write.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsTransient reports whether err is worth retrying at the transport layer.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }
