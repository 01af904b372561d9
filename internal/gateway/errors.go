package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a gateway failure so callers can decide between retrying,
// re-authenticating and giving up
type Kind int

const (
	// KindTransient covers network failures and 5xx responses
	KindTransient Kind = iota
	// KindAuth means the session is no longer authenticated (401)
	KindAuth
	// KindNotFound means the referenced entity is gone server-side (404)
	KindNotFound
	// KindRateLimit means the server asked us to slow down (429)
	KindRateLimit
	// KindInvalid covers every other client fault (bad request, bad payload)
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "invalid"
	}
}

// Error is the typed failure returned by every gateway call
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	// RetryAfter is the server-specified wait for rate-limited requests
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("gateway %s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("gateway %s error: %s", e.Kind, e.Message)
}

// classify maps an HTTP status to the error taxonomy
func classify(statusCode int, message string, retryAfter time.Duration) *Error {
	kind := KindInvalid
	switch {
	case statusCode == http.StatusUnauthorized:
		kind = KindAuth
	case statusCode == http.StatusNotFound:
		kind = KindNotFound
	case statusCode == http.StatusTooManyRequests:
		kind = KindRateLimit
	case statusCode >= 500:
		kind = KindTransient
	}
	return &Error{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		RetryAfter: retryAfter,
	}
}

// IsKind reports whether err is a gateway error of the given kind
func IsKind(err error, kind Kind) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == kind
}

// IsRetryable reports whether err should be retried with exponential backoff.
// Transport-level failures carry no *Error and count as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind == KindTransient
	}
	return true
}

// RetryAfter extracts the server-specified delay from a rate-limit error
func RetryAfter(err error) (time.Duration, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Kind == KindRateLimit {
		return gwErr.RetryAfter, true
	}
	return 0, false
}
