package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a provider failure for retry decisions.
type Kind string

const (
	// KindAuth is an invalid or missing credential failure. Not retryable.
	KindAuth Kind = "auth"
	// KindRateLimit is provider throttling. Retryable after a delay.
	KindRateLimit Kind = "rate_limit"
	// KindNetwork is a timeout, connection error or 5xx. Retryable.
	KindNetwork Kind = "network"
	// KindValidation is a malformed query or response shape. Not retryable.
	KindValidation Kind = "validation"
	// KindUnknown is the catch-all. Retried once, then surfaced.
	KindUnknown Kind = "unknown"
)

// Error is a classified provider failure.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether a retry may succeed for this failure class.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindNetwork, KindUnknown:
		return true
	default:
		return false
	}
}

// NewError wraps err as a classified provider failure.
func NewError(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// Errorf is NewError with fmt.Errorf formatting.
func Errorf(kind Kind, provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure class from err, KindUnknown if unclassified.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}

// Classify maps an HTTP status code or transport error to a provider failure.
// A non-nil err wins over the status code: cancelled or timed-out calls are
// network-class so the retry budget decides whether they surface.
func Classify(providerName string, statusCode int, err error) *Error {
	if err != nil {
		var perr *Error
		if errors.As(err, &perr) {
			return perr
		}
		return NewError(KindNetwork, providerName, err)
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return Errorf(KindAuth, providerName, "status %d: credentials rejected", statusCode)
	case statusCode == http.StatusTooManyRequests:
		return Errorf(KindRateLimit, providerName, "status %d: throttled", statusCode)
	case statusCode >= 500:
		return Errorf(KindNetwork, providerName, "status %d: upstream error", statusCode)
	case statusCode == http.StatusBadRequest || statusCode == http.StatusUnprocessableEntity:
		return Errorf(KindValidation, providerName, "status %d: malformed request", statusCode)
	default:
		return Errorf(KindUnknown, providerName, "unexpected status %d", statusCode)
	}
}
