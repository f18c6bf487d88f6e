package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an adapter failure for retry policy. Transient kinds
// (timeout, rate limit, provider outage) are retryable; everything else is
// fatal — retrying bad credentials or a malformed request only burns quota.
type ErrorKind string

const (
	KindTimeout      ErrorKind = "timeout"
	KindRateLimited  ErrorKind = "rate_limited"
	KindUnavailable  ErrorKind = "unavailable"
	KindUnauthorized ErrorKind = "unauthorized"
	KindBadRequest   ErrorKind = "bad_request"
	KindNotFound     ErrorKind = "not_found"
	KindInternal     ErrorKind = "internal"
)

// Error is the typed failure adapters raise across the boundary — callers
// never see raw transport errors.
type Error struct {
	Kind   ErrorKind
	Op     string
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s): %v", e.Source, e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Source, e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether err represents a transient condition worth
// retrying. Context deadline expiry counts: the per-attempt timeout is the
// executor's own bound, not a verdict on the request.
func Retryable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ae *Error
	if errors.As(err, &ae) {
		switch ae.Kind {
		case KindTimeout, KindRateLimited, KindUnavailable:
			return true
		}
	}
	return false
}

// KindFromStatus maps an HTTP response status to an ErrorKind.
func KindFromStatus(status int) ErrorKind {
	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindUnavailable
	case status >= 400:
		return KindBadRequest
	default:
		return KindInternal
	}
}
