package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller lacks permission for this action
	ErrForbidden = errors.New("forbidden")

	// ErrTokenExpired indicates the admin token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the admin token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrInvalidProvider indicates an unknown embedding provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrServiceUnavailable indicates no embedding service is configured or reachable
	ErrServiceUnavailable = errors.New("service unavailable")
)

// ErrorKind classifies failures of calls that leave the process
// (embedding provider, page fetch, PDF extraction, store).
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindRateLimited  ErrorKind = "rate_limited"
	KindTimeout      ErrorKind = "timeout"
	KindUnavailable  ErrorKind = "unavailable"
	KindBadResponse  ErrorKind = "bad_response"
	KindInternal     ErrorKind = "internal"
)

// Retryable reports whether repeating the same call may succeed
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTimeout, KindUnavailable:
		return true
	}
	return false
}

// ExternalError is the failure arm of an external call
type ExternalError struct {
	Kind    ErrorKind
	Op      string
	Message string
	Err     error
}

// NewExternalError creates an ExternalError
func NewExternalError(kind ErrorKind, op, message string, err error) *ExternalError {
	return &ExternalError{Kind: kind, Op: op, Message: message, Err: err}
}

func (e *ExternalError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind. Context expiry is a timeout; anything
// unclassified is internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ext *ExternalError
	if errors.As(err, &ext) {
		return ext.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrServiceUnavailable):
		return KindUnavailable
	}
	return KindInternal
}

// Provider error codes that identify a kind without looking at the message.
var providerCodeKinds = map[string]ErrorKind{
	"rate_limit_exceeded":     KindRateLimited,
	"insufficient_quota":      KindRateLimited,
	"invalid_api_key":         KindUnauthorized,
	"model_not_found":         KindNotFound,
	"context_length_exceeded": KindValidation,
	"server_error":            KindUnavailable,
}

// ClassifyHTTPFailure maps a failed HTTP exchange to an ErrorKind.
// Provider codes win over status codes; the message is inspected only when
// neither identifies the failure.
func ClassifyHTTPFailure(status int, code, message string) ErrorKind {
	if kind, ok := providerCodeKinds[strings.ToLower(code)]; ok {
		return kind
	}

	switch {
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound || status == http.StatusGone:
		return KindNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return KindTimeout
	case status >= 500:
		return KindUnavailable
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if isRateLimitMessage(message) {
			return KindRateLimited
		}
		return KindValidation
	}

	if isRateLimitMessage(message) {
		return KindRateLimited
	}
	if status >= 200 && status < 300 {
		return KindBadResponse
	}
	return KindInternal
}

func isRateLimitMessage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "rate limit") ||
		strings.Contains(m, "rate_limit") ||
		strings.Contains(m, "too many requests")
}

// ClassifyTransportError maps a failure to get any HTTP response at all.
// Deadlines and network timeouts are timeouts; everything else means the
// remote end is unavailable.
func ClassifyTransportError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindUnavailable
}
