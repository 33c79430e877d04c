package chat

import (
	"errors"
	"fmt"
)

// ErrContentFormat marks model output that was malformed or failed schema
// validation. It is recovered internally via repair-then-fallback and never
// escapes the client boundary.
var ErrContentFormat = errors.New("model output failed content validation")

// ErrorKind categorizes upstream API failures.
type ErrorKind string

const (
	ErrKindAuth      ErrorKind = "authentication_error"
	ErrKindQuota     ErrorKind = "quota_error"
	ErrKindUpstream  ErrorKind = "upstream_error"
	ErrKindTransport ErrorKind = "transport_error"
)

// APIError is a classified upstream failure: the inference service itself is
// unavailable or rejecting requests, as opposed to returning malformed
// content. These are surfaced to the caller, never converted to a fallback
// response.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// UserMessage returns a human-readable message category for the UI layer.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case ErrKindAuth:
		return "The assistant service rejected our credentials. Please check the API key."
	case ErrKindQuota:
		return "The assistant service is over its usage limit. Please try again later."
	case ErrKindTransport:
		return "Network error. Please check your connection and try again."
	default:
		return "The assistant service is having trouble right now. Please try again."
	}
}

// NewTransportError wraps a network-level failure (DNS, timeout, connection
// reset). Transport timeouts are treated identically to network failures.
func NewTransportError(op string, err error) *APIError {
	return &APIError{
		Kind:    ErrKindTransport,
		Message: fmt.Sprintf("%s: %v", op, err),
		err:     err,
	}
}

// classifyStatus maps an HTTP status from the inference API to a typed error.
func classifyStatus(status int, message string) *APIError {
	kind := ErrKindUpstream
	switch {
	case status == 401 || status == 403:
		kind = ErrKindAuth
	case status == 429:
		kind = ErrKindQuota
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrKindTransport
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrKindAuth
}

// IsQuota reports whether err is a quota or rate-limit failure.
func IsQuota(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrKindQuota
}
