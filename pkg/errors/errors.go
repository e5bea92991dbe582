package errors

import (
	"errors"
	"fmt"
)

// Standard error kinds
var (
	ErrAuthentication = errors.New("authentication error")
	ErrConfiguration  = errors.New("configuration error")
	ErrTransport      = errors.New("transport error")
	ErrUpstream       = errors.New("upstream error")
	ErrPagination     = errors.New("pagination error")
	ErrMissingData    = errors.New("missing data")
	ErrPersistence    = errors.New("persistence error")
	ErrValidation     = errors.New("validation error")
)

// WrapError wraps an error with a standard error kind.
// Both the kind and the cause stay reachable through errors.Is.
func WrapError(err error, kind error, message string) error {
	if err == nil {
		return fmt.Errorf("%w: %s", kind, message)
	}
	return fmt.Errorf("%w: %s: %w", kind, message, err)
}

// UpstreamError is a non-success HTTP response from the marketplace.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrUpstream) match any *UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As provides a convenience wrapper around errors.As
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap provides a convenience wrapper around errors.Unwrap
func Unwrap(err error) error {
	return errors.Unwrap(err)
}
