package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPosition = errors.New("position is required")
	ErrBadPagination = errors.New("page and page_size must be >= 1")

	// ErrVerification marks a page that answered with a captcha or login wall
	// instead of results.
	ErrVerification = errors.New("verification challenge")
)

// AdapterError is a hard failure of a single source. The engine turns it into a
// zero count for that source; it never escapes an aggregation.
type AdapterError struct {
	Source string
	Cause  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Cause)
}

func (e *AdapterError) Unwrap() error { return e.Cause }

// NewAdapterError wraps cause unless it already is an AdapterError.
func NewAdapterError(source string, cause error) error {
	if cause == nil {
		return nil
	}
	var ae *AdapterError
	if errors.As(cause, &ae) {
		return cause
	}
	return &AdapterError{Source: source, Cause: cause}
}
