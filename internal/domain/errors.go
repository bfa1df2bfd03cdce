package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument signals a malformed request (blank query, non-positive limit, bad filter value).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDimensionMismatch signals a vector whose size differs from the configured dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrSourceFetch signals that a job description URL could not be dereferenced into text.
	ErrSourceFetch = errors.New("source fetch failed")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrEnhancement signals a query rewriting failure. Never fatal to a recommendation.
	ErrEnhancement = errors.New("query enhancement failed")
	// ErrUnknownFilterKey signals a filter key outside the record schema.
	ErrUnknownFilterKey = errors.New("unknown filter key")
	// ErrProviderNotConfigured signals a missing provider credential.
	ErrProviderNotConfigured = errors.New("provider not configured")
)

// DimensionMismatchError wraps ErrDimensionMismatch with the offending vector position.
// Index is -1 for a query vector.
type DimensionMismatchError struct {
	Expected int
	Got      int
	Index    int
}

func (e *DimensionMismatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: query vector has %d dimensions, expected %d",
			ErrDimensionMismatch.Error(), e.Got, e.Expected)
	}
	return fmt.Sprintf("%s: vector %d has %d dimensions, expected %d",
		ErrDimensionMismatch.Error(), e.Index, e.Got, e.Expected)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(expected, got, index int) error {
	return &DimensionMismatchError{Expected: expected, Got: got, Index: index}
}

// SourceFetchError wraps ErrSourceFetch with the URL that failed.
type SourceFetchError struct {
	URL string
	Err error
}

func (e *SourceFetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrSourceFetch.Error(), e.URL)
	}
	return fmt.Sprintf("%s: %s: %v", ErrSourceFetch.Error(), e.URL, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *SourceFetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSourceFetch}
	}
	return []error{ErrSourceFetch, e.Err}
}

// NewSourceFetch creates a source fetch error.
func NewSourceFetch(url string, err error) error {
	return &SourceFetchError{URL: url, Err: err}
}
