// Package errors provides domain-specific error types and sentinel errors
// shared by the loader, the index and the chat surfaces.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrDatasetMissing indicates the course table file does not exist.
	ErrDatasetMissing = errors.New("dataset missing")

	// ErrMalformedDataset indicates the course table could not be parsed
	// (column count mismatch, bad class year, unreadable sheet).
	ErrMalformedDataset = errors.New("malformed dataset")

	// ErrStopwordsUnavailable indicates the stopword list could neither be
	// read from the cache nor fetched.
	ErrStopwordsUnavailable = errors.New("stopwords unavailable")

	// ErrEmptyCorpus indicates the similarity index was fit on zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")

	// ErrSessionNotFound indicates an unknown or evicted chat session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the caller exceeded its request quota.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// IsStartupError reports whether err belongs to the fatal startup taxonomy.
func IsStartupError(err error) bool {
	return errors.Is(err, ErrDatasetMissing) ||
		errors.Is(err, ErrMalformedDataset) ||
		errors.Is(err, ErrStopwordsUnavailable) ||
		errors.Is(err, ErrEmptyCorpus)
}

// IsSessionNotFound reports whether err wraps ErrSessionNotFound.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

// DatasetError describes a problem with one row of the course table.
type DatasetError struct {
	Path   string
	Row    int // 1-based row in the source, 0 when not row specific
	Reason string
	Err    error
}

func (e *DatasetError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("dataset %s row %d: %s: %v", e.Path, e.Row, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Reason, e.Err)
}

func (e *DatasetError) Unwrap() error {
	return e.Err
}

// NewDatasetError creates a new dataset error wrapping ErrMalformedDataset.
func NewDatasetError(path string, row int, reason string) *DatasetError {
	return &DatasetError{
		Path:   path,
		Row:    row,
		Reason: reason,
		Err:    ErrMalformedDataset,
	}
}

// ValidationError represents a rejected user input. It wraps ErrInvalidInput.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
