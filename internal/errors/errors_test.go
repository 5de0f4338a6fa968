package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsStartupError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Dataset missing is fatal",
			err:      ErrDatasetMissing,
			expected: true,
		},
		{
			name:     "Wrapped empty corpus is fatal",
			err:      fmt.Errorf("fit index: %w", ErrEmptyCorpus),
			expected: true,
		},
		{
			name:     "Stopwords joined with context is fatal",
			err:      errors.Join(ErrStopwordsUnavailable, errors.New("dial tcp: timeout")),
			expected: true,
		},
		{
			name:     "Dataset row error is fatal",
			err:      NewDatasetError("ders.csv", 3, "bad class year"),
			expected: true,
		},
		{
			name:     "Session not found is not fatal",
			err:      ErrSessionNotFound,
			expected: false,
		},
		{
			name:     "Invalid input is not fatal",
			err:      ErrInvalidInput,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStartupError(tt.err); got != tt.expected {
				t.Errorf("IsStartupError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestDatasetError(t *testing.T) {
	err := NewDatasetError("ders.xlsx", 7, "expected 15 columns, got 16")

	if !errors.Is(err, ErrMalformedDataset) {
		t.Error("expected DatasetError to unwrap to ErrMalformedDataset")
	}

	want := "dataset ders.xlsx row 7: expected 15 columns, got 16: malformed dataset"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	noRow := &DatasetError{Path: "ders.db", Reason: "open", Err: errors.New("locked")}
	if noRow.Error() != "dataset ders.db: open: locked" {
		t.Errorf("unexpected message without row: %q", noRow.Error())
	}
}

func TestIsSessionNotFound(t *testing.T) {
	wrapped := fmt.Errorf("session %s: %w", "abc", ErrSessionNotFound)
	if !IsSessionNotFound(wrapped) {
		t.Error("expected wrapped ErrSessionNotFound to be recognized")
	}
	if IsSessionNotFound(ErrInvalidInput) {
		t.Error("ErrInvalidInput must not be recognized as session not found")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("question", "must not be empty")
	if got, want := err.Error(), "validation failed on question: must not be empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected ValidationError to wrap ErrInvalidInput")
	}
}
