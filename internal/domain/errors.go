package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDataViewNotFound signals an unknown data view name.
	ErrDataViewNotFound = errors.New("data view not found")
	// ErrDocumentNotFound signals a document missing from the loaded batch.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidQuery signals a query the backend cannot run.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidOptions signals malformed page options.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrBackendUnavailable signals a failed document fetch.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEmptySelection signals a CSV export without selected fields.
	ErrEmptySelection = errors.New("no fields selected")
)

// BackendError wraps ErrBackendUnavailable with the status and message the backend returned.
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", ErrBackendUnavailable.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", ErrBackendUnavailable.Error(), e.StatusCode, e.Message)
}

func (e *BackendError) Unwrap() error { return ErrBackendUnavailable }

// NewBackendError creates a backend error.
func NewBackendError(status int, message string) error {
	return &BackendError{StatusCode: status, Message: message}
}
