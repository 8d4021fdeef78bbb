// Package domain defines domain-specific errors.
// These errors represent business logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that repositories, drivers and services can return.
var (
	// ErrRecordNotFound is returned when a key has no stored value.
	ErrRecordNotFound = errors.New("record not found")

	// ErrStorageUnavailable is returned when the backing store cannot be opened.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrUnknownCollection is returned when a transaction touches a collection
	// outside its declared scope or the schema.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrReadOnlyTransaction is returned when a write is attempted in a read-only transaction.
	ErrReadOnlyTransaction = errors.New("transaction is read-only")

	// ErrNotTransient is returned when a reference is not a transient handle.
	ErrNotTransient = errors.New("reference is not a transient handle")

	// ErrHandleNotFound is returned when a transient handle is unknown or was revoked.
	ErrHandleNotFound = errors.New("transient handle not found")

	// ErrFixedSong is returned when deleting a song that belongs to the fixed catalog.
	ErrFixedSong = errors.New("fixed songs cannot be deleted")

	ErrSongNotFound     = errors.New("song not found")
	ErrPlaylistNotFound = errors.New("playlist not found")

	// ErrEmptyQuery is returned when a search or resolve query is blank.
	ErrEmptyQuery = errors.New("empty query")

	// ErrNoMetadata is returned when a resolver found nothing usable.
	ErrNoMetadata = errors.New("no metadata resolved")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")
)

// RepositoryError represents an error from a repository or storage driver.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load", "open")
	Type    string // Repository type (e.g., "songs", "profiles", "pebble")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("repository %s.%s failed: %s: %v", e.Type, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string      // Field that failed validation
	Value   interface{} // Value that failed validation
	Message string      // Error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "LibraryService", "SessionService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
