// Package errors provides error types and handling for S3 task operations.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents a task error with context about the operation that failed.
// It wraps the underlying AWS SDK or filesystem error with additional context.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "download", "list")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key or local path (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("s3tasks.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("s3tasks.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("s3tasks.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("s3tasks.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key or path context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewObjectError creates a new Error with bucket and key context.
func NewObjectError(op, bucket, key string, err error) *Error {
	return &Error{
		Op:     op,
		Bucket: bucket,
		Key:    key,
		Err:    err,
	}
}

// ValidationError lists the required fields that were empty or whitespace.
// Fields are kept in alphabetical order so messages are deterministic.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "required fields are empty: " + strings.Join(e.Fields, ", ")
}

// Is reports ValidationError as an ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Sentinel errors for task failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidInput indicates that a request, connection, or option is invalid
	ErrInvalidInput = errors.New("s3tasks: invalid input")

	// ErrPathNotFound indicates that a local source or destination directory does not exist
	ErrPathNotFound = errors.New("s3tasks: path not found")

	// ErrObjectNotFound indicates that the requested object does not exist
	ErrObjectNotFound = errors.New("s3tasks: object not found")

	// ErrNoMatch indicates that no files or objects matched the selection
	ErrNoMatch = errors.New("s3tasks: no matches")

	// ErrConflict indicates that the destination already exists and overwrite is disabled
	ErrConflict = errors.New("s3tasks: destination already exists")

	// ErrInvalidObjectKey indicates that a computed object key is invalid
	ErrInvalidObjectKey = errors.New("s3tasks: invalid object key")

	// ErrInvalidCredentials indicates that the AWS credentials were rejected
	ErrInvalidCredentials = errors.New("s3tasks: invalid credentials")

	// ErrAccessDenied indicates that access to the resource is denied
	ErrAccessDenied = errors.New("s3tasks: access denied")
)

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsPathNotFound checks if an error indicates a missing local directory.
func IsPathNotFound(err error) bool {
	return errors.Is(err, ErrPathNotFound)
}

// IsObjectNotFound checks if an error indicates that an object was not found.
func IsObjectNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// IsNoMatch checks if an error indicates an empty selection.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch)
}

// IsConflict checks if an error indicates an existing destination.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidCredentials checks if an error indicates rejected credentials.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// IsAccessDenied checks if an error indicates access was denied.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied)
}
