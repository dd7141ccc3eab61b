package vault

import (
	"errors"
	"fmt"
)

// ErrorCode represents the type of error that occurred.
type ErrorCode int

const (
	// ErrInvalidState indicates an operation was attempted on a handle
	// that is no longer open. This is raised by the lifecycle manager at
	// admission time and never wraps a backend failure.
	ErrInvalidState ErrorCode = iota + 1

	// ErrNotFound indicates the named file does not exist.
	ErrNotFound

	// ErrAlreadyExists indicates the named file already exists.
	ErrAlreadyExists

	// ErrBusy indicates the named file is held by an open handle.
	ErrBusy

	// ErrInvalidArgument indicates an invalid argument was provided.
	ErrInvalidArgument

	// ErrNoCapacity indicates the store capacity would be exceeded.
	ErrNoCapacity

	// ErrIOError indicates an I/O error in the storage backend.
	ErrIOError
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrInvalidState:
		return "InvalidState"
	case ErrNotFound:
		return "NotFound"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrBusy:
		return "Busy"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrNoCapacity:
		return "NoCapacity"
	case ErrIOError:
		return "IOError"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// VaultError represents a store error with an error code.
type VaultError struct {
	Code    ErrorCode
	Message string
	Name    string // file name, when known
	Err     error  // wrapped backend error, if any
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name: %s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped backend error, if any.
func (e *VaultError) Unwrap() error {
	return e.Err
}

// Code extracts the ErrorCode from an error chain.
// Returns 0 if the error is nil or carries no VaultError.
func Code(err error) ErrorCode {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return 0
}

// IsInvalidState reports whether err is a lifecycle admission failure.
func IsInvalidState(err error) bool {
	return Code(err) == ErrInvalidState
}

// NewInvalidStateError creates an InvalidState error for the named file.
func NewInvalidStateError(name string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidState,
		Message: "handle is not open",
		Name:    name,
	}
}

// NewNotFoundError creates a NotFound error.
func NewNotFoundError(name string) *VaultError {
	return &VaultError{
		Code:    ErrNotFound,
		Message: "file not found",
		Name:    name,
	}
}

// NewAlreadyExistsError creates an AlreadyExists error.
func NewAlreadyExistsError(name string) *VaultError {
	return &VaultError{
		Code:    ErrAlreadyExists,
		Message: "file already exists",
		Name:    name,
	}
}

// NewBusyError creates a Busy error.
func NewBusyError(name string) *VaultError {
	return &VaultError{
		Code:    ErrBusy,
		Message: "file is held by an open handle",
		Name:    name,
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(message string) *VaultError {
	return &VaultError{
		Code:    ErrInvalidArgument,
		Message: message,
	}
}

// NewNoCapacityError creates a NoCapacity error.
func NewNoCapacityError(requested, remaining uint64) *VaultError {
	return &VaultError{
		Code:    ErrNoCapacity,
		Message: fmt.Sprintf("requested %d bytes, %d remaining", requested, remaining),
	}
}

// NewIOError creates an IOError wrapping a backend failure.
func NewIOError(name string, err error) *VaultError {
	return &VaultError{
		Code:    ErrIOError,
		Message: "backend I/O failed",
		Name:    name,
		Err:     err,
	}
}
