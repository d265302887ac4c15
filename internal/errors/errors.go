// Package errors defines the error taxonomy shared by the vault core.
package errors

import (
	"errors"
	"fmt"
)

// Input errors are correctable by the user.
var (
	// ErrInvalidInput indicates a validation failure such as a short password or an empty required field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPasswordAlreadySet indicates a master password exists and must be changed, not created.
	ErrPasswordAlreadySet = errors.New("master password already set")
)

// Authentication errors leave the vault locked and unchanged.
var (
	// ErrAuthenticationFailed indicates the supplied master password did not match.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrNoPasswordSet indicates no master password has been created yet.
	ErrNoPasswordSet = errors.New("no master password set")

	// ErrLocked indicates the session was invalidated by a lock.
	ErrLocked = errors.New("vault is locked")
)

// Data errors.
var (
	// ErrDecryptionFailed indicates a ciphertext could not be opened with the supplied key.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrPersistence indicates the store could not be written; in-memory state is unchanged.
	ErrPersistence = errors.New("persistence failed")
)

// InvalidInputError describes which field failed validation and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports ErrInvalidInput so callers can match the category.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InvalidInput builds an InvalidInputError.
func InvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}
