package activation

import (
	"errors"
	"fmt"
)

// NotFoundError means the presented activation code does not exist.
//
// Returned with the normalized code so callers can echo what was
// actually looked up, not the raw wire input.
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("activation code %q not found", e.Code)
}

// AlreadyUsedError means the activation code was consumed by a different
// device. UsedBy names the consuming device identity.
type AlreadyUsedError struct {
	Code   string
	UsedBy string
}

func (e *AlreadyUsedError) Error() string {
	return fmt.Sprintf("activation code %q already used by device %s", e.Code, e.UsedBy)
}

// ConflictError means an activation code with this value already exists
// in the pool.
type ConflictError struct {
	Code string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("activation code %q already exists", e.Code)
}

// ValidationError means a required field was empty after normalization.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s must not be empty", e.Field)
}

// IsNotFound returns true if the error is an unknown-code error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAlreadyUsed returns true if the error is a consumed-code error.
// Uses errors.As to handle wrapped errors.
func IsAlreadyUsed(err error) bool {
	var e *AlreadyUsedError
	return errors.As(err, &e)
}

// IsConflict returns true if the error is a duplicate-code error.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsValidation returns true if the error is an empty-field error.
// Uses errors.As to handle wrapped errors.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
