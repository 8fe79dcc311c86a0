package core

import (
	"errors"
	"fmt"
)

var (
	ErrExpenseNotFound                = errors.New("expense not found")
	ErrExpenseCategoryNotFound        = errors.New("expense category not found")
	ErrExpenseCategoryNameAlreadyUsed = errors.New("expense category name already used")
	ErrUserNotFound                   = errors.New("user not found")
	ErrUserAlreadyExists              = errors.New("user already exists")
)

// ValidationError reports an invalid input field.
type ValidationError struct {
	Field string
	Err   error
}

func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
