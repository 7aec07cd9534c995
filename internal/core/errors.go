package core

import (
	"errors"
	"fmt"
)

// ErrValidation is the base kind for every validation failure. Specific
// failures wrap it so callers can classify with errors.Is without matching
// each sentinel.
var ErrValidation = errors.New("validation failed")

// ErrNotFound marks a referenced id that does not exist. Never retried.
var ErrNotFound = errors.New("not found")

var (
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be a positive number", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date format, use YYYY-MM-DD", ErrValidation)
	ErrEmptyExpenseName     = fmt.Errorf("%w: expense name is required", ErrValidation)
	ErrCategoryNameTooShort = fmt.Errorf("%w: category name must be at least 3 characters long", ErrValidation)
	ErrMissingCategory      = fmt.Errorf("%w: category is required", ErrValidation)
	ErrInvalidUsername      = fmt.Errorf("%w: username must be at least 3 characters long and contain no spaces", ErrValidation)
	ErrWeakPassword         = fmt.Errorf("%w: password must be at least 6 characters long and contain an uppercase and lowercase letter, a number, and a special character", ErrValidation)
	ErrNoFieldsToUpdate     = fmt.Errorf("%w: no valid fields to update", ErrValidation)

	// Unique-index violations surface as these; the store translates the
	// raw constraint error, the advisory pre-check returns them directly.
	ErrDuplicateCategory = fmt.Errorf("%w: category already exists, please choose a different one", ErrValidation)
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists, please choose a different one", ErrValidation)
)

// CascadeError reports a multi-step cascade delete that stopped partway.
// It carries the counts completed before the failing step so callers can
// see how far the cascade got; every step is idempotent, so retrying the
// whole operation is safe.
type CascadeError struct {
	Op                string
	CategoriesRemoved int64
	ExpensesRemoved   int64
	Err               error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("%s: cascade incomplete (categories removed: %d, expenses removed: %d): %v",
		e.Op, e.CategoriesRemoved, e.ExpensesRemoved, e.Err)
}

func (e *CascadeError) Unwrap() error { return e.Err }
