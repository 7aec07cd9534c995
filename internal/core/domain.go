package core

import (
	"strings"
	"time"
)

type (
	// Money is a monetary amount in integer cents. Calculations always use
	// cents to avoid floating-point drift.
	Money struct {
		Cents int64
	}

	User struct {
		ID           int64
		Username     string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID          int64
		Name        string
		Description string
		UserID      int64 // 0 when the category has no owner
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Expense struct {
		ID           int64
		Name         string
		Amount       Money
		CategoryID   int64
		CategoryName string // populated on joined reads, not persisted
		UserID       int64  // 0 when the expense has no owner
		SpentAt      time.Time
		Description  string
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}
)

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Float64 returns the amount in major currency units for display.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) < 3 {
		return ErrCategoryNameTooShort
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyExpenseName
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if e.CategoryID == 0 {
		return ErrMissingCategory
	}
	return nil
}

// ValidateUsername enforces the account naming rules: at least three
// characters, no whitespace.
func ValidateUsername(username string) error {
	if len(username) < 3 || strings.ContainsAny(username, " \t") {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the password policy: at least six characters,
// one uppercase letter, one lowercase letter, one digit, one special
// character, no spaces.
func ValidatePassword(password string) error {
	if len(password) < 6 || strings.ContainsAny(password, " \t") {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("@$!%*?&", r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// NormalizeSpentAt applies the default occurrence date: expenses without an
// explicit date are dated at creation time.
func NormalizeSpentAt(spentAt time.Time, now time.Time) time.Time {
	if spentAt.IsZero() {
		return now
	}
	return spentAt
}
