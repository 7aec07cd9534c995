package core

import (
	"errors"
	"testing"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
	}{
		{"Food", true},
		{"abc", true},
		{"ab", false},
		{"  a  ", false},
		{"", false},
	}
	for i, tc := range cases {
		err := (Category{Name: tc.name}).Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Name:       "Groceries",
		Amount:     Money{Cents: 1250},
		CategoryID: 1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Name: "", Amount: Money{Cents: 1}, CategoryID: 1},
		{Name: "a", Amount: Money{Cents: 0}, CategoryID: 1},
		{Name: "a", Amount: Money{Cents: -5}, CategoryID: 1},
		{Name: "a", Amount: Money{Cents: 1}, CategoryID: 0},
	}
	for i, e := range bads {
		err := e.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d: error should wrap ErrValidation, got %v", i, err)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if err := ValidateUsername("alice"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, bad := range []string{"ab", "has space", ""} {
		if err := ValidateUsername(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Abc1@x"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []string{
		"short",    // too short
		"abc1@xy",  // no uppercase
		"ABC1@XY",  // no lowercase
		"Abcd@xy",  // no digit
		"Abcd1xy",  // no special
		"Abc 1@x",  // space
	}
	for _, bad := range bads {
		if err := ValidatePassword(bad); !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("expected weak password error for %q, got %v", bad, err)
		}
	}
}
