package core

import (
	"errors"
	"testing"
	"time"
)

func TestBuildFilterEmpty(t *testing.T) {
	f, err := BuildFilter(FilterParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.IsZero() {
		t.Fatalf("expected match-all filter, got %+v", f)
	}
}

func TestBuildFilterDates(t *testing.T) {
	f, err := BuildFilter(FilterParams{StartDate: "2024-01-02", EndDate: "2024-01-31"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStart := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if !f.Start.Equal(wantStart) {
		t.Fatalf("start = %v, want %v", f.Start, wantStart)
	}
	// End bound is the midnight after the requested day, so the entire end
	// date is included.
	wantEnd := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !f.End.Equal(wantEnd) {
		t.Fatalf("end = %v, want %v", f.End, wantEnd)
	}
}

func TestBuildFilterSingleBound(t *testing.T) {
	f, err := BuildFilter(FilterParams{StartDate: "2024-01-02"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Start.IsZero() || !f.End.IsZero() {
		t.Fatalf("expected start-only filter, got %+v", f)
	}

	f, err = BuildFilter(FilterParams{EndDate: "2024-01-02"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !f.Start.IsZero() || f.End.IsZero() {
		t.Fatalf("expected end-only filter, got %+v", f)
	}
}

func TestBuildFilterInvalidDate(t *testing.T) {
	for _, bad := range []string{"01-02-2024", "2024/01/02", "yesterday", "2024-13-40"} {
		_, err := BuildFilter(FilterParams{StartDate: bad})
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("StartDate %q: expected ErrInvalidDate, got %v", bad, err)
		}
		_, err = BuildFilter(FilterParams{EndDate: bad})
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("EndDate %q: expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestBuildFilterPassthrough(t *testing.T) {
	f, err := BuildFilter(FilterParams{Search: "  coffee ", CategoryID: 7, UserID: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Search != "coffee" {
		t.Fatalf("search = %q, want trimmed %q", f.Search, "coffee")
	}
	if f.CategoryID != 7 || f.UserID != 3 {
		t.Fatalf("ids not carried over: %+v", f)
	}
}
