package core

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// FilterParams are the raw, optional filter fields as they arrive from a
// collaborator. Empty strings and zero ids mean "not set".
type FilterParams struct {
	StartDate  string
	EndDate    string
	Search     string
	CategoryID int64
	UserID     int64
}

// Filter is the normalized predicate consumed by the storage queries. Both
// date bounds are inclusive on the day level: End holds the midnight after
// the requested end date, to be compared exclusively, so an expense at any
// time of day on the end date still matches.
type Filter struct {
	Start      time.Time // zero = unbounded
	End        time.Time // exclusive upper bound; zero = unbounded
	Search     string    // case-insensitive substring on expense name
	CategoryID int64     // 0 = any category
	UserID     int64     // 0 = any user
}

// BuildFilter normalizes raw filter parameters. Invalid date strings are
// rejected, not ignored. It is a pure transformation; absence of every
// field yields the match-all filter.
func BuildFilter(p FilterParams) (Filter, error) {
	var f Filter
	if s := strings.TrimSpace(p.StartDate); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Filter{}, ErrInvalidDate
		}
		f.Start = t
	}
	if s := strings.TrimSpace(p.EndDate); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return Filter{}, ErrInvalidDate
		}
		f.End = t.AddDate(0, 0, 1)
	}
	f.Search = strings.TrimSpace(p.Search)
	f.CategoryID = p.CategoryID
	f.UserID = p.UserID
	return f, nil
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Start.IsZero() && f.End.IsZero() && f.Search == "" && f.CategoryID == 0 && f.UserID == 0
}
