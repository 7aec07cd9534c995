// This file implements utilities for parsing and validating HTTP request
// data: path ids, filter query parameters, and JSON bodies.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendtrack/internal/core"
)

// maxBodyBytes caps JSON request bodies. Nothing the API accepts comes
// close to this.
const maxBodyBytes = 1 << 20

var errInvalidBody = fmt.Errorf("%w: invalid request body", core.ErrValidation)

// parsePathID extracts the {id} path segment as a positive integer.
func parsePathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid id %q", core.ErrValidation, raw)
	}
	return id, nil
}

// parseFilterParams reads the shared reporting filter from the query string.
// Date validation happens later when the filter is built.
func parseFilterParams(r *http.Request) (core.FilterParams, error) {
	q := r.URL.Query()
	p := core.FilterParams{
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
		Search:    q.Get("search"),
	}

	if v := strings.TrimSpace(q.Get("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return core.FilterParams{}, fmt.Errorf("%w: invalid category_id %q", core.ErrValidation, v)
		}
		p.CategoryID = id
	}
	if v := strings.TrimSpace(q.Get("user_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id < 1 {
			return core.FilterParams{}, fmt.Errorf("%w: invalid user_id %q", core.ErrValidation, v)
		}
		p.UserID = id
	}

	return p, nil
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields and
// oversized payloads.
func decodeJSON(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidBody
	}
	// A second value means trailing garbage after the object.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errInvalidBody
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseAmount converts a JSON amount into cents. Amounts arrive as JSON
// numbers in decimal currency units.
func parseAmount(n json.Number) (int64, error) {
	if n == "" {
		return 0, core.ErrInvalidAmount
	}
	return core.ParseDecimalToCents(n.String())
}

// parseSpentAt parses an optional YYYY-MM-DD occurrence date. It returns
// nil when the field is absent so callers can fall back to now.
func parseSpentAt(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil, core.ErrInvalidDate
	}
	utc := parsed.UTC()
	return &utc, nil
}
