// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request
// data: the form-or-JSON body parser for writes and the query parameter
// helpers the dashboard endpoints share.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finledger/internal/core"
)

const dateLayout = "2006-01-02"

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(r.Body)
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' || p.body[0] == '[' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	// Fall back to form parsing
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (core.Date, error) {
	parsedTime, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return core.Date{}, err
	}
	return core.DateOf(parsedTime), nil
}

// parseDateRange extracts the from/to query parameters, falling back to the
// given defaults when a bound is absent. The second return is false when a
// supplied bound does not parse.
func parseDateRange(query url.Values, defaultStart, defaultEnd core.Date) (core.Date, core.Date, bool) {
	start, end := defaultStart, defaultEnd

	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, false
		}
		start = d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return core.Date{}, core.Date{}, false
		}
		end = d
	}

	return start, end, true
}

// parsePeriod maps the period query parameter to a reporting window.
// The second return is false for unknown values.
func parsePeriod(s string) (core.Period, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return core.PeriodToday, true
	case "week":
		return core.PeriodThisWeek, true
	case "month":
		return core.PeriodThisMonth, true
	default:
		return 0, false
	}
}

// parseSortKey maps the sort query parameter to an ordering. Unknown values
// fall back to the date-descending default.
func parseSortKey(s string) core.SortKey {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amount_asc":
		return core.SortAmountAsc
	case "amount_desc":
		return core.SortAmountDesc
	default:
		return core.SortDateDesc
	}
}

// parseLimit reads a positive integer limit, clamped to max.
func parseLimit(query url.Values, fallback, max int) int {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
