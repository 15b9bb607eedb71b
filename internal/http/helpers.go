package http

import (
	"net/http"
	"strings"
	"time"
)

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// parseInstant reads ?at=RFC3339 and falls back to now. Window boundaries are
// computed in the location of the returned time.
func parseInstant(r *http.Request, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("at"))
	if v == "" {
		return now, nil
	}
	return time.Parse(time.RFC3339, v)
}

// parseDate accepts a calendar date (YYYY-MM-DD) or a full RFC 3339 timestamp.
// Calendar dates are placed at midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, s)
}
