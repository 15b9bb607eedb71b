// This file implements budget periods as a strategy registry.
// Each period owns the rule that anchors the start of its current window.

package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Period is the recurrence unit of a budget ceiling.
type Period string

var ErrInvalidPeriod = errors.New("invalid period")

// Window is the closed range [Start, End] scoping "current period" spending.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the window, both bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// WindowStarter anchors the beginning of the period instance containing now.
type WindowStarter interface {
	Start(now time.Time) time.Time
}

// WeekStarter anchors weeks on Sunday at midnight.
type WeekStarter struct{}

func (WeekStarter) Start(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, now.Location())
}

// MonthStarter anchors months on their first day.
type MonthStarter struct{}

func (MonthStarter) Start(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// YearStarter anchors years on January 1.
type YearStarter struct{}

func (YearStarter) Start(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
}

var windowStarters = map[Period]WindowStarter{
	Weekly:  WeekStarter{},
	Monthly: MonthStarter{},
	Yearly:  YearStarter{},
}

// ParsePeriod accepts the canonical names and their short forms.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	case "yearly", "year":
		return Yearly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
}

func (p Period) Valid() bool {
	_, ok := windowStarters[p]
	return ok
}

func (p Period) String() string { return string(p) }

// WindowFor returns the window of the period instance containing now.
// Unknown periods are rejected rather than widened to "all time".
func WindowFor(p Period, now time.Time) (Window, error) {
	starter, ok := windowStarters[p]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	return Window{Start: starter.Start(now), End: now}, nil
}
