// Package calendar parses the league's free-text dates against an explicit
// season year instead of assuming one.
package calendar

import (
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/en"
)

// Layouts tried for dates that already carry a year.
var fullLayouts = []string{ //nolint:gochecknoglobals // read-only layout table
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"2006/1/2 15:04",
	"2006/1/2 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// Layouts tried for record dates written as month/day.
var shortLayouts = []string{ //nolint:gochecknoglobals // read-only layout table
	"1/2",
	"1-2",
	"1.2",
}

// Calendar resolves date strings to instants in a fixed location.
type Calendar struct {
	year     int
	loc      *time.Location
	extra    []string
	layouts  []string
	fallback bool
	parser   *when.Parser
}

// New creates a Calendar. Without WithSeasonYear the current year is used.
func New(opts ...Option) *Calendar {
	c := &Calendar{
		year:     time.Now().Year(),
		loc:      time.Local,
		fallback: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.layouts = append(append([]string{}, c.extra...), fullLayouts...)
	if c.fallback {
		// Month names only. Numeric and relative rules would guess at day
		// order or anchor "now" to the season start.
		c.parser = when.New(nil)
		c.parser.Add(en.ExactMonthDate(rules.Override))
	}
	return c
}

// Year returns the season year used for month/day dates.
func (c *Calendar) Year() int { return c.year }

// Location returns the location dates are interpreted in.
func (c *Calendar) Location() *time.Location { return c.loc }

// Parse resolves s. The second return value is false when s is empty or
// cannot be understood; callers treat such dates as older than any other.
func (c *Calendar) Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := c.parseNumeric(s); ok {
		return t, true
	}
	// "3/1 (Sat)", "3/1 週六": the leading token carries the date.
	if tok := leadingToken(s); tok != s {
		if t, ok := c.parseNumeric(tok); ok {
			return t, true
		}
	}
	if startsWithDigit(s) {
		return time.Time{}, false
	}

	if c.parser == nil {
		return time.Time{}, false
	}
	base := time.Date(c.year, time.January, 1, 0, 0, 0, 0, c.loc)
	r, err := c.parser.Parse(s, base)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return Day(r.Time.In(c.loc)), true
}

func (c *Calendar) parseNumeric(s string) (time.Time, bool) {
	for _, layout := range c.layouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, true
		}
	}
	for _, layout := range shortLayouts {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return time.Date(c.year, t.Month(), t.Day(), 0, 0, 0, 0, c.loc), true
		}
	}
	return time.Time{}, false
}

// leadingToken cuts s at the first space or opening bracket.
func leadingToken(s string) string {
	if i := strings.IndexAny(s, " \t(（"); i > 0 {
		return s[:i]
	}
	return s
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Within reports whether t falls in [from, to]. A zero bound is open.
func Within(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

// WithYear returns a copy of c that resolves month/day dates in year.
func (c *Calendar) WithYear(year int) *Calendar {
	if year <= 0 || year == c.year {
		return c
	}
	cp := *c
	cp.year = year
	return &cp
}
