package calendar

import "time"

// Option applies a configuration option to the Calendar.
type Option func(*Calendar)

// WithSeasonYear sets the year assumed for month/day dates.
func WithSeasonYear(year int) Option {
	return func(c *Calendar) {
		if year > 0 {
			c.year = year
		}
	}
}

// WithLocation sets the location dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Calendar) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithLayouts adds layouts tried before the built-in ones.
func WithLayouts(layouts ...string) Option {
	return func(c *Calendar) {
		c.extra = append(c.extra, layouts...)
	}
}

// WithNaturalLanguage toggles the free-text fallback parser.
func WithNaturalLanguage(enabled bool) Option {
	return func(c *Calendar) {
		c.fallback = enabled
	}
}
