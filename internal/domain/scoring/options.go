package scoring

import "github.com/shopspring/decimal"

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithDiminishingFactor sets the share of the base score earned by attempts
// beyond the cap.
func WithDiminishingFactor(factor float64) Option {
	return func(c *Calculator) {
		if factor >= 0 && factor <= 1 {
			c.factor = decimal.NewFromFloat(factor)
		}
	}
}
