package gymdate

import "github.com/shopspring/decimal"

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLeadingBonus sets the share of the base score added per lead.
func WithLeadingBonus(ratio float64) Option {
	return func(a *Aggregator) {
		if ratio >= 0 {
			a.leading = decimal.NewFromFloat(ratio)
		}
	}
}

// WithRedpointBonus sets the share of the base score added per redpoint.
func WithRedpointBonus(ratio float64) Option {
	return func(a *Aggregator) {
		if ratio >= 0 {
			a.redpoint = decimal.NewFromFloat(ratio)
		}
	}
}
