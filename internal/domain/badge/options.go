package badge

// Option configures an Awarder.
type Option func(*Awarder)

// WithSpTable replaces the sport climbing thresholds.
func WithSpTable(t []Threshold) Option {
	return func(a *Awarder) {
		if len(t) > 0 {
			a.sp = append([]Threshold(nil), t...)
		}
	}
}

// WithBldTable replaces the bouldering thresholds.
func WithBldTable(t []Threshold) Option {
	return func(a *Awarder) {
		if len(t) > 0 {
			a.bld = append([]Threshold(nil), t...)
		}
	}
}

// WithCaps sets the per-climber and per-team caps.
func WithCaps(climber, team int) Option {
	return func(a *Awarder) {
		if climber > 0 {
			a.climberCap = climber
		}
		if team > 0 {
			a.teamCap = team
		}
	}
}

// WithSoloExclusion toggles dropping teams whose name starts with prefix.
func WithSoloExclusion(enabled bool, prefix string) Option {
	return func(a *Awarder) {
		a.excludeSolo = enabled
		if prefix != "" {
			a.soloPrefix = prefix
		}
	}
}
