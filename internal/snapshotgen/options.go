package snapshotgen

// Option configures a Generator.
type Option func(*Generator)

// WithSeed fixes the faker seed.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithClimbers sets the number of registered climbers.
func WithClimbers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.climbers = n
		}
	}
}

// WithGyms sets the number of gyms, each with one castle.
func WithGyms(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.gyms = n
		}
	}
}

// WithRecordsPerClimber sets how many climb rows each climber logs.
func WithRecordsPerClimber(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.recordsPer = n
		}
	}
}

// WithSeasonYear sets the season year written to settings and dates.
func WithSeasonYear(year int) Option {
	return func(g *Generator) {
		if year > 0 {
			g.seasonYear = year
		}
	}
}

// WithSeasonDays sets the length of the season window starting March 1.
func WithSeasonDays(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.seasonDays = n
		}
	}
}

// WithOffseasonRatio sets the share of rows flagged off-season.
func WithOffseasonRatio(r float64) Option {
	return func(g *Generator) {
		if r >= 0 && r <= 1 {
			g.offseasonRatio = r
		}
	}
}

// WithSoloRatio sets the share of climbers on solo teams.
func WithSoloRatio(r float64) Option {
	return func(g *Generator) {
		if r >= 0 && r <= 1 {
			g.soloRatio = r
		}
	}
}

// WithSiege toggles the SIEGE_ENABLED setting.
func WithSiege(enabled bool) Option {
	return func(g *Generator) { g.siegeEnabled = enabled }
}

// WithPeriod overrides the PERIOD setting, which otherwise derives from
// the season start.
func WithPeriod(period string) Option {
	return func(g *Generator) { g.period = period }
}
