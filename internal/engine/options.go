package engine

import (
	"time"

	"github.com/oledu/pyramidgo/internal/config"
	"github.com/oledu/pyramidgo/internal/domain/badge"
	"github.com/oledu/pyramidgo/internal/domain/calendar"
	"github.com/oledu/pyramidgo/internal/domain/gymdate"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
	"github.com/oledu/pyramidgo/internal/domain/siege"
	"github.com/oledu/pyramidgo/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithCalendar sets the calendar used to parse snapshot dates.
func WithCalendar(c *calendar.Calendar) Option {
	return func(e *Engine) {
		if c != nil {
			e.cal = c
		}
	}
}

// WithScoringOptions passes options to every score calculator.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(e *Engine) { e.scoringOpts = append(e.scoringOpts, opts...) }
}

// WithGymDateOptions passes options to every gym-date aggregator.
func WithGymDateOptions(opts ...gymdate.Option) Option {
	return func(e *Engine) { e.gymdateOpts = append(e.gymdateOpts, opts...) }
}

// WithAwarder replaces the badge awarder.
func WithAwarder(a *badge.Awarder) Option {
	return func(e *Engine) {
		if a != nil {
			e.awarder = a
		}
	}
}

// WithSimulator replaces the siege simulator.
func WithSimulator(s *siege.Simulator) Option {
	return func(e *Engine) {
		if s != nil {
			e.simulator = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// OptionsFromConfig translates validated configuration into engine options.
func OptionsFromConfig(cfg *config.Config) ([]Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	ec := cfg.Engine
	cal := calendar.New(
		calendar.WithSeasonYear(cfg.SeasonYear),
		calendar.WithLocation(loc),
		calendar.WithNaturalLanguage(cfg.NaturalDates),
	)
	awarder := badge.New(
		badge.WithSpTable(ec.Badges.SP),
		badge.WithBldTable(ec.Badges.BLD),
		badge.WithCaps(ec.BadgeTotalCap, ec.TeamBadgeCap),
		badge.WithSoloExclusion(ec.ExcludeSoloTeams, ec.SoloTeamPrefix),
	)
	sim := siege.New(
		siege.WithDamageMode(siege.DamageMode(ec.DamageMode)),
		siege.WithAttackBonus(ec.AttackBonus),
		siege.WithOffseasonDamage(ec.OffseasonDamage),
		siege.WithAttemptDamage(ec.AttemptDamage),
		siege.WithDailyAttemptCap(ec.DailyAttemptCap),
	)
	return []Option{
		WithCalendar(cal),
		WithScoringOptions(scoring.WithDiminishingFactor(ec.DiminishingFactor)),
		WithGymDateOptions(
			gymdate.WithLeadingBonus(ec.LeadingBonus),
			gymdate.WithRedpointBonus(ec.RedpointBonus),
		),
		WithAwarder(awarder),
		WithSimulator(sim),
	}, nil
}
