// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New(ctx) builds a Config with defaults; Load layers file and env on top.
// - Validation failures wrap ErrInvalidConfig, load failures ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/oledu/pyramidgo/internal/domain/badge"
	"github.com/oledu/pyramidgo/internal/domain/siege"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the snapshot refresh queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds how many submission digests are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxSnapshotBytes caps POST /snapshots bodies.
	MaxSnapshotBytes int64 `koanf:"max_snapshot_bytes"`

	// SeasonYear resolves month/day dates. Zero means the current year.
	SeasonYear int `koanf:"season_year"`

	// Timezone names the IANA zone dates are interpreted in.
	Timezone string `koanf:"timezone"`

	// NaturalDates enables free-text date parsing as a last resort.
	NaturalDates bool `koanf:"natural_dates"`

	Engine Engine `koanf:"engine"`
}

// Engine holds the scoring and siege tuning.
type Engine struct {
	DiminishingFactor float64 `koanf:"diminishing_factor"`
	LeadingBonus      float64 `koanf:"leading_bonus"`
	RedpointBonus     float64 `koanf:"redpoint_bonus"`

	AttackBonus     int    `koanf:"attack_bonus"`
	OffseasonDamage int    `koanf:"offseason_damage"`
	DailyAttemptCap int    `koanf:"daily_attempt_cap"`
	AttemptDamage   int    `koanf:"attempt_damage"`
	DamageMode      string `koanf:"damage_mode"`

	ExcludeSoloTeams bool   `koanf:"exclude_solo_teams"`
	SoloTeamPrefix   string `koanf:"solo_team_prefix"`
	BadgeTotalCap    int    `koanf:"badge_total_cap"`
	TeamBadgeCap     int    `koanf:"team_badge_cap"`

	// Badges overrides the built-in threshold tables when non-empty.
	Badges Badges `koanf:"badges"`
}

// Badges are per-discipline threshold tables.
type Badges struct {
	SP  []badge.Threshold `koanf:"sp"`
	BLD []badge.Threshold `koanf:"bld"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           16,
		DedupeSize:          1024,
		MaxLeaderboardLimit: 100,
		MaxSnapshotBytes:    16 << 20,
		Timezone:            "Asia/Taipei",
		NaturalDates:        true,
		Engine: Engine{
			DiminishingFactor: 0.3,
			LeadingBonus:      0.3,
			RedpointBonus:     0.2,
			AttackBonus:       siege.DefaultAttackBonus,
			OffseasonDamage:   siege.DefaultOffseasonDamage,
			DailyAttemptCap:   siege.DefaultDailyAttemptCap,
			AttemptDamage:     siege.DefaultAttemptDamage,
			DamageMode:        string(siege.ModeScore),
			ExcludeSoloTeams:  true,
			SoloTeamPrefix:    badge.DefaultSoloPrefix,
			BadgeTotalCap:     badge.DefaultClimberCap,
			TeamBadgeCap:      badge.DefaultTeamCap,
		},
	}
}

// Location resolves Timezone. An empty zone is local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr must not be empty")
	}
	if c.QueueSize <= 0 {
		problems = append(problems, "queue_size must be positive")
	}
	if c.MaxLeaderboardLimit <= 0 {
		problems = append(problems, "max_leaderboard_limit must be positive")
	}
	if c.MaxSnapshotBytes <= 0 {
		problems = append(problems, "max_snapshot_bytes must be positive")
	}
	if c.SeasonYear < 0 {
		problems = append(problems, "season_year must not be negative")
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		problems = append(problems, "log_format must be text or json")
	}

	e := c.Engine
	if e.DiminishingFactor < 0 || e.DiminishingFactor > 1 {
		problems = append(problems, "engine.diminishing_factor must be within [0,1]")
	}
	if e.LeadingBonus < 0 || e.RedpointBonus < 0 {
		problems = append(problems, "engine bonuses must not be negative")
	}
	if e.AttackBonus < 0 || e.OffseasonDamage < 0 || e.AttemptDamage < 0 {
		problems = append(problems, "engine damage values must not be negative")
	}
	if e.DailyAttemptCap <= 0 {
		problems = append(problems, "engine.daily_attempt_cap must be positive")
	}
	switch siege.DamageMode(e.DamageMode) {
	case siege.ModeScore, siege.ModeAttempts:
	default:
		problems = append(problems, "engine.damage_mode must be score or attempts")
	}
	if e.BadgeTotalCap <= 0 || e.TeamBadgeCap <= 0 {
		problems = append(problems, "engine badge caps must be positive")
	}
	for _, table := range [][]badge.Threshold{e.Badges.SP, e.Badges.BLD} {
		for _, t := range table {
			if t.Grade == "" || t.First > t.Second || t.Second > t.Third {
				problems = append(problems, fmt.Sprintf("engine.badges row %q must be ascending", t.Grade))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
