// Package loadcheck drives a running league server with generated
// snapshots and checks that what it serves matches a local computation.
package loadcheck

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
)

// ErrInvalidConfig wraps configuration problems.
var ErrInvalidConfig = errors.New("invalid loadcheck config")

// Config holds configuration for a check run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Snapshots    int           // Distinct snapshots to submit
	Repeats      int           // Extra submissions of each snapshot, expected to be duplicates
	Climbers     int           // Climbers per generated snapshot
	Gyms         int           // Gyms (and castles) per generated snapshot
	Seed         uint64        // First generator seed
	SeasonYear   int           // Season year written to generated snapshots
	TopN         int           // Leaderboard entries to compare
	Workers      int           // Concurrent submitters
	Timeout      time.Duration // HTTP request timeout
	WaitTimeout  time.Duration // How long to wait for the probe result
	PollInterval time.Duration // Delay between probe polls

	// Engine computes the expected result locally. It must be configured
	// like the server's.
	Engine *engine.Engine
}

// DefaultConfig returns a small, quick check against a local server.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:      "http://localhost:9080",
		Snapshots:    8,
		Repeats:      1,
		Climbers:     40,
		Gyms:         4,
		Seed:         1,
		SeasonYear:   2025,
		TopN:         20,
		Workers:      4,
		Timeout:      10 * time.Second,
		WaitTimeout:  30 * time.Second,
		PollInterval: 100 * time.Millisecond,
	}
}

// Validate checks ranges and fills the engine default.
func (c *Config) Validate() error {
	var problems []string
	if strings.TrimSpace(c.BaseURL) == "" {
		problems = append(problems, "base url must not be empty")
	}
	if c.Snapshots < 0 || c.Repeats < 0 {
		problems = append(problems, "snapshots and repeats must not be negative")
	}
	if c.Climbers <= 0 || c.Gyms <= 0 {
		problems = append(problems, "climbers and gyms must be positive")
	}
	if c.TopN <= 0 {
		problems = append(problems, "top must be positive")
	}
	if c.Workers <= 0 {
		problems = append(problems, "workers must be positive")
	}
	if c.Timeout <= 0 || c.WaitTimeout <= 0 || c.PollInterval <= 0 {
		problems = append(problems, "timeouts must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Engine == nil {
		c.Engine = engine.New()
	}
	return nil
}

// Entry represents a leaderboard entry
type Entry = types.Entry

// ackResponse represents the response from snapshot submission
type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Digest    string `json:"digest"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds check statistics
type Stats struct {
	SnapshotsGenerated int
	Submitted          int
	Accepted           int
	Duplicate          int
	Rejected           int
	Failed             int
	LeaderboardEntries int
	CastlesChecked     int
	ProbePeriod        string
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
