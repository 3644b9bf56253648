package loadcheck

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/oledu/pyramidgo/internal/adapters/repository"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
)

// scoreTolerance absorbs float rendering of exact decimal scores.
const scoreTolerance = 1e-6

type scoresView struct {
	RunID  string `json:"runId"`
	Period string `json:"period"`
}

type castlesView struct {
	Castles []types.Castle `json:"castles"`
}

// waitForPeriod polls /scores until the published run carries period.
func waitForPeriod(ctx context.Context, cfg *Config, client *httpClient, period string) (string, error) {
	deadline := time.Now().Add(cfg.WaitTimeout)
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		var view scoresView
		status, err := client.getJSON(ctx, "/scores", &view)
		if err != nil {
			return "", err
		}
		if status == http.StatusOK && view.Period == period {
			return view.RunID, nil
		}
		if status != http.StatusOK && status != http.StatusServiceUnavailable {
			return "", fmt.Errorf("GET /scores: unexpected status %d", status)
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("probe period %q not published within %s", period, cfg.WaitTimeout)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// expectedLeaderboard ranks want the same way the server does.
func expectedLeaderboard(ctx context.Context, want *engine.Result, n int) ([]repository.Entry, error) {
	board := repository.NewTreapStore()
	entries := make([]repository.Entry, 0, len(want.Scores))
	for _, s := range want.Scores {
		entries = append(entries, repository.Entry{Climber: s.Participant.Name, Team: s.Participant.Team, Score: s.Combined()})
	}
	if err := board.Replace(ctx, entries); err != nil {
		return nil, err
	}
	return board.TopN(ctx, n)
}

// verifyLeaderboard compares the served leaderboard with the local one.
func verifyLeaderboard(ctx context.Context, cfg *Config, client *httpClient, want *engine.Result, stats *Stats) error {
	expected, err := expectedLeaderboard(ctx, want, cfg.TopN)
	if err != nil {
		return err
	}
	var got []Entry
	status, err := client.getJSON(ctx, fmt.Sprintf("/leaderboard?limit=%d", cfg.TopN), &got)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET /leaderboard: unexpected status %d", status)
	}
	stats.LeaderboardEntries = len(got)

	if len(got) != len(expected) {
		return fmt.Errorf("leaderboard has %d entries, expected %d", len(got), len(expected))
	}
	for i := range expected {
		e, g := expected[i], got[i]
		if e.Climber != g.Climber || e.Rank != g.Rank {
			return fmt.Errorf("leaderboard row %d is %s (#%d), expected %s (#%d)", i, g.Climber, g.Rank, e.Climber, e.Rank)
		}
		if math.Abs(types.Float(e.Score)-g.Score) > scoreTolerance {
			return fmt.Errorf("leaderboard score for %s is %.4f, expected %s", g.Climber, g.Score, e.Score)
		}
	}
	return nil
}

// verifyCastles compares served castle HP with the local siege.
func verifyCastles(ctx context.Context, client *httpClient, want *engine.Result, stats *Stats) error {
	var view castlesView
	status, err := client.getJSON(ctx, "/castles", &view)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET /castles: unexpected status %d", status)
	}
	served := make(map[string]types.Castle, len(view.Castles))
	for _, c := range view.Castles {
		served[c.ID] = c
	}
	for _, c := range want.Castles() {
		s, ok := served[c.ID]
		if !ok {
			return fmt.Errorf("castle %s missing from server", c.ID)
		}
		if s.CurrentHP != c.HP || s.AttackCount != c.AttackCount {
			return fmt.Errorf("castle %s at HP %d after %d attacks, expected HP %d after %d",
				c.ID, s.CurrentHP, s.AttackCount, c.HP, c.AttackCount)
		}
		stats.CastlesChecked++
	}
	if len(served) != len(want.Castles()) {
		return fmt.Errorf("server has %d castles, expected %d", len(served), len(want.Castles()))
	}
	return nil
}
