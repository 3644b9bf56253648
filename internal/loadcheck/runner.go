package loadcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/oledu/pyramidgo/internal/snapshotgen"
	"github.com/oledu/pyramidgo/pkg/logger"
)

// percentageMultiplier converts ratios for the final report.
const percentageMultiplier = 100

// Run floods the server with generated snapshots, then publishes a probe
// snapshot with a unique period and verifies the served leaderboard and
// castles against a local computation of that probe.
func Run(ctx context.Context, cfg *Config, log logger.Logger) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting league load check",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("snapshots", cfg.Snapshots),
		logger.Int("repeats", cfg.Repeats),
		logger.Int("workers", cfg.Workers))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate and submit the load
	payloads, err := generatePayloads(cfg, stats)
	if err != nil {
		return stats, fmt.Errorf("snapshot generation failed: %w", err)
	}
	submitSnapshots(ctx, cfg, client, payloads, stats, log)

	// Step 3: Publish the probe and wait for it
	probe := "probe-" + uuid.NewString()
	stats.ProbePeriod = probe
	data, err := newGenerator(cfg, cfg.Seed+uint64(cfg.Snapshots), snapshotgen.WithPeriod(probe)).Bytes()
	if err != nil {
		return stats, fmt.Errorf("probe generation failed: %w", err)
	}
	if err := submitProbe(ctx, cfg, client, data); err != nil {
		return stats, err
	}
	runID, err := waitForPeriod(ctx, cfg, client, probe)
	if err != nil {
		return stats, err
	}
	log.Info(ctx, "probe published", logger.String("period", probe), logger.String("runId", runID))

	// Step 4: Verify against a local run
	want, err := cfg.Engine.Compute(ctx, data)
	if err != nil {
		return stats, fmt.Errorf("local compute failed: %w", err)
	}
	if err := verifyLeaderboard(ctx, cfg, client, want, stats); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}
	if err := verifyCastles(ctx, client, want, stats); err != nil {
		return stats, fmt.Errorf("castle verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)
	return stats, nil
}

func newGenerator(cfg *Config, seed uint64, extra ...snapshotgen.Option) *snapshotgen.Generator {
	opts := []snapshotgen.Option{
		snapshotgen.WithSeed(seed),
		snapshotgen.WithClimbers(cfg.Climbers),
		snapshotgen.WithGyms(cfg.Gyms),
		snapshotgen.WithSeasonYear(cfg.SeasonYear),
	}
	return snapshotgen.New(append(opts, extra...)...)
}

// generatePayloads builds Snapshots documents, each repeated 1+Repeats times.
func generatePayloads(cfg *Config, stats *Stats) ([][]byte, error) {
	payloads := make([][]byte, 0, cfg.Snapshots*(1+cfg.Repeats))
	for i := 0; i < cfg.Snapshots; i++ {
		data, err := newGenerator(cfg, cfg.Seed+uint64(i)).Bytes()
		if err != nil {
			return nil, err
		}
		stats.SnapshotsGenerated++
		for r := 0; r <= cfg.Repeats; r++ {
			payloads = append(payloads, data)
		}
	}
	return payloads, nil
}

// submitProbe retries through backpressure until the probe is queued.
func submitProbe(ctx context.Context, cfg *Config, client *httpClient, data []byte) error {
	deadline := time.Now().Add(cfg.WaitTimeout)
	for {
		switch submitOne(ctx, client, data) {
		case outcomeAccepted:
			return nil
		case outcomeDuplicate:
			return fmt.Errorf("probe snapshot reported as duplicate")
		case outcomeFailed:
			return fmt.Errorf("probe snapshot submission failed")
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("probe snapshot still rejected after %s", cfg.WaitTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.PollInterval):
		}
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient) error {
	status, _, err := client.get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

// logFinalStats prints the final statistics.
func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.Submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.Submitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("snapshotsGenerated", stats.SnapshotsGenerated),
		logger.Int("submitted", stats.Submitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Int("castlesChecked", stats.CastlesChecked),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("submissionsPerSecond", perSecond))
}
