// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/oledu/pyramidgo/internal/adapters/mq/queue"
	"github.com/oledu/pyramidgo/internal/adapters/mq/worker"
	"github.com/oledu/pyramidgo/internal/adapters/repository"
	"github.com/oledu/pyramidgo/internal/domain/dedupe"
	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/siege"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
	"github.com/oledu/pyramidgo/pkg/logger"
	"github.com/oledu/pyramidgo/pkg/metrics"
)

// ErrNotStarted is returned by Submit before Start.
var ErrNotStarted = errors.New("service not started")

// Submission acknowledges a snapshot.
type Submission struct {
	ID        string `json:"id"`
	Digest    string `json:"digest"`
	Duplicate bool   `json:"duplicate"`
}

// Service owns the latest engine result and the pipeline that refreshes it.
type Service struct {
	mu sync.RWMutex

	engine  *engine.Engine
	deduper dedupe.Deduper
	queue   queue.Queue
	worker  *worker.InMemoryWorker

	queueSize  int
	dedupeSize int

	current atomic.Pointer[published]

	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	lastError atomic.Pointer[string]

	started bool
	logger  logger.Logger
}

// published pairs a result with the leaderboard built from it, so readers
// never see the board of one run next to the scores of another.
type published struct {
	res   *engine.Result
	board repository.Store
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithEngine sets the engine used for every refresh.
func WithEngine(e *engine.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithQueueSize sets the maximum number of pending snapshots.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many snapshot digests are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueSize:  16,
		dedupeSize: 1024,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.engine == nil {
		s.engine = engine.New(engine.WithLogger(s.logger))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start launches the refresh worker.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithLogger(s.logger),
		worker.WithName("refresh"),
	)
	go s.worker.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "league service started",
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the queue and waits for the job in flight.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	_ = s.queue.Close()
	err := s.worker.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "league service stopped")
	return err
}

// Digest identifies a snapshot document by content.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Submit validates data and queues it for computation. Resubmitting an
// identical document is acknowledged as a duplicate without recomputing.
func (s *Service) Submit(ctx context.Context, data []byte) (Submission, error) {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return Submission{}, ErrNotStarted
	}
	if err := model.Validate(data); err != nil {
		metrics.RecordSnapshotSubmitted("rejected")
		return Submission{}, err
	}

	sub := Submission{ID: uuid.NewString(), Digest: Digest(data)}
	if s.deduper.SeenAndRecord(ctx, sub.Digest) {
		sub.Duplicate = true
		metrics.RecordSnapshotSubmitted("duplicate")
		s.logger.Debug(ctx, "duplicate snapshot", logger.String("digest", sub.Digest))
		return sub, nil
	}

	err := s.queue.Enqueue(ctx, queue.Job{ID: sub.ID, Digest: sub.Digest, Data: data, Submitted: time.Now()})
	if err != nil {
		s.deduper.Unrecord(ctx, sub.Digest)
		metrics.RecordSnapshotSubmitted("rejected")
		return Submission{}, fmt.Errorf("submit snapshot: %w", err)
	}
	s.submitted.Add(1)
	metrics.RecordSnapshotSubmitted("accepted")
	return sub, nil
}

// Process runs the engine for one queued job and publishes the result.
func (s *Service) Process(ctx context.Context, j queue.Job) error {
	res, err := s.engine.Compute(ctx, j.Data)
	if err != nil {
		s.deduper.Unrecord(ctx, j.Digest)
		s.failed.Add(1)
		msg := err.Error()
		s.lastError.Store(&msg)
		return err
	}
	s.Publish(ctx, res)
	return nil
}

// Publish swaps in res and its leaderboard as the current state. Only the
// refresh worker calls it, so publishes never interleave.
func (s *Service) Publish(ctx context.Context, res *engine.Result) {
	entries := make([]repository.Entry, 0, len(res.Scores))
	for _, sc := range res.Scores {
		entries = append(entries, repository.Entry{
			Climber: sc.Participant.Name,
			Team:    sc.Participant.Team,
			Score:   sc.Combined(),
		})
	}
	board := repository.NewTreapStore()
	if err := board.Replace(ctx, entries); err != nil {
		s.logger.Error(ctx, "leaderboard replace failed", logger.Error(err))
	}

	metrics.ResetCastles()
	depleted := 0
	for _, c := range res.Castles() {
		metrics.UpdateCastle(c.ID, c.HP, c.AttackCount)
		if c.Status() == siege.StatusDepleted {
			depleted++
		}
	}
	metrics.UpdateCastlesDepleted(depleted)

	s.current.Store(&published{res: res, board: board})
	s.processed.Add(1)
	s.logger.Info(ctx, "result published",
		logger.String("run_id", res.RunID.String()),
		logger.String("period", res.Period),
		logger.Int("castles_depleted", depleted),
	)
}

// Result returns the latest published result.
func (s *Service) Result() (*engine.Result, bool) {
	p := s.current.Load()
	if p == nil {
		return nil, false
	}
	return p.res, true
}

// TopN returns the top N leaderboard entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if n < 1 {
		return nil, repository.ErrInvalidLimit
	}
	p := s.current.Load()
	if p == nil {
		return []types.Entry{}, nil
	}
	entries, err := p.board.TopN(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.Entry{Rank: e.Rank, Climber: e.Climber, Team: e.Team, Score: types.Float(e.Score)}
	}
	return out, nil
}

// Rank returns the rank and score for a climber.
func (s *Service) Rank(ctx context.Context, climber string) (types.Entry, error) {
	p := s.current.Load()
	if p == nil {
		return types.Entry{}, repository.ErrNotFound
	}
	e, err := p.board.Rank(ctx, climber)
	if err != nil {
		return types.Entry{}, err
	}
	return types.Entry{Rank: e.Rank, Climber: e.Climber, Team: e.Team, Score: types.Float(e.Score)}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":    s.started,
		"queueSize":  s.queueSize,
		"dedupeSize": s.dedupeSize,
		"submitted":  s.submitted.Load(),
		"processed":  s.processed.Load(),
		"failed":     s.failed.Load(),
		"climbers":   0,
		"digests":    s.deduper.Size(),
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
	}
	if msg := s.lastError.Load(); msg != nil {
		stats["lastError"] = *msg
	}
	if p := s.current.Load(); p != nil {
		res := p.res
		stats["climbers"] = p.board.Count(ctx)
		stats["runId"] = res.RunID.String()
		stats["period"] = res.Period
		stats["computedAt"] = res.ComputedAt.Format(time.RFC3339)
		stats["durationMs"] = res.Duration.Milliseconds()
		stats["warnings"] = len(res.Warnings)
		stats["castles"] = len(res.Castles())
	}
	return stats
}
