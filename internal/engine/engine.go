// Package engine wires the scoring, aggregation, badge and siege stages
// into one deterministic run over a snapshot.
package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/oledu/pyramidgo/internal/domain/badge"
	"github.com/oledu/pyramidgo/internal/domain/calendar"
	"github.com/oledu/pyramidgo/internal/domain/dedupe"
	"github.com/oledu/pyramidgo/internal/domain/gymdate"
	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
	"github.com/oledu/pyramidgo/internal/domain/siege"
	"github.com/oledu/pyramidgo/pkg/logger"
	"github.com/oledu/pyramidgo/pkg/metrics"
)

// Result is the complete output of one run. It is never mutated after Run
// returns.
type Result struct {
	RunID        uuid.UUID
	Period       string
	SeasonYear   int
	ComputedAt   time.Time
	Duration     time.Duration
	SiegeEnabled bool

	Scores   []scoring.ClimberScore
	Buckets  []gymdate.ClimberBuckets
	Badges   []badge.ClimberAward
	Teams    []badge.TeamAward
	Siege    *siege.Result
	Warnings []model.Warning
}

// Castles returns the final castle states.
func (r *Result) Castles() []*siege.Castle {
	if r == nil || r.Siege == nil {
		return nil
	}
	return r.Siege.Castles
}

// Score looks up one climber's aggregate.
func (r *Result) Score(climber string) (scoring.ClimberScore, bool) {
	for _, s := range r.Scores {
		if s.Participant.Name == climber {
			return s, true
		}
	}
	return scoring.ClimberScore{}, false
}

// Badge looks up one climber's award.
func (r *Result) Badge(climber string) (badge.ClimberAward, bool) {
	for _, b := range r.Badges {
		if b.Climber == climber {
			return b, true
		}
	}
	return badge.ClimberAward{}, false
}

// Engine runs the pipeline. Its tables and tuning are fixed at construction.
type Engine struct {
	cal         *calendar.Calendar
	scoringOpts []scoring.Option
	gymdateOpts []gymdate.Option
	awarder     *badge.Awarder
	simulator   *siege.Simulator
	log         logger.Logger
	now         func() time.Time
}

// New creates an Engine with default tables.
func New(opts ...Option) *Engine {
	e := &Engine{
		cal:       calendar.New(),
		awarder:   badge.New(),
		simulator: siege.New(),
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calendar returns the calendar used for ingestion.
func (e *Engine) Calendar() *calendar.Calendar { return e.cal }

// Compute parses a raw snapshot document and runs it.
func (e *Engine) Compute(ctx context.Context, data []byte) (*Result, error) {
	snap, err := model.Parse(data, e.cal)
	if err != nil {
		metrics.RecordEngineRun("rejected", 0)
		return nil, fmt.Errorf("compute: %w", err)
	}
	return e.Run(ctx, snap), nil
}

// Run executes every stage over snap. Stages only read snap.
func (e *Engine) Run(ctx context.Context, snap *model.Snapshot) *Result {
	start := e.now()
	res := &Result{
		RunID:      uuid.New(),
		Period:     snap.Period,
		SeasonYear: snap.SeasonYear,
		ComputedAt: start,
	}
	warnings := append([]model.Warning(nil), snap.Warnings...)

	rules := scoring.NewRuleBook(snap.ScoringSp, snap.ScoringBld)

	scores, ws := scoring.NewCalculator(rules, e.scoringOpts...).Calculate(snap.Participants, snap.ClimbRecords)
	res.Scores = scores
	warnings = append(warnings, ws...)

	buckets, ws := gymdate.New(rules, e.gymdateOpts...).Aggregate(snap.Participants, snap.ClimbRecords)
	res.Buckets = buckets
	warnings = append(warnings, ws...)

	awards, ws := e.awarder.Climbers(scores)
	res.Badges = awards
	res.Teams = e.awarder.Teams(awards)
	warnings = append(warnings, ws...)

	res.SiegeEnabled = SiegeEnabled(snap)
	if res.SiegeEnabled {
		res.Siege = e.simulator.Simulate(siege.Input{
			Castles:  dedupe.LatestCastles(snap.CastleRecords),
			HomeGyms: dedupe.LatestHomeGyms(snap.CastleParticipants),
			Buckets:  buckets,
			Records:  snap.ClimbRecords,
		})
		warnings = append(warnings, res.Siege.Warnings...)
	} else {
		res.Siege = &siege.Result{}
	}

	res.Warnings = warnings
	res.Duration = e.now().Sub(start)
	e.observe(ctx, snap, res)
	return res
}

// SiegeEnabled reports whether the snapshot's settings allow the siege
// stage. Anything but an explicit "N" enables it.
func SiegeEnabled(snap *model.Snapshot) bool {
	v := strings.TrimSpace(snap.Setting(model.SettingSiegeEnabled, "Y"))
	return !strings.EqualFold(v, "N")
}

type stageKind struct {
	stage string
	kind  model.WarningKind
}

func (e *Engine) observe(ctx context.Context, snap *model.Snapshot, res *Result) {
	metrics.RecordEngineRun("ok", float64(res.Duration.Microseconds())/1000)
	metrics.RecordRecordsIngested(len(snap.ClimbRecords))
	metrics.UpdateClimbersScored(len(res.Scores))

	counts := make(map[stageKind]int)
	for _, w := range res.Warnings {
		counts[stageKind{w.Stage, w.Kind}]++
	}
	keys := make([]stageKind, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].stage != keys[j].stage {
			return keys[i].stage < keys[j].stage
		}
		return keys[i].kind < keys[j].kind
	})
	for _, k := range keys {
		metrics.RecordWarnings(k.stage, string(k.kind), counts[k])
		e.log.Debug(ctx, "records skipped",
			logger.String("stage", k.stage),
			logger.String("kind", string(k.kind)),
			logger.Int("count", counts[k]),
		)
	}

	e.log.Info(ctx, "engine run finished",
		logger.String("run_id", res.RunID.String()),
		logger.String("period", res.Period),
		logger.Int("climbers", len(res.Scores)),
		logger.Int("records", len(snap.ClimbRecords)),
		logger.Int("castles", len(res.Castles())),
		logger.Int("warnings", len(res.Warnings)),
		logger.Bool("siege", res.SiegeEnabled),
		logger.Duration("took", res.Duration),
	)
}
