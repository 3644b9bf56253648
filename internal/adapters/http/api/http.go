// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oledu/pyramidgo/internal/adapters/repository"
	service "github.com/oledu/pyramidgo/internal/app"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
	"github.com/oledu/pyramidgo/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Submit queues a snapshot for computation.
	Submit(ctx context.Context, data []byte) (service.Submission, error)

	// Result returns the latest published run, if any.
	Result() (*engine.Result, bool)

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, n int) ([]Entry, error)
	Rank(ctx context.Context, climber string) (Entry, error)

	StatsProvider
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	deps Dependencies

	maxLimit         int
	maxSnapshotBytes int64
	heroes           int

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	snapshotHandler    *SnapshotHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	resultHandler      *ResultHandler
	castleHandler      *CastleHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:             deps,
		maxLimit:         defaultMaxLimit,
		maxSnapshotBytes: defaultMaxSnapshotBytes,
		heroes:           defaultHeroes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler(deps)
	s.statsHandler = NewStatsHandler(deps)
	s.snapshotHandler = NewSnapshotHandler(deps, s.maxSnapshotBytes)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.rankHandler = NewRankHandler(deps)
	s.resultHandler = NewResultHandler(deps)
	s.castleHandler = NewCastleHandler(deps, s.heroes)
	return s
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	r.Post("/snapshots", MetricsMiddleware(s.snapshotHandler.HandlePostSnapshot, "snapshots"))

	r.Get("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	r.Get("/rank/{climber}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	r.Get("/scores", MetricsMiddleware(s.resultHandler.HandleScores, "scores"))
	r.Get("/scores/{climber}", MetricsMiddleware(s.resultHandler.HandleScore, "score"))
	r.Get("/badges", MetricsMiddleware(s.resultHandler.HandleBadges, "badges"))
	r.Get("/teams", MetricsMiddleware(s.resultHandler.HandleTeams, "teams"))
	r.Get("/warnings", MetricsMiddleware(s.resultHandler.HandleWarnings, "warnings"))
	r.Get("/export.xlsx", MetricsMiddleware(s.resultHandler.HandleExport, "export"))

	r.Route("/castles", func(r chi.Router) {
		r.Get("/", MetricsMiddleware(s.castleHandler.HandleList, "castles"))
		r.Get("/chart.png", MetricsMiddleware(s.castleHandler.HandleChart, "castles_chart"))
		r.Get("/{castleID}", MetricsMiddleware(s.castleHandler.HandleGet, "castle"))
		r.Get("/{castleID}/shares", MetricsMiddleware(s.castleHandler.HandleShares, "castle_shares"))
		r.Get("/{castleID}/heroes.png", MetricsMiddleware(s.castleHandler.HandleHeroChart, "castle_heroes"))
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func writeBinary(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}

// latest loads the current result or writes 503.
func latest(w http.ResponseWriter, deps interface{ Result() (*engine.Result, bool) }, op string) (*engine.Result, bool) {
	res, ok := deps.Result()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
		return nil, false
	}
	return res, true
}
