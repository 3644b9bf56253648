package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
	"github.com/oledu/pyramidgo/internal/report"
)

// ResultDependencies exposes the latest engine run.
type ResultDependencies interface {
	Result() (*engine.Result, bool)
}

// ResultHandler serves the per-climber and per-team views of the latest run.
type ResultHandler struct {
	deps ResultDependencies
}

// NewResultHandler creates a new result handler.
func NewResultHandler(deps ResultDependencies) *ResultHandler {
	return &ResultHandler{deps: deps}
}

type runHeader struct {
	RunID      string    `json:"runId"`
	Period     string    `json:"period,omitempty"`
	SeasonYear int       `json:"seasonYear"`
	ComputedAt time.Time `json:"computedAt"`
}

func header(res *engine.Result) runHeader {
	return runHeader{
		RunID:      res.RunID.String(),
		Period:     res.Period,
		SeasonYear: res.SeasonYear,
		ComputedAt: res.ComputedAt,
	}
}

// HandleScores handles GET /scores requests.
func (h *ResultHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	res, ok := latest(w, h.deps, "api.get_scores")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		runHeader
		Scores []types.Score `json:"scores"`
	}{header(res), types.NewScores(res.Scores)})
}

// HandleScore handles GET /scores/{climber} requests.
func (h *ResultHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score"
	res, ok := latest(w, h.deps, op)
	if !ok {
		return
	}
	climber := strings.TrimSpace(chi.URLParam(r, "climber"))
	s, found := res.Score(climber)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, types.NewScore(s))
}

// HandleBadges handles GET /badges requests.
func (h *ResultHandler) HandleBadges(w http.ResponseWriter, r *http.Request) {
	res, ok := latest(w, h.deps, "api.get_badges")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		runHeader
		Badges []types.Badge `json:"badges"`
	}{header(res), types.NewBadges(res.Badges)})
}

// HandleTeams handles GET /teams requests.
func (h *ResultHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	res, ok := latest(w, h.deps, "api.get_teams")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		runHeader
		Teams []types.Team `json:"teams"`
	}{header(res), types.NewTeams(res.Teams)})
}

// HandleWarnings handles GET /warnings requests.
func (h *ResultHandler) HandleWarnings(w http.ResponseWriter, r *http.Request) {
	res, ok := latest(w, h.deps, "api.get_warnings")
	if !ok {
		return
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []model.Warning{}
	}
	writeJSON(w, http.StatusOK, struct {
		runHeader
		Warnings []model.Warning `json:"warnings"`
	}{header(res), warnings})
}

// HandleExport handles GET /export.xlsx requests.
func (h *ResultHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	res, ok := latest(w, h.deps, op)
	if !ok {
		return
	}
	data, err := report.Workbook(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	name := "pyramid.xlsx"
	if res.Period != "" {
		name = "pyramid-" + res.Period + ".xlsx"
	}
	writeBinary(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", name, data)
}
