package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oledu/pyramidgo/internal/domain/siege"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/report"
)

// CastleHandler serves siege state.
type CastleHandler struct {
	deps   ResultDependencies
	heroes int
}

// NewCastleHandler creates a new castle handler listing up to heroes
// attackers per castle.
func NewCastleHandler(deps ResultDependencies, heroes int) *CastleHandler {
	return &CastleHandler{deps: deps, heroes: heroes}
}

// HandleList handles GET /castles requests.
func (h *CastleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, ok := latest(w, h.deps, "api.list_castles")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		runHeader
		SiegeEnabled bool           `json:"siegeEnabled"`
		Castles      []types.Castle `json:"castles"`
	}{header(res), res.SiegeEnabled, types.NewCastles(res.Castles(), h.heroes)})
}

// HandleGet handles GET /castles/{castleID} requests.
func (h *CastleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := h.castle(w, r, "api.get_castle")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.NewCastle(c, h.heroes))
}

// HandleShares handles GET /castles/{castleID}/shares?pool=N&offseason=bool.
func (h *CastleHandler) HandleShares(w http.ResponseWriter, r *http.Request) {
	const op = "api.castle_shares"
	c, ok := h.castle(w, r, op)
	if !ok {
		return
	}
	q := r.URL.Query()
	pool, err := strconv.ParseInt(q.Get("pool"), 10, 64)
	if err != nil || pool < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	withOffseason := false
	if v := q.Get("offseason"); v != "" {
		withOffseason, err = strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}
	shares := types.NewShares(siege.RewardShares(c, pool, withOffseason))
	writeJSON(w, http.StatusOK, struct {
		Castle    string        `json:"castleId"`
		Pool      int64         `json:"pool"`
		Offseason bool          `json:"offseason"`
		Shares    []types.Share `json:"shares"`
	}{c.ID, pool, withOffseason, shares})
}

// HandleChart handles GET /castles/chart.png requests.
func (h *CastleHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.castle_chart"
	res, ok := latest(w, h.deps, op)
	if !ok {
		return
	}
	data, err := report.CastleChart(res.Castles())
	if err != nil {
		writeChartError(w, op, err)
		return
	}
	writeBinary(w, "image/png", "", data)
}

// HandleHeroChart handles GET /castles/{castleID}/heroes.png requests.
func (h *CastleHandler) HandleHeroChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.hero_chart"
	c, ok := h.castle(w, r, op)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteHeroChart(&buf, c, h.heroes); err != nil {
		writeChartError(w, op, err)
		return
	}
	writeBinary(w, "image/png", "", buf.Bytes())
}

func (h *CastleHandler) castle(w http.ResponseWriter, r *http.Request, op string) (*siege.Castle, bool) {
	res, ok := latest(w, h.deps, op)
	if !ok {
		return nil, false
	}
	id := chi.URLParam(r, "castleID")
	if res.Siege == nil {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return nil, false
	}
	c, found := res.Siege.Castle(id)
	if !found {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return nil, false
	}
	return c, true
}

func writeChartError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, report.ErrNoData) {
		writeError(w, http.StatusNotFound, "no_data", WrapKind(op, ErrNotFound, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
}
