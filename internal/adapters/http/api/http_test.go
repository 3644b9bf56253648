package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/oledu/pyramidgo/internal/adapters/http/api"
	"github.com/oledu/pyramidgo/internal/adapters/mq/queue"
	"github.com/oledu/pyramidgo/internal/adapters/repository"
	service "github.com/oledu/pyramidgo/internal/app"
	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
)

const snapshot = `{
  "participants": [
    {"CLMBR_NM": "pat", "REG_BLD_LEVEL": "V3", "TEAM_NM": "Crimpers"},
    {"CLMBR_NM": "sam", "REG_BLD_LEVEL": "V3", "TEAM_NM": "Crimpers"}
  ],
  "scoringSp": [],
  "scoringBld": [{"REG_BLD_LEVEL": "V3", "SENT_LEVEL": "V3", "SCORE": "50", "LIMIT": "10"}],
  "climbRecords": [
    {"CLMBR_NM": "pat", "GYM_NM": "Alpha", "DATE": "3/1", "SENT_LEVEL": "V3", "SENT_COUNT": "7"},
    {"CLMBR_NM": "sam", "GYM_NM": "Alpha", "DATE": "3/3", "SENT_LEVEL": "V3", "SENT_COUNT": "2"}
  ],
  "castle_records": [{"CASTLE": "Alpha", "HP": "10000", "START_DATE": "2025/2/20"}],
  "castle_participants": [],
  "settings": [{"KEY": "SEASON_YEAR", "VALUE": "2025"}, {"KEY": "PERIOD", "VALUE": "202503"}]
}`

// mockDependencies implements api.Dependencies.
type mockDependencies struct {
	result    *engine.Result
	submitErr error
	submitted [][]byte
	seen      map[string]bool
	topN      []types.Entry
	topNErr   error
	rankErr   error
	stats     map[string]interface{}
}

func (m *mockDependencies) Submit(ctx context.Context, data []byte) (service.Submission, error) {
	if m.submitErr != nil {
		return service.Submission{}, m.submitErr
	}
	if err := model.Validate(data); err != nil {
		return service.Submission{}, err
	}
	digest := service.Digest(data)
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[digest] {
		return service.Submission{ID: "dup", Digest: digest, Duplicate: true}, nil
	}
	m.seen[digest] = true
	m.submitted = append(m.submitted, data)
	return service.Submission{ID: fmt.Sprintf("job-%d", len(m.submitted)), Digest: digest}, nil
}

func (m *mockDependencies) Result() (*engine.Result, bool) {
	return m.result, m.result != nil
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Rank(ctx context.Context, climber string) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	for _, e := range m.topN {
		if e.Climber == climber {
			return e, nil
		}
	}
	return types.Entry{}, repository.ErrNotFound
}

func (m *mockDependencies) GetStats() map[string]interface{} {
	return m.stats
}

func newRouter(deps api.Dependencies, opts ...api.Option) http.Handler {
	r := chi.NewRouter()
	api.NewServer(deps, opts...).Register(r)
	return r
}

func do(h http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func computed() *engine.Result {
	res, err := engine.New().Compute(context.Background(), []byte(snapshot))
	So(err, ShouldBeNil)
	return res
}

func TestPostSnapshot(t *testing.T) {
	Convey("Given a server accepting snapshots", t, func() {
		deps := &mockDependencies{}
		h := newRouter(deps, api.WithMaxSnapshotBytes(4096))

		Convey("When a valid snapshot is posted", func() {
			w := do(h, http.MethodPost, "/snapshots", snapshot)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				body := decode(w)
				So(body["status"], ShouldEqual, "accepted")
				So(body["duplicate"], ShouldEqual, false)
				So(body["digest"], ShouldEqual, service.Digest([]byte(snapshot)))
				So(len(deps.submitted), ShouldEqual, 1)
			})

			Convey("Then posting it again is a duplicate", func() {
				w2 := do(h, http.MethodPost, "/snapshots", snapshot)
				So(w2.Code, ShouldEqual, http.StatusOK)
				So(decode(w2)["status"], ShouldEqual, "duplicate")
				So(len(deps.submitted), ShouldEqual, 1)
			})
		})

		Convey("When the body is not a JSON object", func() {
			w := do(h, http.MethodPost, "/snapshots", `[1,2]`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "bad_request")
		})

		Convey("When the body exceeds the limit", func() {
			w := do(h, http.MethodPost, "/snapshots", `{"x":"`+strings.Repeat("a", 5000)+`"}`)
			So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
		})

		Convey("When the queue is full", func() {
			deps.submitErr = fmt.Errorf("submit snapshot: %w", queue.ErrQueueFull)
			w := do(h, http.MethodPost, "/snapshots", snapshot)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decode(w)["code"], ShouldEqual, "backpressure")
		})

		Convey("When the service has not started", func() {
			deps.submitErr = service.ErrNotStarted
			w := do(h, http.MethodPost, "/snapshots", snapshot)
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When GET is used", func() {
			w := do(h, http.MethodGet, "/snapshots", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestLeaderboardAndRank(t *testing.T) {
	Convey("Given a populated leaderboard", t, func() {
		deps := &mockDependencies{topN: []types.Entry{
			{Rank: 1, Climber: "pat", Team: "Crimpers", Score: 530},
			{Rank: 2, Climber: "sam", Team: "Crimpers", Score: 100},
		}}
		h := newRouter(deps, api.WithMaxLeaderboardLimit(10))

		Convey("Then limit slices the board", func() {
			w := do(h, http.MethodGet, "/leaderboard?limit=1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 1)
			So(entries[0].Climber, ShouldEqual, "pat")
		})

		Convey("Then a missing limit returns everything up to the cap", func() {
			w := do(h, http.MethodGet, "/leaderboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var entries []types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
		})

		Convey("Then invalid limits are rejected", func() {
			So(do(h, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/leaderboard?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			w := do(h, http.MethodGet, "/leaderboard?limit=11", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("Then store failures are 500", func() {
			deps.topNErr = fmt.Errorf("boom")
			So(do(h, http.MethodGet, "/leaderboard?limit=1", "").Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("Then rank finds a known climber", func() {
			w := do(h, http.MethodGet, "/rank/sam", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var e types.Entry
			So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
			So(e.Rank, ShouldEqual, 2)
		})

		Convey("Then rank reports unknown climbers as 404", func() {
			So(do(h, http.MethodGet, "/rank/nobody", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestResultEndpoints(t *testing.T) {
	Convey("Given a server without a published result", t, func() {
		h := newRouter(&mockDependencies{stats: map[string]interface{}{"started": true}})

		Convey("Then result views are not ready", func() {
			for _, path := range []string{"/scores", "/badges", "/teams", "/warnings", "/castles", "/castles/Alpha", "/export.xlsx", "/castles/chart.png"} {
				w := do(h, http.MethodGet, path, "")
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			}
		})

		Convey("Then health reports alive but not ready", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["status"], ShouldEqual, "ok")
			So(body["ready"], ShouldEqual, false)
		})

		Convey("Then stats are served as JSON", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then metrics are exposed", func() {
			w := do(h, http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})
	})

	Convey("Given a server with a published result", t, func() {
		res := computed()
		h := newRouter(&mockDependencies{result: res})

		Convey("Then scores carry the run header", func() {
			w := do(h, http.MethodGet, "/scores", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["runId"], ShouldEqual, res.RunID.String())
			So(body["period"], ShouldEqual, "202503")
			So(body["scores"], ShouldHaveLength, 2)
		})

		Convey("Then a single score is served", func() {
			w := do(h, http.MethodGet, "/scores/pat", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["totalBld"], ShouldEqual, 530.0)
			So(do(h, http.MethodGet, "/scores/nobody", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then badges and teams are served", func() {
			So(decode(do(h, http.MethodGet, "/badges", ""))["badges"], ShouldHaveLength, 2)
			teams := decode(do(h, http.MethodGet, "/teams", ""))["teams"].([]interface{})
			So(teams, ShouldHaveLength, 1)
			So(teams[0].(map[string]interface{})["team"], ShouldEqual, "Crimpers")
		})

		Convey("Then warnings are an array", func() {
			w := do(h, http.MethodGet, "/warnings", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["warnings"], ShouldNotBeNil)
		})

		Convey("Then the workbook downloads", func() {
			w := do(h, http.MethodGet, "/export.xlsx", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, "pyramid-202503.xlsx")
			So(bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), ShouldBeTrue)
		})

		Convey("Then health is ready", func() {
			So(decode(do(h, http.MethodGet, "/healthz", ""))["ready"], ShouldEqual, true)
		})
	})
}

func TestCastleEndpoints(t *testing.T) {
	Convey("Given a server with a sieged castle", t, func() {
		res := computed()
		h := newRouter(&mockDependencies{result: res}, api.WithHeroes(1))

		Convey("Then the castle list is served", func() {
			w := do(h, http.MethodGet, "/castles", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["siegeEnabled"], ShouldEqual, true)
			castles := body["castles"].([]interface{})
			So(castles, ShouldHaveLength, 1)
			So(castles[0].(map[string]interface{})["heroes"], ShouldHaveLength, 1)
		})

		Convey("Then one castle is served by id", func() {
			w := do(h, http.MethodGet, "/castles/Alpha", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["castleId"], ShouldEqual, "Alpha")
			So(do(h, http.MethodGet, "/castles/Nowhere", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then reward shares sum to the pool", func() {
			w := do(h, http.MethodGet, "/castles/Alpha/shares?pool=1000", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Pool   int64         `json:"pool"`
				Shares []types.Share `json:"shares"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			total := int64(0)
			for _, s := range body.Shares {
				total += s.Amount
			}
			So(total, ShouldEqual, 1000)
		})

		Convey("Then bad share parameters are rejected", func() {
			So(do(h, http.MethodGet, "/castles/Alpha/shares", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(h, http.MethodGet, "/castles/Alpha/shares?pool=10&offseason=maybe", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then charts render as PNG", func() {
			for _, path := range []string{"/castles/chart.png", "/castles/Alpha/heroes.png"} {
				w := do(h, http.MethodGet, path, "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "image/png")
				So(bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")), ShouldBeTrue)
			}
		})
	})
}

func TestOpErrors(t *testing.T) {
	Convey("Given op errors", t, func() {
		cause := fmt.Errorf("eof")

		Convey("Then kinds and causes both match", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(err.Error(), ShouldEqual, "api.op: bad request: eof")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("Then Wrap keeps nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.NewKind("api.op", api.ErrNotReady).Error(), ShouldEqual, "api.op: no result published yet")
		})
	})
}
