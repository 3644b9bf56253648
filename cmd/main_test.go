package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/oledu/pyramidgo/internal/config"
	"github.com/oledu/pyramidgo/pkg/logger"
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
  "settings": [{"KEY": "SEASON_YEAR", "VALUE": "2025"}]
}`

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		cfg := config.New(ctx)
		svc, err := newService(cfg, logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer func() { _ = svc.Stop(context.Background()) }()

		srv := httptest.NewServer(newHandler(cfg, svc))
		defer srv.Close()

		convey.Convey("When a snapshot is posted", func() {
			resp, err := http.Post(srv.URL+"/snapshots", "application/json", strings.NewReader(snapshot))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)

			convey.Convey("Then the leaderboard is eventually served", func() {
				var entries []map[string]interface{}
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					resp, err := http.Get(srv.URL + "/leaderboard?limit=5")
					convey.So(err, convey.ShouldBeNil)
					entries = nil
					_ = json.NewDecoder(resp.Body).Decode(&entries)
					_ = resp.Body.Close()
					if len(entries) == 2 {
						break
					}
					time.Sleep(10 * time.Millisecond)
				}
				convey.So(entries, convey.ShouldHaveLength, 2)
				convey.So(entries[0]["climber"], convey.ShouldEqual, "pat")
			})
		})

		convey.Convey("When the docs are requested", func() {
			resp, err := http.Get(srv.URL + "/openapi.yaml")
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
		})

		convey.Convey("When health is requested before any run", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			convey.So(err, convey.ShouldBeNil)
			defer resp.Body.Close()
			var body map[string]interface{}
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			convey.So(body["status"], convey.ShouldEqual, "ok")
		})
	})
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	convey.Convey("Given a config with an unknown timezone", t, func() {
		cfg := config.New(context.Background())
		cfg.Timezone = "Mars/Olympus"

		convey.Convey("Then building the service fails", func() {
			_, err := newService(cfg, logger.Nop())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then a manual update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})
	})
}
