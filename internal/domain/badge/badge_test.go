package badge_test

import (
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/oledu/pyramidgo/internal/domain/badge"
	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
)

func score(name, team, sp, bld string, totalSP, totalBLD int64) scoring.ClimberScore {
	return scoring.ClimberScore{
		Participant: model.Participant{Name: name, Team: team, RegSpGrade: sp, RegBldGrade: bld},
		Registered:  true,
		TotalSP:     decimal.NewFromInt(totalSP),
		TotalBLD:    decimal.NewFromInt(totalBLD),
	}
}

func TestThresholdTier(t *testing.T) {
	Convey("Given the V3 thresholds", t, func() {
		th := badge.Threshold{Grade: "V3", First: 50, Second: 80, Third: 110}

		Convey("Then each boundary is inclusive", func() {
			So(th.Tier(decimal.NewFromInt(49)), ShouldEqual, 0)
			So(th.Tier(decimal.NewFromInt(50)), ShouldEqual, 1)
			So(th.Tier(decimal.RequireFromString("79.9")), ShouldEqual, 1)
			So(th.Tier(decimal.NewFromInt(80)), ShouldEqual, 2)
			So(th.Tier(decimal.NewFromInt(530)), ShouldEqual, 3)
		})
	})
}

func TestClimbers(t *testing.T) {
	Convey("Given climbers maxed in both disciplines", t, func() {
		a := badge.New()
		awards, warnings := a.Climbers([]scoring.ClimberScore{
			score("max", "Crimpers", "5.10ab", "V3", 100, 500),
			score("mid", "Crimpers", "5.9", "V1", 20, 15),
			score("odd", "Crimpers", "5.14d", "V9", 999, 999),
		})

		Convey("Then the total is capped at three", func() {
			So(awards[0].SP, ShouldEqual, 3)
			So(awards[0].BLD, ShouldEqual, 3)
			So(awards[0].Total, ShouldEqual, 3)
		})

		Convey("Then lower tiers add up", func() {
			So(awards[1].SP, ShouldEqual, 2)
			So(awards[1].BLD, ShouldEqual, 1)
			So(awards[1].Total, ShouldEqual, 3)
		})

		Convey("Then grades without a table row earn nothing and are reported", func() {
			So(awards[2].Total, ShouldEqual, 0)
			So(model.CountByKind(warnings)[model.WarnNoBadgeTable], ShouldEqual, 2)
		})
	})
}

func TestTeams(t *testing.T) {
	awards := []badge.ClimberAward{
		{Climber: "a", Team: "Crimpers", Total: 3},
		{Climber: "b", Team: "單人A", Total: 3},
		{Climber: "c", Team: "Crimpers", Total: 3},
		{Climber: "d", Team: "Slopers", Total: 0},
		{Climber: "e", Team: "Crimpers", Total: 3},
		{Climber: "f", Team: "Crimpers", Total: 2},
		{Climber: "g", Team: "", Total: 1},
	}

	Convey("Given the default solo exclusion", t, func() {
		teams := badge.New().Teams(awards)

		Convey("Then team totals cap at nine and zero teams are dropped", func() {
			So(len(teams), ShouldEqual, 2)
			So(teams[0].Team, ShouldEqual, "Crimpers")
			So(teams[0].Total, ShouldEqual, 9)
			So(teams[0].Members, ShouldEqual, 4)
			So(teams[1].Team, ShouldEqual, model.NotAvailable)
		})
	})

	Convey("Given solo exclusion disabled", t, func() {
		teams := badge.New(badge.WithSoloExclusion(false, "")).Teams(awards)

		Convey("Then solo teams are rolled up too", func() {
			So(len(teams), ShouldEqual, 3)
			So(teams[1].Team, ShouldEqual, "單人A")
			So(teams[1].Total, ShouldEqual, 3)
		})
	})

	Convey("Given custom caps and tables", t, func() {
		a := badge.New(
			badge.WithCaps(6, 20),
			badge.WithBldTable([]badge.Threshold{{Grade: "V0", First: 1, Second: 2, Third: 3}}),
		)
		out, _ := a.Climbers([]scoring.ClimberScore{score("x", "T", "5.9", "V0", 30, 3)})

		So(out[0].Total, ShouldEqual, 6)
		So(a.IsSolo("單人B"), ShouldBeTrue)
	})
}
