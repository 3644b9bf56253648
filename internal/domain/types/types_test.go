package types_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/oledu/pyramidgo/internal/domain/badge"
	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
	"github.com/oledu/pyramidgo/internal/domain/siege"
	types "github.com/oledu/pyramidgo/internal/domain/types"
)

func TestEntry(t *testing.T) {
	Convey("Given an Entry struct", t, func() {
		entry := types.Entry{Rank: 1, Climber: "amy", Score: 95.5}

		Convey("When it is encoded", func() {
			data, err := json.Marshal(entry)

			Convey("Then it uses the wire names and omits an empty team", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"rank":1,"climber":"amy","score":95.5}`)
			})
		})
	})
}

func TestNewScore(t *testing.T) {
	Convey("Given a climber score with one tallied grade", t, func() {
		s := scoring.ClimberScore{
			Participant: model.Participant{Name: "pat", RegBldGrade: "V3", Team: "Crimpers"},
			Registered:  true,
			Records:     2,
			TotalSP:     decimal.RequireFromString("12.5"),
			TotalBLD:    decimal.NewFromInt(530),
			Grades: []scoring.GradeTally{{
				Grade: "V3", Discipline: model.BLD, Attempts: 12, Scored: true,
				BaseScore: 50, Limit: 10, Total: decimal.NewFromInt(530),
			}},
		}

		view := types.NewScore(s)

		Convey("Then totals become floats and the grade is carried", func() {
			So(view.Climber, ShouldEqual, "pat")
			So(view.TotalBLD, ShouldEqual, 530)
			So(view.Total, ShouldEqual, 542.5)
			So(len(view.Grades), ShouldEqual, 1)
			So(view.Grades[0].Discipline, ShouldEqual, "BLD")
			So(view.Grades[0].Total, ShouldEqual, 530)
		})
	})
}

func TestNewCastle(t *testing.T) {
	Convey("Given a castle after a siege", t, func() {
		c := &siege.Castle{
			ID: "Alpha", OriginalHP: 1000, HP: 600, AttackCount: 2,
			Attackers: map[string]decimal.Decimal{
				"amy": decimal.NewFromInt(300),
				"bo":  decimal.NewFromInt(100),
			},
			Offseason:     map[string]decimal.Decimal{"cy": decimal.NewFromInt(20)},
			MainAttackers: []string{"amy"},
		}

		view := types.NewCastle(c, 1)

		Convey("Then the wire shape carries both ledgers and the hero board", func() {
			So(view.CurrentHP, ShouldEqual, 600)
			So(view.OriginalHP, ShouldEqual, 1000)
			So(view.AttackerLedger["bo"], ShouldEqual, 100)
			So(view.OffseasonLedger["cy"], ShouldEqual, 20)
			So(view.Status, ShouldEqual, string(siege.StatusDamaged))
			So(view.Band, ShouldEqual, string(siege.BandDamaged))
			So(view.HealthPercent, ShouldEqual, 60)
			So(len(view.Heroes), ShouldEqual, 1)
			So(view.Heroes[0].Climber, ShouldEqual, "amy")
			So(view.HomeGymAttackers, ShouldNotBeNil)
		})

		Convey("Then the JSON keys match the castle contract", func() {
			data, err := json.Marshal(view)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"castleId":"Alpha"`)
			So(string(data), ShouldContainSubstring, `"attackerLedger"`)
			So(string(data), ShouldContainSubstring, `"offseasonLedger"`)
		})
	})
}

func TestNewTeamsAndBadges(t *testing.T) {
	Convey("Given awards", t, func() {
		badges := types.NewBadges([]badge.ClimberAward{{Climber: "pat", Team: "Crimpers", BLD: 3, Total: 3}})
		teams := types.NewTeams([]badge.TeamAward{{Team: "Crimpers", Total: 3, Members: 2}})

		Convey("Then they are rendered one to one", func() {
			So(badges[0].BLD, ShouldEqual, 3)
			So(teams[0].Members, ShouldEqual, 2)
			So(types.NewTeams(nil), ShouldBeEmpty)
		})
	})
}
