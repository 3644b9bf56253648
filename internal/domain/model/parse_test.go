package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/oledu/pyramidgo/internal/domain/calendar"
	"github.com/oledu/pyramidgo/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const sampleSnapshot = `{
  "participants": [
    {"CLMBR_NM": "amy", "REG_SP_LEVEL": " 5.10ab ", "REG_BLD_LEVEL": "V3", "TEAM_NM": "crux"},
    {"REG_SP_LEVEL": "5.9"}
  ],
  "scoringSp": [{"REG_SP_LEVEL": "5.10ab", "SENT_LEVEL": "5.10a", "SCORE": "20", "LIMIT": 5}],
  "scoringBld": [{"REG_BLD_LEVEL": "V3", "SENT_LEVEL": "V3", "SCORE": 50, "LIMIT": "10"}],
  "climbRecords": [
    {"CLMBR_NM": "amy", "GYM_NM": "Alpha", "DATE": "3/15", "SENT_LEVEL": "V3", "SENT_COUNT": "4"},
    {"CLMBR_NM": "amy", "GYM_NM": "Alpha", "DATE": "3/16", "SENT_LEVEL": "5.10a", "SENT_COUNT": 3, "SP_LEADING": "Y", "SP_RP": "2"},
    {"CLMBR_NM": "bob", "GYM_NM": "Beta", "DATE": "??", "SENT_LEVEL": "V1", "SENT_COUNT": "x", "OFF_SEASON": "Y"},
    "not a row"
  ],
  "castle_records": [{"CASTLE": "Alpha", "HP": "1000", "START_DATE": "2024/3/1"}, {"HP": 5}],
  "castle_participants": [{"CLMBR_NM": "amy", "HOME_GYM": "Alpha", "START_DATE": "2024/3/1", "END_DATE": "2024/3/31"}],
  "settings": [{"KEY": "SEASON_YEAR", "VALUE": "2024"}, {"PERIOD": "202403"}]
}`

func TestParse(t *testing.T) {
	Convey("Given a snapshot with mixed string and number fields", t, func() {
		cal := calendar.New(calendar.WithSeasonYear(2030), calendar.WithLocation(time.UTC))

		snap, err := model.Parse([]byte(sampleSnapshot), cal)

		Convey("Then it parses without error", func() {
			So(err, ShouldBeNil)
			So(snap, ShouldNotBeNil)
		})

		Convey("Then settings are flattened and the season year comes from them", func() {
			So(snap.Settings["SEASON_YEAR"], ShouldEqual, "2024")
			So(snap.Period, ShouldEqual, "202403")
			So(snap.SeasonYear, ShouldEqual, 2024)
		})

		Convey("Then participants are normalized and nameless rows dropped", func() {
			So(len(snap.Participants), ShouldEqual, 1)
			So(snap.Participants[0].RegSpGrade, ShouldEqual, "5.10ab")
			So(snap.Participants[0].Team, ShouldEqual, "crux")
		})

		Convey("Then rule tables coerce numbers", func() {
			So(snap.ScoringSp[0].Score, ShouldEqual, 20)
			So(snap.ScoringSp[0].Limit, ShouldEqual, 5)
			So(snap.ScoringSp[0].Discipline, ShouldEqual, model.SP)
			So(snap.ScoringBld[0].Score, ShouldEqual, 50)
			So(snap.ScoringBld[0].Limit, ShouldEqual, 10)
			So(snap.ScoringBld[0].HasLimit, ShouldBeTrue)
		})

		Convey("Then climb records are coerced", func() {
			So(len(snap.ClimbRecords), ShouldEqual, 3)

			first := snap.ClimbRecords[0]
			So(first.Attempts, ShouldEqual, 4)
			So(first.Day, ShouldEqual, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))

			second := snap.ClimbRecords[1]
			So(second.Leading, ShouldEqual, 3)
			So(second.Redpoint, ShouldEqual, 0)
			So(second.LeadCount, ShouldEqual, 0)
			So(second.RedpointCount, ShouldEqual, 2)

			third := snap.ClimbRecords[2]
			So(third.Attempts, ShouldEqual, 0)
			So(third.OffSeason, ShouldBeTrue)
			So(third.HasDay(), ShouldBeFalse)
		})

		Convey("Then castles and home gyms carry parsed dates", func() {
			So(len(snap.CastleRecords), ShouldEqual, 1)
			So(snap.CastleRecords[0].HP, ShouldEqual, 1000)
			So(snap.CastleRecords[0].Start.IsZero(), ShouldBeFalse)
			So(len(snap.CastleParticipants), ShouldEqual, 1)
			So(snap.CastleParticipants[0].End.Day(), ShouldEqual, 31)
		})

		Convey("Then skipped rows surface as warnings", func() {
			kinds := model.CountByKind(snap.Warnings)
			So(kinds[model.WarnMissingField], ShouldEqual, 2)
			So(kinds[model.WarnMalformedRow], ShouldEqual, 1)
			So(kinds[model.WarnInvalidDate], ShouldEqual, 1)
		})

		Convey("Then off-season records split cleanly", func() {
			So(len(snap.InSeason()), ShouldEqual, 2)
			So(len(snap.OffSeason()), ShouldEqual, 1)
		})
	})

	Convey("Given documents that are not JSON objects", t, func() {
		_, err1 := model.Parse([]byte(`{"participants": [`), nil)
		_, err2 := model.Parse([]byte(`[1,2,3]`), nil)

		Convey("Then ingestion fails with the malformed sentinel", func() {
			So(errors.Is(err1, model.ErrMalformedSnapshot), ShouldBeTrue)
			So(errors.Is(err2, model.ErrMalformedSnapshot), ShouldBeTrue)
		})
	})

	Convey("Given a document written from the wire shape", t, func() {
		doc := &model.Document{
			Participants: []model.Participant{{Name: "cat", RegBldGrade: "V2", Team: "單人-cat"}},
			ClimbRecords: []model.ClimbRow{{Climber: "cat", Gym: "Gamma", Date: "4/1", SentLevel: "V2", SentCount: "2"}},
		}
		data, err := doc.Marshal()
		So(err, ShouldBeNil)

		snap, err := model.Parse(data, calendar.New(calendar.WithSeasonYear(2024)))

		Convey("Then parsing reads it back", func() {
			So(err, ShouldBeNil)
			So(snap.Participants[0].Team, ShouldEqual, "單人-cat")
			So(snap.ClimbRecords[0].Attempts, ShouldEqual, 2)
			So(snap.Setting("MISSING", "fallback"), ShouldEqual, "fallback")
		})
	})
}
