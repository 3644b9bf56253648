package model

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/oledu/pyramidgo/internal/domain/calendar"
)

// Settings keys read during ingestion.
const (
	SettingSeasonYear   = "SEASON_YEAR"
	SettingPeriod       = "PERIOD"
	SettingSiegeEnabled = "SIEGE_ENABLED"
)

const ingestStage = "ingest"

// Parse normalizes a raw snapshot document. Field values may be strings or
// numbers; rows that cannot be used are skipped with a warning. Only a
// document that is not a JSON object is rejected.
func Parse(data []byte, cal *calendar.Calendar) (*Snapshot, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}
	root := gjson.ParseBytes(data)
	if cal == nil {
		cal = calendar.New()
	}

	ws := NewWarnings(ingestStage)
	s := &Snapshot{Settings: parseSettings(root.Get("settings"))}
	if y, ok := leadingInt(s.Setting(SettingSeasonYear, "")); ok {
		cal = cal.WithYear(y)
	}
	s.SeasonYear = cal.Year()
	s.Period = s.Setting(SettingPeriod, "")

	eachRow(root.Get("participants"), "participants", ws, func(_ int, row gjson.Result) {
		name := text(row.Get("CLMBR_NM"))
		if name == "" {
			ws.Add(WarnMissingField, "participants", "CLMBR_NM")
			return
		}
		s.Participants = append(s.Participants, Participant{
			Name:        name,
			RegSpGrade:  strings.TrimSpace(text(row.Get("REG_SP_LEVEL"))),
			RegBldGrade: strings.TrimSpace(text(row.Get("REG_BLD_LEVEL"))),
			Team:        text(row.Get("TEAM_NM")),
			BeastMode:   text(row.Get("BEAST_MODE")),
		})
	})

	s.ScoringSp = parseRules(root.Get("scoringSp"), "scoringSp", SP, "REG_SP_LEVEL", ws)
	s.ScoringBld = parseRules(root.Get("scoringBld"), "scoringBld", BLD, "REG_BLD_LEVEL", ws)

	eachRow(root.Get("climbRecords"), "climbRecords", ws, func(i int, row gjson.Result) {
		attempts, ok := intOf(row.Get("SENT_COUNT"))
		if !ok || attempts < 0 {
			attempts = 0
		}
		rec := ClimbRecord{
			Seq:       i,
			Climber:   text(row.Get("CLMBR_NM")),
			Gym:       text(row.Get("GYM_NM")),
			Date:      strings.TrimSpace(text(row.Get("DATE"))),
			Grade:     text(row.Get("SENT_LEVEL")),
			Attempts:  attempts,
			OffSeason: strings.TrimSpace(text(row.Get("OFF_SEASON"))) == "Y",
		}
		rec.Leading = flagCount(row.Get("SP_LEADING"), attempts)
		rec.Redpoint = flagCount(row.Get("SP_RP"), attempts)
		rec.LeadCount = bonusCount(row.Get("SP_LEADING"))
		rec.RedpointCount = bonusCount(row.Get("SP_RP"))
		if rec.Date != "" {
			if day, ok := cal.Parse(rec.Date); ok {
				rec.Day = day
			} else {
				ws.Add(WarnInvalidDate, rec.Climber, rec.Date)
			}
		}
		s.ClimbRecords = append(s.ClimbRecords, rec)
	})

	eachRow(root.Get("castle_records"), "castle_records", ws, func(i int, row gjson.Result) {
		id := text(row.Get("CASTLE"))
		if id == "" {
			ws.Add(WarnMissingField, "castle_records", "CASTLE")
			return
		}
		hp, ok := intOf(row.Get("HP"))
		if !ok {
			ws.Add(WarnInvalidNumber, id, "HP")
		}
		if hp < 0 {
			hp = 0
		}
		rec := CastleRecord{Seq: i, Castle: id, HP: hp, StartDate: strings.TrimSpace(text(row.Get("START_DATE")))}
		rec.Start, _ = cal.Parse(rec.StartDate)
		s.CastleRecords = append(s.CastleRecords, rec)
	})

	eachRow(root.Get("castle_participants"), "castle_participants", ws, func(i int, row gjson.Result) {
		p := CastleParticipant{
			Seq:       i,
			Climber:   text(row.Get("CLMBR_NM")),
			HomeGym:   text(row.Get("HOME_GYM")),
			StartDate: strings.TrimSpace(text(row.Get("START_DATE"))),
			EndDate:   strings.TrimSpace(text(row.Get("END_DATE"))),
		}
		if p.Climber == "" || p.HomeGym == "" {
			ws.Add(WarnMissingField, "castle_participants", "CLMBR_NM/HOME_GYM")
			return
		}
		p.Start, _ = cal.Parse(p.StartDate)
		p.End, _ = cal.Parse(p.EndDate)
		s.CastleParticipants = append(s.CastleParticipants, p)
	})

	s.Warnings = ws.List()
	return s, nil
}

func parseRules(arr gjson.Result, name string, d Discipline, regKey string, ws *Warnings) []ScoringRule {
	var out []ScoringRule
	eachRow(arr, name, ws, func(_ int, row gjson.Result) {
		r := ScoringRule{
			Discipline: d,
			RegGrade:   strings.TrimSpace(text(row.Get(regKey))),
			SentGrade:  text(row.Get("SENT_LEVEL")),
		}
		r.Score, r.HasScore = intOf(row.Get("SCORE"))
		r.Limit, r.HasLimit = intOf(row.Get("LIMIT"))
		if !r.HasScore {
			ws.Add(WarnInvalidNumber, name, r.RegGrade+"/"+r.SentGrade+" SCORE")
		}
		out = append(out, r)
	})
	return out
}

// parseSettings flattens either an object or a list of objects. Rows shaped
// {KEY, VALUE} contribute a single pair.
func parseSettings(v gjson.Result) map[string]string {
	out := make(map[string]string)
	flatten := func(obj gjson.Result) {
		if k := obj.Get("KEY"); k.Exists() {
			out[text(k)] = text(obj.Get("VALUE"))
			return
		}
		obj.ForEach(func(key, value gjson.Result) bool {
			out[key.String()] = text(value)
			return true
		})
	}
	switch {
	case v.IsObject():
		flatten(v)
	case v.IsArray():
		v.ForEach(func(_, row gjson.Result) bool {
			if row.IsObject() {
				flatten(row)
			}
			return true
		})
	}
	return out
}

func eachRow(arr gjson.Result, name string, ws *Warnings, fn func(i int, row gjson.Result)) {
	if !arr.Exists() || arr.Type == gjson.Null {
		return
	}
	if !arr.IsArray() {
		ws.Add(WarnMalformedRow, name, "expected an array")
		return
	}
	i := 0
	arr.ForEach(func(_, row gjson.Result) bool {
		if row.IsObject() {
			fn(i, row)
		} else {
			ws.Add(WarnMalformedRow, name, fmt.Sprintf("row %d is not an object", i))
		}
		i++
		return true
	})
}

// text renders a scalar the way it was written in the document.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return r.Str
	case gjson.Number:
		return r.Raw
	case gjson.True:
		return "Y"
	case gjson.False:
		return "N"
	default:
		return ""
	}
}

// intOf reads an integer the lenient way the sheets are filled in: numbers
// are truncated and strings contribute their leading digits.
func intOf(r gjson.Result) (int, bool) {
	switch r.Type {
	case gjson.Number:
		return int(r.Num), true
	case gjson.String:
		return leadingInt(r.Str)
	default:
		return 0, false
	}
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		n = n*10 + int(s[digits]-'0')
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// flagCount reads SP_LEADING / SP_RP as a flag: "Y" marks every attempt
// of the row.
func flagCount(r gjson.Result, attempts int) int {
	if strings.ToUpper(strings.TrimSpace(text(r))) == "Y" {
		return attempts
	}
	return 0
}

// bonusCount reads SP_LEADING / SP_RP as a number. Leading digits count;
// flags and other text count zero.
func bonusCount(r gjson.Result) int {
	if r.Type == gjson.True {
		return 0
	}
	n, ok := intOf(r)
	if !ok || n < 0 {
		return 0
	}
	return n
}

// Validate checks that data is a JSON object without normalizing it.
func Validate(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: invalid json", ErrMalformedSnapshot)
	}
	if !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("%w: top level must be an object", ErrMalformedSnapshot)
	}
	return nil
}
