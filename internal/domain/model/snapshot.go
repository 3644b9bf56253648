// Package model contains the normalized league snapshot shared by every
// engine stage.
package model

import "time"

// Discipline is a climbing category with its own rule and badge tables.
type Discipline string

// Disciplines. Unscored tags grades that matched neither rule table.
const (
	SP       Discipline = "SP"
	BLD      Discipline = "BLD"
	Unscored Discipline = "N/A"
)

// Placeholder values used when a record or participant lacks a field.
const (
	NotAvailable = "N/A"
	UnknownGym   = "未知"
	UnknownDate  = "未知日期"
)

// Participant is a registered climber.
type Participant struct {
	Name        string `json:"CLMBR_NM"`
	RegSpGrade  string `json:"REG_SP_LEVEL"`
	RegBldGrade string `json:"REG_BLD_LEVEL"`
	Team        string `json:"TEAM_NM"`
	BeastMode   string `json:"BEAST_MODE"`
}

// ClimbRecord is one logged session line.
type ClimbRecord struct {
	Seq       int       `json:"-"`
	Climber   string    `json:"CLMBR_NM"`
	Gym       string    `json:"GYM_NM"`
	Date      string    `json:"DATE"`
	Day       time.Time `json:"-"`
	Grade     string    `json:"SENT_LEVEL"`
	Attempts  int       `json:"SENT_COUNT"`
	OffSeason bool      `json:"OFF_SEASON"`

	// Leading and Redpoint tally flagged attempts for the grade report:
	// "Y" marks every attempt of the row, anything else marks none.
	Leading  int `json:"leading"`
	Redpoint int `json:"redpoint"`

	// LeadCount and RedpointCount are the numeric counts written in
	// SP_LEADING and SP_RP. They drive the uncapped bonus; "Y" counts zero.
	LeadCount     int `json:"SP_LEADING"`
	RedpointCount int `json:"SP_RP"`
}

// HasDay reports whether the record date was understood.
func (r ClimbRecord) HasDay() bool { return !r.Day.IsZero() }

// DayKey groups the record by calendar day.
func (r ClimbRecord) DayKey() string { return DayKey(r.Day, r.Date) }

// DayKey is the grouping key for a date: the parsed day when there is one,
// otherwise the raw text, so "3/2" and "03/02" share a key.
func DayKey(day time.Time, raw string) string {
	if day.IsZero() {
		return raw
	}
	return day.Format(time.DateOnly)
}

// ScoringRule maps (registered grade, achieved grade) to a base score and cap.
type ScoringRule struct {
	Discipline Discipline
	RegGrade   string
	SentGrade  string
	Score      int
	Limit      int
	HasScore   bool
	HasLimit   bool
}

// CastleRecord is one HP snapshot of a gym's castle.
type CastleRecord struct {
	Seq       int
	Castle    string
	HP        int
	StartDate string
	Start     time.Time
}

// CastleSnapshot is the deduplicated castle entry the siege starts from.
type CastleSnapshot struct {
	CastleRecord
	OriginalHP int
}

// CastleParticipant ties a climber to a home gym for a date window.
type CastleParticipant struct {
	Seq       int
	Climber   string
	HomeGym   string
	StartDate string
	EndDate   string
	Start     time.Time
	End       time.Time
}

// Snapshot is one fully materialized period of league data.
type Snapshot struct {
	Period             string
	SeasonYear         int
	Participants       []Participant
	ScoringSp          []ScoringRule
	ScoringBld         []ScoringRule
	ClimbRecords       []ClimbRecord
	CastleRecords      []CastleRecord
	CastleParticipants []CastleParticipant
	Settings           map[string]string
	Warnings           []Warning
}

// Setting returns a settings value or def when absent.
func (s *Snapshot) Setting(key, def string) string {
	if s == nil || s.Settings == nil {
		return def
	}
	if v, ok := s.Settings[key]; ok && v != "" {
		return v
	}
	return def
}

// InSeason returns the records not flagged off-season.
func (s *Snapshot) InSeason() []ClimbRecord {
	out := make([]ClimbRecord, 0, len(s.ClimbRecords))
	for _, r := range s.ClimbRecords {
		if !r.OffSeason {
			out = append(out, r)
		}
	}
	return out
}

// OffSeason returns the records flagged off-season.
func (s *Snapshot) OffSeason() []ClimbRecord {
	var out []ClimbRecord
	for _, r := range s.ClimbRecords {
		if r.OffSeason {
			out = append(out, r)
		}
	}
	return out
}
