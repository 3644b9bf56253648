// Package types contains the JSON views served by the API and the CLI.
package types

import (
	"github.com/shopspring/decimal"

	"github.com/oledu/pyramidgo/internal/domain/badge"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
	"github.com/oledu/pyramidgo/internal/domain/siege"
)

// Entry represents a leaderboard entry
type Entry struct {
	Rank    int     `json:"rank"`
	Climber string  `json:"climber"`
	Team    string  `json:"team,omitempty"`
	Score   float64 `json:"score"`
}

// Grade is one achieved grade within a climber's score.
type Grade struct {
	Grade      string  `json:"grade"`
	Discipline string  `json:"discipline"`
	Attempts   int     `json:"attempts"`
	Leading    int     `json:"leading,omitempty"`
	Redpoint   int     `json:"redpoint,omitempty"`
	BaseScore  int     `json:"baseScore"`
	Limit      int     `json:"limit"`
	Total      float64 `json:"total"`
}

// Score is a climber's aggregate.
type Score struct {
	Climber     string  `json:"climber"`
	Team        string  `json:"team"`
	RegSpGrade  string  `json:"regSpGrade,omitempty"`
	RegBldGrade string  `json:"regBldGrade,omitempty"`
	Registered  bool    `json:"registered"`
	Records     int     `json:"records"`
	TotalSP     float64 `json:"totalSp"`
	TotalBLD    float64 `json:"totalBld"`
	Total       float64 `json:"total"`
	Grades      []Grade `json:"grades,omitempty"`
}

// Badge is a climber's badge count.
type Badge struct {
	Climber string `json:"climber"`
	Team    string `json:"team"`
	SP      int    `json:"sp"`
	BLD     int    `json:"bld"`
	Total   int    `json:"total"`
}

// Team is a team's capped badge sum.
type Team struct {
	Team    string `json:"team"`
	Total   int    `json:"total"`
	Members int    `json:"members"`
}

// Hero is one line of a castle's damage board.
type Hero struct {
	Climber string  `json:"climber"`
	Damage  float64 `json:"damage"`
}

// Castle is a castle's final state.
type Castle struct {
	ID               string             `json:"castleId"`
	OpeningDate      string             `json:"openingDate"`
	CurrentHP        int                `json:"currentHP"`
	OriginalHP       int                `json:"originalHP"`
	AttackCount      int                `json:"attackCount"`
	Status           string             `json:"status"`
	Band             string             `json:"band"`
	HealthPercent    float64            `json:"healthPercent"`
	AttackerLedger   map[string]float64 `json:"attackerLedger"`
	OffseasonLedger  map[string]float64 `json:"offseasonLedger"`
	MainAttackers    []string           `json:"mainAttackers"`
	HomeGymAttackers []string           `json:"homeGymAttackers"`
	Heroes           []Hero             `json:"heroes,omitempty"`
}

// Share is one climber's payout.
type Share struct {
	Climber string  `json:"climber"`
	Damage  float64 `json:"damage"`
	Amount  int64   `json:"amount"`
}

// Float converts an exact score for the wire.
func Float(d decimal.Decimal) float64 { return d.InexactFloat64() }

// NewScore renders a climber score.
func NewScore(s scoring.ClimberScore) Score {
	out := Score{
		Climber:     s.Participant.Name,
		Team:        s.Participant.Team,
		RegSpGrade:  s.Participant.RegSpGrade,
		RegBldGrade: s.Participant.RegBldGrade,
		Registered:  s.Registered,
		Records:     s.Records,
		TotalSP:     Float(s.TotalSP),
		TotalBLD:    Float(s.TotalBLD),
		Total:       Float(s.Combined()),
	}
	for _, g := range s.Grades {
		out.Grades = append(out.Grades, Grade{
			Grade:      g.Grade,
			Discipline: string(g.Discipline),
			Attempts:   g.Attempts,
			Leading:    g.Leading,
			Redpoint:   g.Redpoint,
			BaseScore:  g.BaseScore,
			Limit:      g.Limit,
			Total:      Float(g.Total),
		})
	}
	return out
}

// NewScores renders every climber score.
func NewScores(in []scoring.ClimberScore) []Score {
	out := make([]Score, 0, len(in))
	for _, s := range in {
		out = append(out, NewScore(s))
	}
	return out
}

// NewBadges renders climber awards.
func NewBadges(in []badge.ClimberAward) []Badge {
	out := make([]Badge, 0, len(in))
	for _, a := range in {
		out = append(out, Badge{Climber: a.Climber, Team: a.Team, SP: a.SP, BLD: a.BLD, Total: a.Total})
	}
	return out
}

// NewTeams renders team awards.
func NewTeams(in []badge.TeamAward) []Team {
	out := make([]Team, 0, len(in))
	for _, t := range in {
		out = append(out, Team{Team: t.Team, Total: t.Total, Members: t.Members})
	}
	return out
}

func ledger(m map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = Float(v)
	}
	return out
}

// NewCastle renders a castle with up to heroes board lines.
func NewCastle(c *siege.Castle, heroes int) Castle {
	out := Castle{
		ID:               c.ID,
		OpeningDate:      c.OpeningDate,
		CurrentHP:        c.HP,
		OriginalHP:       c.OriginalHP,
		AttackCount:      c.AttackCount,
		Status:           string(c.Status()),
		Band:             string(c.Band()),
		HealthPercent:    c.HealthPercent(),
		AttackerLedger:   ledger(c.Attackers),
		OffseasonLedger:  ledger(c.Offseason),
		MainAttackers:    append([]string{}, c.MainAttackers...),
		HomeGymAttackers: append([]string{}, c.HomeGymAttackers...),
	}
	for _, h := range c.Heroes(heroes) {
		out.Heroes = append(out.Heroes, Hero{Climber: h.Climber, Damage: Float(h.Damage)})
	}
	return out
}

// NewCastles renders castles in run order.
func NewCastles(in []*siege.Castle, heroes int) []Castle {
	out := make([]Castle, 0, len(in))
	for _, c := range in {
		out = append(out, NewCastle(c, heroes))
	}
	return out
}

// NewShares renders reward shares.
func NewShares(in []siege.Share) []Share {
	out := make([]Share, 0, len(in))
	for _, s := range in {
		out = append(out, Share{Climber: s.Climber, Damage: Float(s.Damage), Amount: s.Amount})
	}
	return out
}
