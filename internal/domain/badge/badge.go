// Package badge awards tiered badges from discipline totals and rolls them
// up per team.
package badge

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
)

// Stage names the awarder in warnings.
const Stage = "badge"

// Default caps and solo-team prefix.
const (
	DefaultClimberCap = 3
	DefaultTeamCap    = 9
	DefaultSoloPrefix = "單人"
)

// Threshold is the ascending score needed for tiers one to three at a
// registered grade.
type Threshold struct {
	Grade  string `koanf:"grade" yaml:"grade" json:"grade"`
	First  int    `koanf:"first" yaml:"first" json:"first"`
	Second int    `koanf:"second" yaml:"second" json:"second"`
	Third  int    `koanf:"third" yaml:"third" json:"third"`
}

// Tier maps total onto 0..3.
func (t Threshold) Tier(total decimal.Decimal) int {
	switch {
	case total.GreaterThanOrEqual(decimal.NewFromInt(int64(t.Third))):
		return 3
	case total.GreaterThanOrEqual(decimal.NewFromInt(int64(t.Second))):
		return 2
	case total.GreaterThanOrEqual(decimal.NewFromInt(int64(t.First))):
		return 1
	default:
		return 0
	}
}

// DefaultBldTable returns the bouldering thresholds.
func DefaultBldTable() []Threshold {
	return []Threshold{
		{Grade: "V1", First: 15, Second: 30, Third: 45},
		{Grade: "V2", First: 30, Second: 50, Third: 70},
		{Grade: "V3", First: 50, Second: 80, Third: 110},
		{Grade: "V4", First: 60, Second: 95, Third: 130},
		{Grade: "V5", First: 80, Second: 110, Third: 140},
		{Grade: "V6", First: 90, Second: 120, Third: 150},
	}
}

// DefaultSpTable returns the sport climbing thresholds.
func DefaultSpTable() []Threshold {
	return []Threshold{
		{Grade: "5.9", First: 15, Second: 20, Third: 25},
		{Grade: "5.10ab", First: 30, Second: 40, Third: 45},
		{Grade: "5.10cd", First: 50, Second: 70, Third: 75},
		{Grade: "5.11ab", First: 60, Second: 70, Third: 80},
		{Grade: "5.11cd", First: 80, Second: 95, Third: 110},
		{Grade: "5.12ab", First: 80, Second: 110, Third: 130},
	}
}

// ClimberAward is one climber's badge count.
type ClimberAward struct {
	Climber     string
	Team        string
	RegSpGrade  string
	RegBldGrade string
	TotalSP     decimal.Decimal
	TotalBLD    decimal.Decimal
	SP          int
	BLD         int
	Total       int
}

// TeamAward is a team's capped badge sum.
type TeamAward struct {
	Team    string
	Total   int
	Members int
}

// Awarder applies threshold tables and caps.
type Awarder struct {
	sp          []Threshold
	bld         []Threshold
	climberCap  int
	teamCap     int
	excludeSolo bool
	soloPrefix  string
}

// New creates an Awarder with the default tables.
func New(opts ...Option) *Awarder {
	a := &Awarder{
		sp:          DefaultSpTable(),
		bld:         DefaultBldTable(),
		climberCap:  DefaultClimberCap,
		teamCap:     DefaultTeamCap,
		excludeSolo: true,
		soloPrefix:  DefaultSoloPrefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func lookup(table []Threshold, grade string) (Threshold, bool) {
	for _, t := range table {
		if t.Grade == grade {
			return t, true
		}
	}
	return Threshold{}, false
}

// Climbers awards every scored climber, preserving input order.
func (a *Awarder) Climbers(scores []scoring.ClimberScore) ([]ClimberAward, []model.Warning) {
	ws := model.NewWarnings(Stage)
	out := make([]ClimberAward, 0, len(scores))
	for _, s := range scores {
		p := s.Participant
		aw := ClimberAward{
			Climber:     p.Name,
			Team:        p.Team,
			RegSpGrade:  p.RegSpGrade,
			RegBldGrade: p.RegBldGrade,
			TotalSP:     s.TotalSP,
			TotalBLD:    s.TotalBLD,
		}
		if t, ok := lookup(a.sp, p.RegSpGrade); ok {
			aw.SP = t.Tier(s.TotalSP)
		} else if p.RegSpGrade != "" && s.Registered {
			ws.Add(model.WarnNoBadgeTable, p.Name, string(model.SP)+" "+p.RegSpGrade)
		}
		if t, ok := lookup(a.bld, p.RegBldGrade); ok {
			aw.BLD = t.Tier(s.TotalBLD)
		} else if p.RegBldGrade != "" && s.Registered {
			ws.Add(model.WarnNoBadgeTable, p.Name, string(model.BLD)+" "+p.RegBldGrade)
		}
		aw.Total = min(aw.SP+aw.BLD, a.climberCap)
		out = append(out, aw)
	}
	return out, ws.List()
}

// IsSolo reports whether team is a solo entry excluded from rollups.
func (a *Awarder) IsSolo(team string) bool {
	return a.excludeSolo && a.soloPrefix != "" && strings.HasPrefix(team, a.soloPrefix)
}

// Teams sums climber totals per team in first-seen order. Teams with a
// zero total are dropped.
func (a *Awarder) Teams(awards []ClimberAward) []TeamAward {
	idx := make(map[string]int)
	var out []TeamAward
	for _, aw := range awards {
		team := aw.Team
		if team == "" {
			team = model.NotAvailable
		}
		if a.IsSolo(team) {
			continue
		}
		i, ok := idx[team]
		if !ok {
			i = len(out)
			idx[team] = i
			out = append(out, TeamAward{Team: team})
		}
		out[i].Members++
		out[i].Total = min(out[i].Total+aw.Total, a.teamCap)
	}
	kept := out[:0]
	for _, t := range out {
		if t.Total > 0 {
			kept = append(kept, t)
		}
	}
	return kept
}
