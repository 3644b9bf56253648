// Package scoring turns climb records into capped per-grade scores and
// discipline totals.
package scoring

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/oledu/pyramidgo/internal/domain/model"
)

// Stage names the calculator in warnings.
const Stage = "scoring"

// Default scoring configuration constants.
const (
	defaultDiminishingFactor = "0.3"
)

// GradeTally is one climber's accumulation at one achieved grade.
type GradeTally struct {
	Grade      string
	Attempts   int
	Leading    int
	Redpoint   int
	Scored     bool
	BaseScore  int
	Limit      int
	Discipline model.Discipline
	Total      decimal.Decimal
}

// ClimberScore is the capped score aggregate of one climber.
type ClimberScore struct {
	Participant model.Participant
	Registered  bool
	Records     int
	Grades      []GradeTally
	TotalSP     decimal.Decimal
	TotalBLD    decimal.Decimal
}

// Combined is TotalSP + TotalBLD.
func (c ClimberScore) Combined() decimal.Decimal {
	return c.TotalSP.Add(c.TotalBLD)
}

// Total returns the discipline total for d.
func (c ClimberScore) Total(d model.Discipline) decimal.Decimal {
	switch d {
	case model.SP:
		return c.TotalSP
	case model.BLD:
		return c.TotalBLD
	default:
		return decimal.Zero
	}
}

// Calculator computes capped scores. It holds only read-only tables and is
// safe for concurrent use.
type Calculator struct {
	rules  *RuleBook
	factor decimal.Decimal
}

// NewCalculator creates a Calculator over rules.
func NewCalculator(rules *RuleBook, opts ...Option) *Calculator {
	c := &Calculator{
		rules:  rules,
		factor: decimal.RequireFromString(defaultDiminishingFactor),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capped is the score of attempts at one grade: full base score up to
// limit, factor times the base score beyond it.
func Capped(attempts, base, limit int, factor decimal.Decimal) decimal.Decimal {
	if limit < 0 {
		limit = 0
	}
	b := decimal.NewFromInt(int64(base))
	if attempts <= limit {
		return decimal.NewFromInt(int64(attempts)).Mul(b)
	}
	full := decimal.NewFromInt(int64(limit)).Mul(b)
	extra := decimal.NewFromInt(int64(attempts - limit)).Mul(b).Mul(factor)
	return full.Add(extra)
}

type climberAcc struct {
	records int
	grades  map[string]*GradeTally
}

// Calculate folds records into one ClimberScore per climber. Totals are
// recomputed from the running attempt count, so any ordering of records
// yields the same result.
func (c *Calculator) Calculate(participants []model.Participant, records []model.ClimbRecord) ([]ClimberScore, []model.Warning) {
	ws := model.NewWarnings(Stage)
	roster := NewRoster(participants)
	acc := make(map[string]*climberAcc)

	for _, r := range records {
		if r.Climber == "" || r.Grade == "" {
			ws.Add(model.WarnMissingField, r.Climber, "CLMBR_NM/SENT_LEVEL")
			continue
		}
		if r.Attempts <= 0 {
			ws.Add(model.WarnInvalidNumber, r.Climber, "SENT_COUNT")
			continue
		}
		if _, known := roster.Resolve(r.Climber); !known {
			ws.Add(model.WarnUnknownClimber, r.Climber, "")
		}

		a, ok := acc[r.Climber]
		if !ok {
			a = &climberAcc{grades: make(map[string]*GradeTally)}
			acc[r.Climber] = a
		}
		a.records++
		t, ok := a.grades[r.Grade]
		if !ok {
			t = &GradeTally{Grade: r.Grade, Discipline: model.Unscored, Total: decimal.Zero}
			a.grades[r.Grade] = t
		}
		t.Attempts += r.Attempts
		t.Leading += r.Leading
		t.Redpoint += r.Redpoint
	}

	names := roster.Names()
	out := make([]ClimberScore, 0, len(names))
	for _, name := range names {
		p := roster.Get(name)
		cs := ClimberScore{
			Participant: p,
			Registered:  roster.Registered(name),
			TotalSP:     decimal.Zero,
			TotalBLD:    decimal.Zero,
		}
		if a, ok := acc[name]; ok {
			cs.Records = a.records
			cs.Grades = c.finish(p, a, ws)
			for _, g := range cs.Grades {
				switch g.Discipline {
				case model.SP:
					cs.TotalSP = cs.TotalSP.Add(g.Total)
				case model.BLD:
					cs.TotalBLD = cs.TotalBLD.Add(g.Total)
				}
			}
		}
		out = append(out, cs)
	}
	return out, ws.List()
}

func (c *Calculator) finish(p model.Participant, a *climberAcc, ws *model.Warnings) []GradeTally {
	grades := make([]GradeTally, 0, len(a.grades))
	for _, t := range a.grades {
		g := *t
		rule, ok := c.rules.Match(p.RegSpGrade, p.RegBldGrade, g.Grade)
		if ok && rule.HasScore && rule.HasLimit {
			g.Scored = true
			g.BaseScore = rule.Score
			g.Limit = rule.Limit
			g.Discipline = rule.Discipline
			g.Total = Capped(g.Attempts, rule.Score, rule.Limit, c.factor)
		} else {
			ws.Add(model.WarnUnscoredGrade, p.Name, g.Grade)
		}
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].Grade < grades[j].Grade })
	return grades
}
