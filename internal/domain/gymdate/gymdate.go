// Package gymdate re-aggregates in-season climb records by gym, by date and
// by gym and date, without attempt caps. Its buckets feed the siege.
package gymdate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oledu/pyramidgo/internal/domain/model"
	"github.com/oledu/pyramidgo/internal/domain/scoring"
)

// Stage names the aggregator in warnings.
const Stage = "gymdate"

const (
	defaultLeadingBonus  = "0.3"
	defaultRedpointBonus = "0.2"
)

// Totals is a per-discipline score pair.
type Totals struct {
	SP  decimal.Decimal
	BLD decimal.Decimal
}

// Total is SP + BLD.
func (t Totals) Total() decimal.Decimal { return t.SP.Add(t.BLD) }

func (t Totals) add(d model.Discipline, v decimal.Decimal) Totals {
	switch d {
	case model.SP:
		t.SP = t.SP.Add(v)
	case model.BLD:
		t.BLD = t.BLD.Add(v)
	}
	return t
}

func zero() Totals { return Totals{SP: decimal.Zero, BLD: decimal.Zero} }

// Cell is one climber's activity at one gym on one date.
type Cell struct {
	Gym      string
	Date     string
	Day      time.Time
	Attempts int
	Records  int
	Totals
}

// ClimberBuckets holds the three parallel accumulations for one climber.
type ClimberBuckets struct {
	Climber string
	Gyms    map[string]Totals
	Dates   map[string]Totals
	Cells   []Cell
}

// Cell looks up the gym and date bucket.
func (b ClimberBuckets) Cell(gym, date string) (Cell, bool) {
	for _, c := range b.Cells {
		if c.Gym == gym && c.Date == date {
			return c, true
		}
	}
	return Cell{}, false
}

// GymDates returns the nested gym to date to total view.
func (b ClimberBuckets) GymDates() map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal)
	for _, c := range b.Cells {
		if out[c.Gym] == nil {
			out[c.Gym] = make(map[string]decimal.Decimal)
		}
		out[c.Gym][c.Date] = c.Total()
	}
	return out
}

// Aggregator computes uncapped gym and date buckets.
type Aggregator struct {
	rules    *scoring.RuleBook
	leading  decimal.Decimal
	redpoint decimal.Decimal
}

// New creates an Aggregator over rules.
func New(rules *scoring.RuleBook, opts ...Option) *Aggregator {
	a := &Aggregator{
		rules:    rules,
		leading:  decimal.RequireFromString(defaultLeadingBonus),
		redpoint: decimal.RequireFromString(defaultRedpointBonus),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RecordScore is the uncapped score of a single record.
func RecordScore(attempts, leading, redpoint, base int, leadingBonus, redpointBonus decimal.Decimal) decimal.Decimal {
	b := decimal.NewFromInt(int64(base))
	s := decimal.NewFromInt(int64(attempts)).Mul(b)
	s = s.Add(decimal.NewFromInt(int64(leading)).Mul(b).Mul(leadingBonus))
	return s.Add(decimal.NewFromInt(int64(redpoint)).Mul(b).Mul(redpointBonus))
}

type cellKey struct{ gym, day string }

type builder struct {
	gyms   map[string]Totals
	dates  map[string]Totals
	cells  map[cellKey]*Cell
	labels map[string]string // day key -> first date spelling seen
}

// label returns the date text used for r's day, fixing it on first sight.
func (bd *builder) label(r model.ClimbRecord, date string) string {
	k := model.DayKey(r.Day, date)
	if l, ok := bd.labels[k]; ok {
		return l
	}
	bd.labels[k] = date
	return date
}

// Aggregate buckets every in-season record. Records without a climber,
// grade or positive attempt count are skipped; unscored records still
// open a zero-valued bucket. Only climbers with at least one bucket are
// returned, in roster order.
func (a *Aggregator) Aggregate(participants []model.Participant, records []model.ClimbRecord) ([]ClimberBuckets, []model.Warning) {
	ws := model.NewWarnings(Stage)
	roster := scoring.NewRoster(participants)
	acc := make(map[string]*builder)

	for _, r := range records {
		if r.OffSeason || r.Climber == "" || r.Grade == "" || r.Attempts <= 0 {
			continue
		}
		p, _ := roster.Resolve(r.Climber)

		gym, date := r.Gym, r.Date
		if gym == "" {
			gym = model.UnknownGym
			ws.Add(model.WarnMissingField, r.Climber, "GYM_NM")
		}
		if date == "" {
			date = model.UnknownDate
			ws.Add(model.WarnMissingField, r.Climber, "DATE")
		}

		bd, ok := acc[r.Climber]
		if !ok {
			bd = &builder{
				gyms:   make(map[string]Totals),
				dates:  make(map[string]Totals),
				cells:  make(map[cellKey]*Cell),
				labels: make(map[string]string),
			}
			acc[r.Climber] = bd
		}
		date = bd.label(r, date)
		k := cellKey{gym: gym, day: model.DayKey(r.Day, date)}
		c, ok := bd.cells[k]
		if !ok {
			c = &Cell{Gym: gym, Date: date, Day: r.Day, Totals: zero()}
			bd.cells[k] = c
		}
		c.Attempts += r.Attempts
		c.Records++
		if _, ok := bd.gyms[gym]; !ok {
			bd.gyms[gym] = zero()
		}
		if _, ok := bd.dates[date]; !ok {
			bd.dates[date] = zero()
		}

		rule, ok := a.rules.Match(p.RegSpGrade, p.RegBldGrade, r.Grade)
		if !ok || !rule.HasScore {
			continue
		}
		v := RecordScore(r.Attempts, r.LeadCount, r.RedpointCount, rule.Score, a.leading, a.redpoint)
		c.Totals = c.Totals.add(rule.Discipline, v)
		bd.gyms[gym] = bd.gyms[gym].add(rule.Discipline, v)
		bd.dates[date] = bd.dates[date].add(rule.Discipline, v)
	}

	var out []ClimberBuckets
	for _, name := range roster.Names() {
		bd, ok := acc[name]
		if !ok {
			continue
		}
		cells := make([]Cell, 0, len(bd.cells))
		for _, c := range bd.cells {
			cells = append(cells, *c)
		}
		sortCells(cells)
		out = append(out, ClimberBuckets{Climber: name, Gyms: bd.gyms, Dates: bd.dates, Cells: cells})
	}
	return out, ws.List()
}

// sortCells orders by gym, then by parsed day with unparsed dates last,
// then by the raw date text.
func sortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		a, b := cells[i], cells[j]
		if a.Gym != b.Gym {
			return a.Gym < b.Gym
		}
		if a.Day.IsZero() != b.Day.IsZero() {
			return !a.Day.IsZero()
		}
		if !a.Day.Equal(b.Day) {
			return a.Day.Before(b.Day)
		}
		return a.Date < b.Date
	})
}
