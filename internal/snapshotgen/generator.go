// Package snapshotgen builds synthetic league snapshots for load tests,
// demos and property tests.
package snapshotgen

import (
	"fmt"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/oledu/pyramidgo/internal/domain/model"
)

// Grade ladders used for registration and rule tables.
var (
	bldGrades = []string{"V1", "V2", "V3", "V4", "V5", "V6"}
	spGrades  = []string{"5.9", "5.10ab", "5.10cd", "5.11ab", "5.11cd", "5.12ab"}
	spSent    = map[string][]string{
		"5.9":    {"5.8", "5.9"},
		"5.10ab": {"5.10a", "5.10b"},
		"5.10cd": {"5.10c", "5.10d"},
		"5.11ab": {"5.11a", "5.11b"},
		"5.11cd": {"5.11c", "5.11d"},
		"5.12ab": {"5.12a", "5.12b"},
	}
)

// Generator produces snapshot documents from a seeded faker so the same
// seed always yields the same document.
type Generator struct {
	faker *gofakeit.Faker
	seed  uint64

	climbers       int
	gyms           int
	recordsPer     int
	seasonYear     int
	seasonStart    time.Time
	seasonDays     int
	offseasonRatio float64
	soloRatio      float64
	siegeEnabled   bool
	period         string
}

// New creates a generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		seed:           uint64(time.Now().UnixNano()),
		climbers:       20,
		gyms:           3,
		recordsPer:     6,
		seasonYear:     time.Now().Year(),
		seasonDays:     60,
		offseasonRatio: 0.1,
		soloRatio:      0.1,
		siegeEnabled:   true,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.faker = gofakeit.New(g.seed)
	g.seasonStart = time.Date(g.seasonYear, time.March, 1, 0, 0, 0, 0, time.UTC)
	return g
}

func (g *Generator) periodLabel() string {
	if g.period != "" {
		return g.period
	}
	return fmt.Sprintf("%d%02d", g.seasonYear, int(g.seasonStart.Month()))
}

// Seed returns the seed in use.
func (g *Generator) Seed() uint64 { return g.seed }

// Generate builds one document.
func (g *Generator) Generate() *model.Document {
	doc := &model.Document{
		Settings: []model.SettingRow{
			{Key: model.SettingSeasonYear, Value: strconv.Itoa(g.seasonYear)},
			{Key: model.SettingPeriod, Value: g.periodLabel()},
			{Key: model.SettingSiegeEnabled, Value: yn(g.siegeEnabled)},
		},
	}
	doc.ScoringSp, doc.ScoringBld = g.rules()

	gyms := g.gymNames()
	for _, gym := range gyms {
		doc.CastleRecords = append(doc.CastleRecords, model.CastleRow{
			Castle:    gym,
			HP:        strconv.Itoa(g.faker.Number(20, 80) * 250),
			StartDate: g.seasonStart.Format("2006/1/2"),
		})
	}

	teams := g.teamNames()
	for _, p := range g.participants(teams) {
		doc.Participants = append(doc.Participants, p)

		home := gyms[g.faker.Number(0, len(gyms)-1)]
		end := g.seasonStart.AddDate(0, 0, g.seasonDays-1)
		doc.CastleParticipants = append(doc.CastleParticipants, model.HomeGymRow{
			Climber:   p.Name,
			HomeGym:   home,
			StartDate: g.seasonStart.Format("2006/1/2"),
			EndDate:   end.Format("2006/1/2"),
		})

		for i := 0; i < g.recordsPer; i++ {
			doc.ClimbRecords = append(doc.ClimbRecords, g.record(p, home, gyms))
		}
	}
	return doc
}

// Bytes generates and encodes a document.
func (g *Generator) Bytes() ([]byte, error) {
	return g.Generate().Marshal()
}

func (g *Generator) rules() (sp, bld []model.RuleRow) {
	for i, reg := range bldGrades {
		for j, sent := range bldGrades {
			if j < i-1 || j > i+1 {
				continue
			}
			bld = append(bld, model.RuleRow{
				RegBldLevel: reg,
				SentLevel:   sent,
				Score:       strconv.Itoa(10 + 10*(j-i+1)),
				Limit:       strconv.Itoa(8 - 2*(j-i+1)),
			})
		}
	}
	for _, reg := range spGrades {
		for k, sent := range spSent[reg] {
			sp = append(sp, model.RuleRow{
				RegSpLevel: reg,
				SentLevel:  sent,
				Score:      strconv.Itoa(15 + 5*k),
				Limit:      "5",
			})
		}
	}
	return sp, bld
}

func (g *Generator) gymNames() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, g.gyms)
	for len(out) < g.gyms {
		name := g.faker.City() + " Boulders"
		if seen[name] {
			name = fmt.Sprintf("%s %d", name, len(out)+1)
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func (g *Generator) teamNames() []string {
	n := max(1, g.climbers/4)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf("%s %s", g.faker.Color(), g.faker.Animal()))
	}
	return out
}

func (g *Generator) participants(teams []string) []model.Participant {
	out := make([]model.Participant, 0, g.climbers)
	for i := 0; i < g.climbers; i++ {
		name := fmt.Sprintf("%s%03d", g.faker.FirstName(), i)
		p := model.Participant{Name: name, Team: teams[g.faker.Number(0, len(teams)-1)]}
		if g.faker.Float64Range(0, 1) < g.soloRatio {
			p.Team = "單人-" + name
		}
		// Every climber boulders; about half also lead.
		p.RegBldGrade = bldGrades[g.faker.Number(0, len(bldGrades)-1)]
		if g.faker.Bool() {
			p.RegSpGrade = spGrades[g.faker.Number(0, len(spGrades)-1)]
		}
		out = append(out, p)
	}
	return out
}

func (g *Generator) record(p model.Participant, home string, gyms []string) model.ClimbRow {
	gym := home
	if g.faker.Number(0, 3) == 0 {
		gym = gyms[g.faker.Number(0, len(gyms)-1)]
	}
	day := g.seasonStart.AddDate(0, 0, g.faker.Number(0, g.seasonDays-1))
	row := model.ClimbRow{
		Climber:   p.Name,
		Gym:       gym,
		Date:      fmt.Sprintf("%d/%d", int(day.Month()), day.Day()),
		SentCount: strconv.Itoa(g.faker.Number(1, 8)),
	}

	if p.RegSpGrade != "" && g.faker.Bool() {
		sent := spSent[p.RegSpGrade]
		row.SentLevel = sent[g.faker.Number(0, len(sent)-1)]
		if g.faker.Bool() {
			row.Leading = "Y"
		}
		if g.faker.Number(0, 2) == 0 {
			row.Redpoint = "1"
		}
	} else {
		row.SentLevel = nearby(bldGrades, p.RegBldGrade, g.faker.Number(-1, 1))
	}
	if g.faker.Float64Range(0, 1) < g.offseasonRatio {
		row.OffSeason = "Y"
	}
	return row
}

func nearby(ladder []string, grade string, delta int) string {
	for i, v := range ladder {
		if v == grade {
			j := min(max(i+delta, 0), len(ladder)-1)
			return ladder[j]
		}
	}
	return grade
}

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
