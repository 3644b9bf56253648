package siege

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a castle's position in the Open -> Damaged -> Depleted machine.
type Status string

const (
	StatusOpen     Status = "open"
	StatusDamaged  Status = "damaged"
	StatusDepleted Status = "depleted"
)

// Band buckets the health ratio for display.
type Band string

const (
	BandHealthy  Band = "healthy"
	BandDamaged  Band = "damaged"
	BandCritical Band = "critical"
	BandDepleted Band = "depleted"
)

// Castle is one gym's siege state within a single run.
type Castle struct {
	ID          string
	OpeningDate string
	Opening     time.Time
	OriginalHP  int
	HP          int
	AttackCount int

	// Attackers is the in-season damage ledger keyed by climber.
	Attackers map[string]decimal.Decimal
	// Offseason credits presence damage per climber.
	Offseason map[string]decimal.Decimal

	// MainAttackers are climbers whose home gym is this castle.
	MainAttackers []string
	// HomeGymAttackers are climbers who attacked during their home-gym window.
	HomeGymAttackers []string

	home map[string]bool
}

func newCastle(id, openingDate string, opening time.Time, hp int) *Castle {
	return &Castle{
		ID:          id,
		OpeningDate: openingDate,
		Opening:     opening,
		OriginalHP:  hp,
		HP:          hp,
		Attackers:   make(map[string]decimal.Decimal),
		Offseason:   make(map[string]decimal.Decimal),
		home:        make(map[string]bool),
	}
}

// hit subtracts damage, truncating the remainder to whole HP and flooring
// at zero.
func (c *Castle) hit(damage decimal.Decimal) {
	rest := decimal.NewFromInt(int64(c.HP)).Sub(damage)
	if rest.Sign() <= 0 {
		c.HP = 0
		return
	}
	c.HP = int(rest.IntPart())
}

func (c *Castle) markHome(climber string) {
	if c.home[climber] {
		return
	}
	c.home[climber] = true
	c.HomeGymAttackers = append(c.HomeGymAttackers, climber)
}

// Status derives the state from current and original HP.
func (c *Castle) Status() Status {
	switch {
	case c.HP <= 0:
		return StatusDepleted
	case c.HP < c.OriginalHP:
		return StatusDamaged
	default:
		return StatusOpen
	}
}

// HealthRatio is HP / OriginalHP clamped to [0, 1]. A castle with no
// original HP reports zero.
func (c *Castle) HealthRatio() float64 {
	if c.OriginalHP <= 0 {
		return 0
	}
	r := float64(c.HP) / float64(c.OriginalHP)
	return math.Max(0, math.Min(1, r))
}

// HealthPercent is the ratio as a percentage rounded up to one decimal.
func (c *Castle) HealthPercent() float64 {
	if c.OriginalHP <= 0 || c.HP <= 0 {
		return 0
	}
	permille := float64(min(c.HP, c.OriginalHP)) * 1000 / float64(c.OriginalHP)
	return math.Ceil(permille) / 10
}

// Band classifies the remaining health.
func (c *Castle) Band() Band {
	r := c.HealthRatio()
	switch {
	case c.HP <= 0:
		return BandDepleted
	case r > 0.7:
		return BandHealthy
	case r > 0.4:
		return BandDamaged
	default:
		return BandCritical
	}
}

// Damage is the total in-season damage dealt.
func (c *Castle) Damage() decimal.Decimal {
	return sum(c.Attackers)
}

// OffseasonDamage is the total presence damage credited.
func (c *Castle) OffseasonDamage() decimal.Decimal {
	return sum(c.Offseason)
}

// Contribution is one climber's ledger entry.
type Contribution struct {
	Climber string
	Damage  decimal.Decimal
}

// Heroes returns the top n attackers by damage, ties by name. n <= 0
// returns all of them.
func (c *Castle) Heroes(n int) []Contribution {
	return ranked(c.Attackers, n)
}

// OffseasonHeroes ranks the off-season ledger the same way.
func (c *Castle) OffseasonHeroes(n int) []Contribution {
	return ranked(c.Offseason, n)
}

func ranked(ledger map[string]decimal.Decimal, n int) []Contribution {
	out := make([]Contribution, 0, len(ledger))
	for name, d := range ledger {
		out = append(out, Contribution{Climber: name, Damage: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Damage.Cmp(out[j].Damage); c != 0 {
			return c > 0
		}
		return out[i].Climber < out[j].Climber
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func sum(m map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}
