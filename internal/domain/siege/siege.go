// Package siege applies gym and date activity as damage against castles
// and keeps per-climber ledgers for the reward split.
package siege

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oledu/pyramidgo/internal/domain/gymdate"
	"github.com/oledu/pyramidgo/internal/domain/model"
)

// Stage names the simulator in warnings.
const Stage = "siege"

// DamageMode selects how a climber's gym-date bucket becomes damage.
type DamageMode string

const (
	// ModeScore uses the uncapped bucket score.
	ModeScore DamageMode = "score"
	// ModeAttempts uses the bucket's attempt count, capped per day.
	ModeAttempts DamageMode = "attempts"
)

// Default siege constants.
const (
	DefaultAttackBonus     = 100
	DefaultOffseasonDamage = 20
	DefaultDailyAttemptCap = 5
	DefaultAttemptDamage   = 10
)

// Input is everything one simulation pass reads. Castles and HomeGyms are
// expected to be deduplicated already.
type Input struct {
	Castles  []model.CastleSnapshot
	HomeGyms []model.CastleParticipant
	Buckets  []gymdate.ClimberBuckets
	Records  []model.ClimbRecord
}

// Attack is one ledger entry applied to a castle.
type Attack struct {
	Castle    string
	Climber   string
	Date      string
	Day       time.Time
	Damage    decimal.Decimal
	HPAfter   int
	Home      bool
	Offseason bool
}

// Result is the final castle state of one pass.
type Result struct {
	Castles  []*Castle
	Attacks  []Attack
	Warnings []model.Warning
}

// Castle returns the castle with id.
func (r *Result) Castle(id string) (*Castle, bool) {
	for _, c := range r.Castles {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Simulator runs siege passes. It holds only configuration and is safe
// for concurrent use.
type Simulator struct {
	mode            DamageMode
	attackBonus     decimal.Decimal
	offseasonDamage decimal.Decimal
	attemptDamage   decimal.Decimal
	dailyCap        int
}

// New creates a Simulator using the score-driven path.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		mode:            ModeScore,
		attackBonus:     decimal.NewFromInt(DefaultAttackBonus),
		offseasonDamage: decimal.NewFromInt(DefaultOffseasonDamage),
		attemptDamage:   decimal.NewFromInt(DefaultAttemptDamage),
		dailyCap:        DefaultDailyAttemptCap,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode reports the configured damage mode.
func (s *Simulator) Mode() DamageMode { return s.mode }

// Simulate builds fresh castles from in, applies in-season bucket damage
// then off-season presence damage, and returns the final state.
func (s *Simulator) Simulate(in Input) *Result {
	ws := model.NewWarnings(Stage)
	res := &Result{}
	byID := make(map[string]*Castle, len(in.Castles))

	for _, snap := range in.Castles {
		if snap.Start.IsZero() {
			ws.Add(model.WarnNoOpeningDate, snap.Castle, snap.StartDate)
			continue
		}
		if _, dup := byID[snap.Castle]; dup {
			continue
		}
		c := newCastle(snap.Castle, snap.StartDate, snap.Start, snap.OriginalHP)
		byID[c.ID] = c
		res.Castles = append(res.Castles, c)
	}

	seenMain := make(map[string]bool)
	for _, p := range in.HomeGyms {
		c, ok := byID[p.HomeGym]
		if !ok || seenMain[p.HomeGym+"\x00"+p.Climber] {
			continue
		}
		seenMain[p.HomeGym+"\x00"+p.Climber] = true
		c.MainAttackers = append(c.MainAttackers, p.Climber)
	}

	home := tagHomeGyms(in.Records, in.HomeGyms, byID)

	for _, b := range in.Buckets {
		for _, cell := range b.Cells {
			c, ok := byID[cell.Gym]
			if !ok {
				ws.Add(model.WarnUnknownGym, b.Climber, cell.Gym)
				continue
			}
			if cell.Day.IsZero() {
				ws.Add(model.WarnInvalidDate, b.Climber, cell.Gym+" "+cell.Date)
				continue
			}
			if cell.Day.Before(c.Opening) {
				ws.Add(model.WarnBeforeOpening, b.Climber, cell.Gym+" "+cell.Date)
				continue
			}
			dmg := s.damage(cell)
			c.hit(dmg)
			c.Attackers[b.Climber] = c.Attackers[b.Climber].Add(dmg)
			c.AttackCount++
			res.Attacks = append(res.Attacks, Attack{
				Castle:  c.ID,
				Climber: b.Climber,
				Date:    cell.Date,
				Day:     cell.Day,
				Damage:  dmg,
				HPAfter: c.HP,
				Home:    home[homeKey(b.Climber, cell.Gym, model.DayKey(cell.Day, cell.Date))],
			})
		}
	}

	res.Attacks = append(res.Attacks, s.offseason(in.Records, byID, ws)...)
	res.Warnings = ws.List()
	return res
}

func (s *Simulator) damage(cell gymdate.Cell) decimal.Decimal {
	if s.mode == ModeAttempts {
		n := min(cell.Attempts, s.dailyCap)
		return decimal.NewFromInt(int64(n)).Mul(s.attemptDamage).Add(s.attackBonus)
	}
	return cell.Total().Add(s.attackBonus)
}

type gymDay struct{ gym, day string }

// offseason applies flat presence damage: every distinct climber seen at
// a gym on a day deals the same fixed amount.
func (s *Simulator) offseason(records []model.ClimbRecord, byID map[string]*Castle, ws *model.Warnings) []Attack {
	var order []gymDay
	climbers := make(map[gymDay][]string)
	seen := make(map[gymDay]map[string]bool)
	days := make(map[gymDay]time.Time)
	labels := make(map[gymDay]string)

	for _, r := range records {
		if !r.OffSeason || r.Gym == "" || r.Date == "" {
			continue
		}
		c, ok := byID[r.Gym]
		if !ok {
			ws.Add(model.WarnUnknownGym, r.Climber, r.Gym)
			continue
		}
		if !r.HasDay() {
			ws.Add(model.WarnInvalidDate, r.Climber, r.Gym+" "+r.Date)
			continue
		}
		if r.Day.Before(c.Opening) {
			ws.Add(model.WarnBeforeOpening, r.Climber, r.Gym+" "+r.Date)
			continue
		}
		k := gymDay{gym: r.Gym, day: r.DayKey()}
		if _, ok := seen[k]; !ok {
			seen[k] = make(map[string]bool)
			days[k] = r.Day
			labels[k] = r.Date
			order = append(order, k)
		}
		if r.Climber == "" || seen[k][r.Climber] {
			continue
		}
		seen[k][r.Climber] = true
		climbers[k] = append(climbers[k], r.Climber)
	}

	var attacks []Attack
	for _, k := range order {
		c := byID[k.gym]
		names := climbers[k]
		c.hit(decimal.NewFromInt(int64(len(names))).Mul(s.offseasonDamage))
		for _, name := range names {
			c.Offseason[name] = c.Offseason[name].Add(s.offseasonDamage)
			attacks = append(attacks, Attack{
				Castle:    c.ID,
				Climber:   name,
				Date:      labels[k],
				Day:       days[k],
				Damage:    s.offseasonDamage,
				HPAfter:   c.HP,
				Offseason: true,
			})
		}
	}
	return attacks
}

func homeKey(climber, gym, day string) string {
	return climber + "\x00" + gym + "\x00" + day
}

// tagHomeGyms marks in-season records that fall inside the climber's
// home-gym window for that gym, and records the climber on the castle.
func tagHomeGyms(records []model.ClimbRecord, homeGyms []model.CastleParticipant, byID map[string]*Castle) map[string]bool {
	windows := make(map[string][]model.CastleParticipant)
	for _, p := range homeGyms {
		k := p.Climber + "\x00" + p.HomeGym
		windows[k] = append(windows[k], p)
	}

	tagged := make(map[string]bool)
	for _, r := range records {
		if r.OffSeason || !r.HasDay() || r.Gym == "" {
			continue
		}
		for _, w := range windows[r.Climber+"\x00"+r.Gym] {
			if w.Start.IsZero() || w.End.IsZero() || r.Day.Before(w.Start) || r.Day.After(w.End) {
				continue
			}
			tagged[homeKey(r.Climber, r.Gym, r.DayKey())] = true
			if c, ok := byID[r.Gym]; ok {
				c.markHome(r.Climber)
			}
			break
		}
	}
	return tagged
}
