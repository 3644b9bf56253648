package siege

import "github.com/shopspring/decimal"

// Option configures a Simulator.
type Option func(*Simulator)

// WithDamageMode selects the score-driven or attempt-driven path. Unknown
// modes are ignored.
func WithDamageMode(mode DamageMode) Option {
	return func(s *Simulator) {
		if mode == ModeScore || mode == ModeAttempts {
			s.mode = mode
		}
	}
}

// WithAttackBonus sets the flat damage added to every in-season attack.
func WithAttackBonus(bonus int) Option {
	return func(s *Simulator) {
		if bonus >= 0 {
			s.attackBonus = decimal.NewFromInt(int64(bonus))
		}
	}
}

// WithOffseasonDamage sets the presence damage per off-season climber.
func WithOffseasonDamage(d int) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.offseasonDamage = decimal.NewFromInt(int64(d))
		}
	}
}

// WithAttemptDamage sets the damage per eligible attempt in ModeAttempts.
func WithAttemptDamage(d int) Option {
	return func(s *Simulator) {
		if d >= 0 {
			s.attemptDamage = decimal.NewFromInt(int64(d))
		}
	}
}

// WithDailyAttemptCap caps eligible attempts per climber, gym and day in
// ModeAttempts.
func WithDailyAttemptCap(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.dailyCap = n
		}
	}
}
