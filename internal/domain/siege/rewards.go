package siege

import "github.com/shopspring/decimal"

// Share is one climber's cut of a reward pool.
type Share struct {
	Climber string
	Damage  decimal.Decimal
	Amount  int64
}

// RewardShares splits pool across the castle's ledger in proportion to
// damage. Each share is floored; the leftover goes to the top contributor
// so the amounts always sum to pool. Off-season credit is merged in when
// withOffseason is set. An empty ledger or a non-positive pool yields nil.
func RewardShares(c *Castle, pool int64, withOffseason bool) []Share {
	if c == nil || pool <= 0 {
		return nil
	}
	ledger := make(map[string]decimal.Decimal, len(c.Attackers))
	for k, v := range c.Attackers {
		ledger[k] = v
	}
	if withOffseason {
		for k, v := range c.Offseason {
			ledger[k] = ledger[k].Add(v)
		}
	}
	total := sum(ledger)
	if total.Sign() <= 0 {
		return nil
	}

	p := decimal.NewFromInt(pool)
	ranked := ranked(ledger, 0)
	out := make([]Share, 0, len(ranked))
	var paid int64
	for _, r := range ranked {
		amt := p.Mul(r.Damage).Div(total).Floor().IntPart()
		paid += amt
		out = append(out, Share{Climber: r.Climber, Damage: r.Damage, Amount: amt})
	}
	out[0].Amount += pool - paid
	return out
}
