package scoring

import "github.com/oledu/pyramidgo/internal/domain/model"

type ruleKey struct {
	reg  string
	sent string
}

// RuleBook indexes the SP and BLD scoring tables. When a table lists the
// same (registered, achieved) pair twice, the first row wins.
type RuleBook struct {
	sp  map[ruleKey]model.ScoringRule
	bld map[ruleKey]model.ScoringRule
}

// NewRuleBook builds a RuleBook from the two tables.
func NewRuleBook(sp, bld []model.ScoringRule) *RuleBook {
	return &RuleBook{sp: index(sp), bld: index(bld)}
}

func index(rules []model.ScoringRule) map[ruleKey]model.ScoringRule {
	m := make(map[ruleKey]model.ScoringRule, len(rules))
	for _, r := range rules {
		k := ruleKey{reg: r.RegGrade, sent: r.SentGrade}
		if _, ok := m[k]; !ok {
			m[k] = r
		}
	}
	return m
}

// Match probes the SP table with the registered SP grade, then the BLD
// table with the registered BLD grade. An empty registered grade skips
// its table.
func (b *RuleBook) Match(regSp, regBld, sent string) (model.ScoringRule, bool) {
	if regSp != "" {
		if r, ok := b.sp[ruleKey{reg: regSp, sent: sent}]; ok {
			return r, true
		}
	}
	if regBld != "" {
		if r, ok := b.bld[ruleKey{reg: regBld, sent: sent}]; ok {
			return r, true
		}
	}
	return model.ScoringRule{}, false
}

// Size returns the number of distinct rules per table.
func (b *RuleBook) Size() (sp, bld int) {
	return len(b.sp), len(b.bld)
}
