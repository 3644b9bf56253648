package scoring

import (
	"sort"

	"github.com/oledu/pyramidgo/internal/domain/model"
)

// Roster resolves climber names to participants. Climbers missing from the
// participant list are synthesized with no registered grades so they still
// show up with their raw counts.
type Roster struct {
	order     []string
	byName    map[string]model.Participant
	known     map[string]bool
	synthetic []string
}

// NewRoster indexes participants. A repeated name keeps its first row.
func NewRoster(participants []model.Participant) *Roster {
	r := &Roster{
		byName: make(map[string]model.Participant, len(participants)),
		known:  make(map[string]bool, len(participants)),
	}
	for _, p := range participants {
		if _, ok := r.byName[p.Name]; ok {
			continue
		}
		r.byName[p.Name] = p
		r.known[p.Name] = true
		r.order = append(r.order, p.Name)
	}
	return r
}

// Resolve returns the participant for name, synthesizing one if needed.
// The second value is false when the climber was synthesized by this call.
func (r *Roster) Resolve(name string) (model.Participant, bool) {
	if p, ok := r.byName[name]; ok {
		return p, true
	}
	p := model.Participant{Name: name, Team: model.NotAvailable, BeastMode: model.NotAvailable}
	r.byName[name] = p
	r.synthetic = append(r.synthetic, name)
	return p, false
}

// Registered reports whether name came from the participant list.
func (r *Roster) Registered(name string) bool { return r.known[name] }

// Names lists registered climbers in input order followed by synthesized
// ones sorted by name, so the order does not depend on record order.
func (r *Roster) Names() []string {
	synth := append([]string(nil), r.synthetic...)
	sort.Strings(synth)
	return append(append([]string(nil), r.order...), synth...)
}

// Get returns the participant for name without synthesizing.
func (r *Roster) Get(name string) model.Participant { return r.byName[name] }
