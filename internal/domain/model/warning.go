package model

import "fmt"

// WarningKind classifies a skipped or coerced input.
type WarningKind string

// Warning kinds emitted by ingestion and the engine stages.
const (
	WarnMalformedRow   WarningKind = "malformed_row"
	WarnMissingField   WarningKind = "missing_field"
	WarnInvalidNumber  WarningKind = "invalid_number"
	WarnInvalidDate    WarningKind = "invalid_date"
	WarnUnknownClimber WarningKind = "unknown_climber"
	WarnUnscoredGrade  WarningKind = "unscored_grade"
	WarnUnknownGym     WarningKind = "unknown_gym"
	WarnBeforeOpening  WarningKind = "before_opening"
	WarnNoOpeningDate  WarningKind = "no_opening_date"
	WarnNoBadgeTable   WarningKind = "no_badge_table"
)

// Warning describes one record that was skipped or coerced. Warnings never
// stop a computation.
type Warning struct {
	Stage   string      `json:"stage"`
	Kind    WarningKind `json:"kind"`
	Subject string      `json:"subject"`
	Detail  string      `json:"detail,omitempty"`
}

func (w Warning) String() string {
	if w.Detail == "" {
		return fmt.Sprintf("%s: %s %s", w.Stage, w.Kind, w.Subject)
	}
	return fmt.Sprintf("%s: %s %s (%s)", w.Stage, w.Kind, w.Subject, w.Detail)
}

// Warnings accumulates warnings for one stage.
type Warnings struct {
	stage string
	list  []Warning
}

// NewWarnings creates an accumulator tagged with stage.
func NewWarnings(stage string) *Warnings {
	return &Warnings{stage: stage}
}

// Add records a warning.
func (w *Warnings) Add(kind WarningKind, subject, detail string) {
	w.list = append(w.list, Warning{Stage: w.stage, Kind: kind, Subject: subject, Detail: detail})
}

// List returns the accumulated warnings.
func (w *Warnings) List() []Warning { return w.list }

// CountByKind tallies warnings per kind.
func CountByKind(ws []Warning) map[WarningKind]int {
	out := make(map[WarningKind]int)
	for _, w := range ws {
		out[w.Kind]++
	}
	return out
}
