package model

import "encoding/json"

// Document is the wire shape of a snapshot as the sheet export produces it.
// Parse reads any document of this shape; Document is used to write one.
type Document struct {
	Participants       []Participant `json:"participants"`
	ScoringSp          []RuleRow     `json:"scoringSp"`
	ScoringBld         []RuleRow     `json:"scoringBld"`
	ClimbRecords       []ClimbRow    `json:"climbRecords"`
	CastleRecords      []CastleRow   `json:"castle_records"`
	CastleParticipants []HomeGymRow  `json:"castle_participants"`
	Settings           []SettingRow  `json:"settings"`
}

// RuleRow is one scoring table line.
type RuleRow struct {
	RegSpLevel  string `json:"REG_SP_LEVEL,omitempty"`
	RegBldLevel string `json:"REG_BLD_LEVEL,omitempty"`
	SentLevel   string `json:"SENT_LEVEL"`
	Score       string `json:"SCORE"`
	Limit       string `json:"LIMIT"`
}

// ClimbRow is one climb log line.
type ClimbRow struct {
	Climber   string `json:"CLMBR_NM"`
	Gym       string `json:"GYM_NM"`
	Date      string `json:"DATE"`
	SentLevel string `json:"SENT_LEVEL"`
	SentCount string `json:"SENT_COUNT"`
	Leading   string `json:"SP_LEADING,omitempty"`
	Redpoint  string `json:"SP_RP,omitempty"`
	OffSeason string `json:"OFF_SEASON,omitempty"`
}

// CastleRow is one castle HP line.
type CastleRow struct {
	Castle    string `json:"CASTLE"`
	HP        string `json:"HP"`
	StartDate string `json:"START_DATE"`
}

// HomeGymRow is one castle participation line.
type HomeGymRow struct {
	Climber   string `json:"CLMBR_NM"`
	HomeGym   string `json:"HOME_GYM"`
	StartDate string `json:"START_DATE"`
	EndDate   string `json:"END_DATE"`
}

// SettingRow is one settings line.
type SettingRow struct {
	Key   string `json:"KEY"`
	Value string `json:"VALUE"`
}

// Marshal encodes the document.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
