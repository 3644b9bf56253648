// Package report renders engine results as spreadsheets and charts.
package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/oledu/pyramidgo/internal/domain/types"
	"github.com/oledu/pyramidgo/internal/engine"
	"github.com/oledu/pyramidgo/pkg/metrics"
)

// Sheet names in workbook order.
const (
	SheetScores   = "Scores"
	SheetGrades   = "Grades"
	SheetBadges   = "Badges"
	SheetTeams    = "Teams"
	SheetCastles  = "Castles"
	SheetLedger   = "Ledger"
	SheetWarnings = "Warnings"
)

type table struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

// WriteWorkbook renders res as an XLSX workbook to w.
func WriteWorkbook(w io.Writer, res *engine.Result) error {
	if res == nil {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, t := range tables(res) {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return fmt.Errorf("new sheet %s: %w", t.name, err)
		}
		if err := writeTable(f, t, bold); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	metrics.RecordExport("xlsx")
	return nil
}

// Workbook renders res as XLSX bytes.
func Workbook(res *engine.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, res); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t table, headerStyle int) error {
	if err := f.SetSheetRow(t.name, "A1", &t.header); err != nil {
		return fmt.Errorf("%s header: %w", t.name, err)
	}
	last, err := excelize.CoordinatesToCellName(len(t.header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.name, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("%s header style: %w", t.name, err)
	}
	for i := range t.rows {
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.name, axis, &t.rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", t.name, i+2, err)
		}
	}
	return nil
}

func tables(res *engine.Result) []table {
	scores := table{name: SheetScores, header: []interface{}{"Climber", "Team", "Reg SP", "Reg BLD", "Registered", "Records", "Total SP", "Total BLD", "Total"}}
	grades := table{name: SheetGrades, header: []interface{}{"Climber", "Grade", "Discipline", "Attempts", "Base", "Limit", "Total"}}
	for _, s := range res.Scores {
		v := types.NewScore(s)
		scores.rows = append(scores.rows, []interface{}{
			v.Climber, v.Team, v.RegSpGrade, v.RegBldGrade, v.Registered, v.Records, v.TotalSP, v.TotalBLD, v.Total,
		})
		for _, g := range v.Grades {
			grades.rows = append(grades.rows, []interface{}{v.Climber, g.Grade, g.Discipline, g.Attempts, g.BaseScore, g.Limit, g.Total})
		}
	}

	badges := table{name: SheetBadges, header: []interface{}{"Climber", "Team", "SP", "BLD", "Total"}}
	for _, b := range types.NewBadges(res.Badges) {
		badges.rows = append(badges.rows, []interface{}{b.Climber, b.Team, b.SP, b.BLD, b.Total})
	}

	teams := table{name: SheetTeams, header: []interface{}{"Team", "Members", "Badges"}}
	for _, t := range types.NewTeams(res.Teams) {
		teams.rows = append(teams.rows, []interface{}{t.Team, t.Members, t.Total})
	}

	castles := table{name: SheetCastles, header: []interface{}{"Castle", "Opening", "Original HP", "Current HP", "Health %", "Status", "Attacks", "Main attackers", "Home-gym attackers"}}
	ledger := table{name: SheetLedger, header: []interface{}{"Castle", "Climber", "Damage", "Off-season"}}
	for _, c := range types.NewCastles(res.Castles(), 0) {
		castles.rows = append(castles.rows, []interface{}{
			c.ID, c.OpeningDate, c.OriginalHP, c.CurrentHP, c.HealthPercent, c.Status, c.AttackCount,
			strings.Join(c.MainAttackers, ", "), strings.Join(c.HomeGymAttackers, ", "),
		})
		for _, h := range c.Heroes {
			ledger.rows = append(ledger.rows, []interface{}{c.ID, h.Climber, h.Damage, c.OffseasonLedger[h.Climber]})
		}
		for _, name := range offseasonOnly(c) {
			ledger.rows = append(ledger.rows, []interface{}{c.ID, name, 0, c.OffseasonLedger[name]})
		}
	}

	warnings := table{name: SheetWarnings, header: []interface{}{"Stage", "Kind", "Subject", "Detail"}}
	for _, w := range res.Warnings {
		warnings.rows = append(warnings.rows, []interface{}{w.Stage, string(w.Kind), w.Subject, w.Detail})
	}

	return []table{scores, grades, badges, teams, castles, ledger, warnings}
}

// offseasonOnly lists climbers with off-season credit but no in-season damage.
func offseasonOnly(c types.Castle) []string {
	var out []string
	for name := range c.OffseasonLedger {
		if _, ok := c.AttackerLedger[name]; !ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
