package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/oledu/pyramidgo/internal/domain/siege"
	"github.com/oledu/pyramidgo/pkg/metrics"
)

const (
	chartWidth  = 900
	chartHeight = 420
	barWidth    = 48
)

// Band colors for castle bars.
var bandColors = map[siege.Band]drawing.Color{
	siege.BandHealthy:  drawing.ColorFromHex("2e7d32"),
	siege.BandDamaged:  drawing.ColorFromHex("f9a825"),
	siege.BandCritical: drawing.ColorFromHex("c62828"),
	siege.BandDepleted: drawing.ColorFromHex("616161"),
}

// WriteCastleChart renders remaining HP per castle as a PNG bar chart,
// each bar colored by its health band.
func WriteCastleChart(w io.Writer, castles []*siege.Castle) error {
	if len(castles) == 0 {
		return ErrNoData
	}
	top := 0
	bars := make([]chart.Value, 0, len(castles))
	for _, c := range castles {
		top = max(top, c.OriginalHP)
		color := bandColors[c.Band()]
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", c.ID, c.HealthPercent()),
			Value: float64(c.HP),
			Style: chart.Style{FillColor: color, StrokeColor: color},
		})
	}
	if top <= 0 {
		return ErrNoData
	}

	graph := chart.BarChart{
		Title:    "Castle HP",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
		},
		Bars: bars,
	}
	return render(w, graph, "castle_chart")
}

// WriteHeroChart renders the top n attackers of one castle.
func WriteHeroChart(w io.Writer, c *siege.Castle, n int) error {
	if c == nil {
		return ErrNoData
	}
	heroes := c.Heroes(n)
	if len(heroes) == 0 {
		return ErrNoData
	}
	top := 0.0
	bars := make([]chart.Value, 0, len(heroes))
	for _, h := range heroes {
		v := h.Damage.InexactFloat64()
		top = max(top, v)
		bars = append(bars, chart.Value{Label: h.Climber, Value: v})
	}
	if top <= 0 {
		return ErrNoData
	}

	graph := chart.BarChart{
		Title:    c.ID + " heroes",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}
	return render(w, graph, "hero_chart")
}

// CastleChart renders the castle chart to bytes.
func CastleChart(castles []*siege.Castle) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCastleChart(&buf, castles); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(w io.Writer, graph chart.BarChart, kind string) error {
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s: %w", kind, err)
	}
	metrics.RecordExport("png")
	return nil
}
