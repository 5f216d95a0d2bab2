package adminservice

import (
	"bytes"
	"time"

	admindomain "github.com/Black-And-White-Club/dingleup/app/modules/admin/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ChartPalette colours the dashboard charts.
type ChartPalette struct {
	Background drawing.Color
	Text       drawing.Color
	Played     drawing.Color
	Won        drawing.Color
}

// DefaultPalette matches the game's dark theme.
var DefaultPalette = ChartPalette{
	Background: drawing.ColorFromHex("1b1033"),
	Text:       drawing.ColorFromHex("f5f3ff"),
	Played:     drawing.ColorFromHex("a78bfa"),
	Won:        drawing.ColorFromHex("facc15"),
}

// RenderGamesChart draws games played and won per day as a PNG.
func RenderGamesChart(daily []admindomain.DayCount, palette ChartPalette) ([]byte, error) {
	if len(daily) < 2 {
		return renderNoData(palette)
	}

	days := make([]time.Time, len(daily))
	played := make([]float64, len(daily))
	won := make([]float64, len(daily))
	peak := 0.0
	for i, d := range daily {
		days[i] = d.Day
		played[i] = float64(d.Played)
		won[i] = float64(d.Won)
		if played[i] > peak {
			peak = played[i]
		}
	}

	graph := chart.Chart{
		Width:  900,
		Height: 400,
		Background: chart.Style{
			FillColor: palette.Background,
		},
		Canvas: chart.Style{
			FillColor: palette.Background,
		},
		XAxis: chart.XAxis{
			Name:           "Day",
			ValueFormatter: chart.TimeValueFormatterWithFormat(time.DateOnly),
			Style:          chart.Style{FontColor: palette.Text},
		},
		YAxis: chart.YAxis{
			Name:  "Games",
			Style: chart.Style{FontColor: palette.Text},
			// Flat series would otherwise produce an empty range.
			Range: &chart.ContinuousRange{Min: 0, Max: peak + 1},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Played",
				XValues: days,
				YValues: played,
				Style:   chart.Style{StrokeColor: palette.Played, StrokeWidth: 2, DotWidth: 3, DotColor: palette.Played},
			},
			chart.TimeSeries{
				Name:    "Won",
				XValues: days,
				YValues: won,
				Style:   chart.Style{StrokeColor: palette.Won, StrokeWidth: 2, DotWidth: 3, DotColor: palette.Won},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderNoData(palette ChartPalette) ([]byte, error) {
	const msg = "Not enough data for a chart"

	graph := chart.Chart{
		Width:      400,
		Height:     200,
		Background: chart.Style{FillColor: palette.Background},
		Canvas:     chart.Style{FillColor: palette.Background},
		XAxis:      chart.XAxis{Style: chart.Style{Hidden: true}},
		YAxis: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		// go-chart refuses to render without a visible series, so draw a
		// baseline in the background colour.
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
				Style:   chart.Style{StrokeColor: palette.Background, StrokeWidth: 1},
			},
		},
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
				r.SetFont(defaults.Font)
				r.SetFontColor(palette.Text)
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				r.Text(msg, cb.Left+(cb.Width()-tb.Width())/2, cb.Top+(cb.Height()+tb.Height())/2)
			},
		},
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
