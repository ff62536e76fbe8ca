// Package charts renders dashboard aggregates as PNG images.
package charts

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	"finledger/internal/core"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func units(cents int64) float64 {
	return float64(cents) / 100
}

func movingAverage(values []float64, window int) []float64 {
	result := make([]float64, len(values))
	for i := range values {
		sum := 0.0
		count := 0
		for j := max(0, i-window+1); j <= i; j++ {
			sum += values[j]
			count++
		}
		result[i] = sum / float64(count)
	}
	return result
}

// CashflowPNG renders the daily net movement plus its 7-day moving average
// over a dense series. Returns nil when there are too few points to draw a
// line.
func (g *Generator) CashflowPNG(series []core.DayCashflow) ([]byte, error) {
	if len(series) < 2 {
		return nil, nil
	}

	xValues := make([]time.Time, len(series))
	netValues := make([]float64, len(series))

	for i, day := range series {
		xValues[i] = day.Date.Time
		netValues[i] = units(day.Net.Cents)
	}

	smoothed := movingAverage(netValues, 7)

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    20,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02"),
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.2f", v.(float64))
			},
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Net cashflow",
				XValues: xValues,
				YValues: netValues,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "7-day average",
				XValues: xValues,
				YValues: smoothed,
				Style: chart.Style{
					StrokeColor:     chart.ColorBlue.WithAlpha(100),
					StrokeWidth:     2,
					StrokeDashArray: []float64{5.0, 5.0},
				},
			},
		},
	}

	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{
			FontSize:  10,
			FontColor: chart.ColorBlack,
		}),
	}

	var buffer bytes.Buffer
	if err := graph.Render(chart.PNG, &buffer); err != nil {
		return nil, fmt.Errorf("render cashflow chart: %w", err)
	}

	return buffer.Bytes(), nil
}

// CategoryPiePNG renders the expense breakdown as a pie chart. Returns nil
// when there is nothing to draw.
func (g *Generator) CategoryPiePNG(breakdown []core.CategorySpend) ([]byte, error) {
	var total int64
	for _, c := range breakdown {
		total += c.Amount.Cents
	}
	if total <= 0 {
		return nil, nil
	}

	values := make([]chart.Value, 0, len(breakdown))
	for _, c := range breakdown {
		if c.Amount.Cents <= 0 {
			continue
		}
		percentage := float64(c.Amount.Cents) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Category, c.Amount, percentage),
			Value: units(c.Amount.Cents),
			Style: chart.Style{
				FontSize:  10,
				FontColor: chart.ColorBlack,
			},
		})
	}
	if len(values) == 0 {
		return nil, nil
	}

	pie := chart.PieChart{
		Width:  600,
		Height: 600,
		Values: values,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    30,
				Left:   30,
				Right:  30,
				Bottom: 30,
			},
			FillColor: chart.ColorWhite,
		},
	}

	var buffer bytes.Buffer
	if err := pie.Render(chart.PNG, &buffer); err != nil {
		return nil, fmt.Errorf("render category pie chart: %w", err)
	}

	return buffer.Bytes(), nil
}
