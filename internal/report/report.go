// Package report turns archived measurements into summary statistics and an
// HTML dashboard page.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/airmon-data/airmon/internal/transport"
)

// Summary aggregates a measurement series.
type Summary struct {
	Count int

	MeanPM25 float64
	MeanPM10 float64
	MaxPM25  float64
	MaxPM10  float64
	P95PM25  float64
	P95PM10  float64
}

// Summarize computes summary statistics over the atmospheric-calibration
// PM2.5 and PM10 series.
func Summarize(ms []transport.Measurement) Summary {
	if len(ms) == 0 {
		return Summary{}
	}

	pm25 := make([]float64, len(ms))
	pm10 := make([]float64, len(ms))
	for i, m := range ms {
		pm25[i] = float64(m.PM25Atm)
		pm10[i] = float64(m.PM10Atm)
	}
	sort.Float64s(pm25)
	sort.Float64s(pm10)

	return Summary{
		Count:    len(ms),
		MeanPM25: stat.Mean(pm25, nil),
		MeanPM10: stat.Mean(pm10, nil),
		MaxPM25:  pm25[len(pm25)-1],
		MaxPM10:  pm10[len(pm10)-1],
		P95PM25:  stat.Quantile(0.95, stat.Empirical, pm25, nil),
		P95PM10:  stat.Quantile(0.95, stat.Empirical, pm10, nil),
	}
}

// RenderHTML writes an HTML page with PM2.5/PM10 time series charts for the
// given measurements, which must be in ascending timestamp order.
func RenderHTML(w io.Writer, ms []transport.Measurement, title string) error {
	line := charts.NewLine()
	sum := Summarize(ms)
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("%d samples · mean PM2.5 %.1f µg/m³ · mean PM10 %.1f µg/m³",
				sum.Count, sum.MeanPM25, sum.MeanPM10),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "µg/m³"}),
	)

	timestamps := make([]string, len(ms))
	pm25 := make([]opts.LineData, len(ms))
	pm10 := make([]opts.LineData, len(ms))
	for i, m := range ms {
		timestamps[i] = m.Timestamp
		pm25[i] = opts.LineData{Value: m.PM25Atm}
		pm10[i] = opts.LineData{Value: m.PM10Atm}
	}

	line.SetXAxis(timestamps).
		AddSeries("PM2.5 (atm)", pm25).
		AddSeries("PM10 (atm)", pm10)

	return line.Render(w)
}
