package report

import (
	"math"
	"strconv"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/intake"
)

// MetricBar is one row of the key-metric breakdown: a measured value
// shown as a filled proportion of its display scale.
type MetricBar struct {
	Name    string
	Label   string
	Value   float64
	Percent int // filled portion of the bar, 0..100
}

// metricScale normalizes a raw reading onto the bar. Offsets shift the
// origin for blood pressure, whose clinically interesting range starts
// well above zero.
type metricScale struct {
	name   string
	offset float64
	span   float64
}

var metricScales = []metricScale{
	{name: "cholesterol_level", span: 300},
	{name: "triglyceride_level", span: 400},
	{name: "ldl_level", span: 200},
	{name: "hdl_level", span: 80},
	{name: "systolic_bp", offset: 80, span: 100},
	{name: "diastolic_bp", offset: 40, span: 80},
}

// Breakdown builds the key-metric bars from the submitted answers.
// Metrics absent from the input are omitted rather than shown empty.
func Breakdown(input map[string]string) []MetricBar {
	var bars []MetricBar
	for _, s := range metricScales {
		raw, ok := input[s.name]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		pct := (v - s.offset) / s.span * 100
		pct = math.Min(math.Max(pct, 0), 100)
		bars = append(bars, MetricBar{
			Name:    s.name,
			Label:   intake.Label(s.name),
			Value:   v,
			Percent: int(math.Round(pct)),
		})
	}
	return bars
}
