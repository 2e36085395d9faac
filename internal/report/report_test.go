package report

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/api"
)

func sampleAssessment() *api.Assessment {
	return &api.Assessment{
		AssessmentID: "42",
		Data: map[string]string{
			"age":               "45",
			"cholesterol_level": "190",
		},
		Prediction: &api.PredictionResult{
			RiskScore:       0.47,
			RiskLevel:       "Moderate Risk",
			ConfidenceScore: 0.9,
			Recommendations: []string{"Increase weekly physical activity"},
			RiskFactors: []api.ContributingFactor{
				{Factor: "Cholesterol", Impact: "High", Value: "190 mg/dL"},
			},
		},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestBuildConvertsFractionalScoreToPercent(t *testing.T) {
	rep, err := Build(sampleAssessment())
	require.NoError(t, err)

	assert.Equal(t, "42", rep.SourceAssessmentID)
	assert.Equal(t, 47, rep.RiskScore)
	assert.Equal(t, "Moderate Risk", rep.RiskLevel)
	assert.Len(t, rep.Factors, 1)
	assert.Len(t, rep.Recommendations, 1)
}

func TestBuildRoundsHalfUp(t *testing.T) {
	a := sampleAssessment()
	a.Prediction.RiskScore = 0.675
	rep, err := Build(a)
	require.NoError(t, err)
	assert.Equal(t, 68, rep.RiskScore)
}

func TestBuildWithoutPredictionFails(t *testing.T) {
	a := sampleAssessment()
	a.Prediction = nil
	_, err := Build(a)
	assert.ErrorIs(t, err, ErrNoPrediction)
}

func TestRiskLevelColorIsTotal(t *testing.T) {
	tests := []struct {
		level string
		want  string
	}{
		{"Low", ColorLowRisk},
		{"low risk", ColorLowRisk},
		{"MODERATE RISK", ColorModerateRisk},
		{"High", ColorHighRisk},
		{"Critical", ColorNeutral},
		{"", ColorNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RiskLevelColor(tt.level), "level %q", tt.level)
	}
}

func TestImpactWeightOrdinalScale(t *testing.T) {
	assert.Equal(t, 0, ImpactWeight("Very Low"))
	assert.Equal(t, 1, ImpactWeight("low"))
	assert.Equal(t, 2, ImpactWeight("Moderate"))
	assert.Equal(t, 3, ImpactWeight("HIGH"))
	assert.Equal(t, 4, ImpactWeight("very high"))
	assert.Equal(t, 2, ImpactWeight("Recorded"), "unknown labels sit in the middle")
}

func TestDashOffsetEndpoints(t *testing.T) {
	assert.InDelta(t, Circumference(), DashOffset(0), 0.001, "empty ring hides the full stroke")
	assert.InDelta(t, 0, DashOffset(100), 0.001, "full ring has no offset")
	assert.InDelta(t, Circumference()/2, DashOffset(50), 0.001)
	assert.InDelta(t, Circumference(), DashOffset(-10), 0.001, "clamped below")
	assert.InDelta(t, 0, DashOffset(250), 0.001, "clamped above")
}

func TestGaugeAnimatesOncePerAssessment(t *testing.T) {
	r := NewGaugeRenderer()
	rep, err := Build(sampleAssessment())
	require.NoError(t, err)

	first := r.Render(rep)
	assert.True(t, first.Animate)
	assert.Equal(t, 47, first.Percent)
	assert.Equal(t, ColorModerateRisk, first.Color)

	second := r.Render(rep)
	assert.False(t, second.Animate, "same assessment must not re-animate")

	other := *rep
	other.SourceAssessmentID = "43"
	assert.True(t, r.Render(&other).Animate, "a different assessment animates")
}

func TestRasterizeGaugeProducesPNG(t *testing.T) {
	data, err := RasterizeGauge(Gauge{Percent: 47, Color: ColorModerateRisk}, 400)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestRasterizeGaugeRejectsBadInput(t *testing.T) {
	_, err := RasterizeGauge(Gauge{Percent: 47, Color: "teal"}, 400)
	assert.Error(t, err)

	_, err = RasterizeGauge(Gauge{Percent: 47, Color: ColorLowRisk}, 0)
	assert.Error(t, err)
}

func TestTrendTakesFiveMostRecentAscending(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var history []api.Assessment
	for i := 0; i < 7; i++ {
		history = append(history, api.Assessment{
			AssessmentID: string(rune('a' + i)),
			Prediction:   &api.PredictionResult{RiskScore: float64(i) / 10, RiskLevel: "Low"},
			CreatedAt:    base.AddDate(0, 0, i),
		})
	}
	// History arrives newest first from the server.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	points := Trend(history)
	require.Len(t, points, 5)
	assert.Equal(t, "c", points[0].AssessmentID, "oldest of the five first")
	assert.Equal(t, "g", points[4].AssessmentID)
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].CreatedAt.After(points[i-1].CreatedAt))
	}
}

func TestTrendSkipsUnscoredAssessments(t *testing.T) {
	history := []api.Assessment{
		{AssessmentID: "a", Prediction: &api.PredictionResult{RiskScore: 0.2}, CreatedAt: time.Now()},
		{AssessmentID: "b", CreatedAt: time.Now()},
	}
	points := Trend(history)
	require.Len(t, points, 1)
	assert.Equal(t, "a", points[0].AssessmentID)
	assert.Equal(t, 20, points[0].RiskScore)
}

func TestBreakdownScalesAndClamps(t *testing.T) {
	bars := Breakdown(map[string]string{
		"cholesterol_level":  "150", // 150/300 = 50%
		"triglyceride_level": "800", // 800/400 clamps to 100%
		"systolic_bp":        "130", // (130-80)/100 = 50%
		"diastolic_bp":       "40",  // (40-40)/80 = 0%
		"hdl_level":          "40",  // 40/80 = 50%
	})
	require.Len(t, bars, 5)

	byName := map[string]MetricBar{}
	for _, b := range bars {
		byName[b.Name] = b
	}
	assert.Equal(t, 50, byName["cholesterol_level"].Percent)
	assert.Equal(t, 100, byName["triglyceride_level"].Percent)
	assert.Equal(t, 50, byName["systolic_bp"].Percent)
	assert.Equal(t, 0, byName["diastolic_bp"].Percent)
	assert.Equal(t, "HDL Level (mg/dL)", byName["hdl_level"].Label)
}

func TestBreakdownOmitsMissingAndBadValues(t *testing.T) {
	bars := Breakdown(map[string]string{
		"cholesterol_level": "n/a",
		"ldl_level":         "",
	})
	assert.Empty(t, bars)
}
