// Package report turns a stored assessment into the presentable risk
// report: the headline score and level, contributing factors,
// recommendations, the gauge visualization, the key-metric breakdown,
// and the history trend.
package report

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/api"
)

// ErrNoPrediction is returned by Build for an assessment whose
// prediction has not been computed.
var ErrNoPrediction = errors.New("assessment has no prediction result")

// Report is the presentable view of one assessment.
type Report struct {
	SourceAssessmentID string
	RiskLevel          string
	// RiskScore is the headline percentage, 0 to 100.
	RiskScore       int
	Confidence      float64
	Factors         []api.ContributingFactor
	Recommendations []string
	// Input echoes the submitted answers, keyed by parameter name.
	Input     map[string]string
	CreatedAt time.Time
}

// Build constructs the report for a stored assessment. The service's
// fractional risk_score (0..1) becomes the integer percentage shown
// everywhere in the UI and the exported document.
func Build(a *api.Assessment) (*Report, error) {
	if a == nil {
		return nil, fmt.Errorf("nil assessment")
	}
	if a.Prediction == nil {
		return nil, ErrNoPrediction
	}
	p := a.Prediction
	return &Report{
		SourceAssessmentID: a.AssessmentID,
		RiskLevel:          p.RiskLevel,
		RiskScore:          int(math.Round(p.RiskScore * 100)),
		Confidence:         p.ConfidenceScore,
		Factors:            p.RiskFactors,
		Recommendations:    p.Recommendations,
		Input:              a.Data,
		CreatedAt:          a.CreatedAt,
	}, nil
}

// TrendPoint is one assessment in the history trend.
type TrendPoint struct {
	AssessmentID string
	RiskScore    int
	RiskLevel    string
	CreatedAt    time.Time
}

// Trend selects the subject's five most recent scored assessments and
// orders them oldest first, so a chart drawn left to right reads
// chronologically. Assessments without a prediction are skipped.
func Trend(history []api.Assessment) []TrendPoint {
	scored := make([]api.Assessment, 0, len(history))
	for _, a := range history {
		if a.Prediction != nil {
			scored = append(scored, a)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CreatedAt.After(scored[j].CreatedAt)
	})
	if len(scored) > 5 {
		scored = scored[:5]
	}

	points := make([]TrendPoint, 0, len(scored))
	for i := len(scored) - 1; i >= 0; i-- {
		a := scored[i]
		points = append(points, TrendPoint{
			AssessmentID: a.AssessmentID,
			RiskScore:    int(math.Round(a.Prediction.RiskScore * 100)),
			RiskLevel:    a.Prediction.RiskLevel,
			CreatedAt:    a.CreatedAt,
		})
	}
	return points
}
