package report

import "strings"

// Palette used across the gauge, badges, and the exported document.
const (
	ColorLowRisk      = "#10B981"
	ColorModerateRisk = "#F59E0B"
	ColorHighRisk     = "#EF4444"
	// ColorNeutral is the brand teal, used when the level is unknown.
	ColorNeutral = "#008080"
)

// RiskLevelColor maps a risk level to its display color. Matching is
// case-insensitive and tolerates both bare levels ("Low") and suffixed
// ones ("Low Risk"); anything unrecognized gets the neutral color, so
// every input has a defined output.
func RiskLevelColor(level string) string {
	switch strings.TrimSuffix(strings.ToLower(level), " risk") {
	case "low":
		return ColorLowRisk
	case "moderate":
		return ColorModerateRisk
	case "high":
		return ColorHighRisk
	default:
		return ColorNeutral
	}
}

// ImpactWeight places a factor's impact on the ordinal scale from
// Very Low (0) to Very High (4). Unrecognized labels sit in the middle.
func ImpactWeight(impact string) int {
	switch strings.ToLower(impact) {
	case "very low":
		return 0
	case "low":
		return 1
	case "moderate":
		return 2
	case "high":
		return 3
	case "very high":
		return 4
	default:
		return 2
	}
}

// ImpactColor maps a factor's impact label to a badge color using the
// same ordinal scale, with a neutral gray for unrecognized labels.
func ImpactColor(impact string) string {
	switch strings.ToLower(impact) {
	case "very low", "low":
		return ColorLowRisk
	case "moderate":
		return ColorModerateRisk
	case "high", "very high":
		return ColorHighRisk
	default:
		return "#9CA3AF"
	}
}
