package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
)

// Gauge geometry mirrors the on-screen ring: a circle of radius 80 in a
// 200-unit viewport, stroke width 12, drawn from twelve o'clock.
const (
	gaugeRadius      = 80.0
	gaugeViewport    = 200.0
	gaugeStrokeWidth = 12.0
)

// Gauge describes one rendered ring.
type Gauge struct {
	// Percent is the filled portion, clamped to 0..100.
	Percent int
	// Color is the ring's stroke color for the risk level.
	Color string
	// Animate is true only the first time a given assessment is shown;
	// re-rendering the same assessment keeps the ring filled instead of
	// replaying the fill sweep.
	Animate bool
}

// Circumference of the ring path.
func Circumference() float64 {
	return 2 * math.Pi * gaugeRadius
}

// DashOffset computes the stroke offset that leaves percent of the ring
// visible. At 0 the ring is hidden, at 100 fully drawn.
func DashOffset(percent int) float64 {
	c := Circumference()
	return c - float64(clampPercent(percent))/100*c
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// GaugeRenderer produces Gauge views and remembers which assessments
// have already animated.
type GaugeRenderer struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewGaugeRenderer creates a renderer with no animation history.
func NewGaugeRenderer() *GaugeRenderer {
	return &GaugeRenderer{seen: make(map[string]bool)}
}

// Render builds the gauge view for a report. The fill animation fires
// once per source assessment; subsequent renders of the same assessment
// are static.
func (r *GaugeRenderer) Render(rep *Report) Gauge {
	r.mu.Lock()
	animate := !r.seen[rep.SourceAssessmentID]
	r.seen[rep.SourceAssessmentID] = true
	r.mu.Unlock()

	return Gauge{
		Percent: clampPercent(rep.RiskScore),
		Color:   RiskLevelColor(rep.RiskLevel),
		Animate: animate,
	}
}

// RasterizeGauge renders the ring to a square PNG of the given side
// length. The exported document embeds this where the screen shows the
// animated SVG.
func RasterizeGauge(g Gauge, side int) ([]byte, error) {
	if side <= 0 {
		return nil, fmt.Errorf("invalid raster size %d", side)
	}
	stroke, err := parseHexColor(g.Color)
	if err != nil {
		return nil, err
	}
	track := color.RGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF}
	white := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	scale := float64(side) / gaugeViewport
	center := float64(side) / 2
	inner := (gaugeRadius - gaugeStrokeWidth/2) * scale
	outer := (gaugeRadius + gaugeStrokeWidth/2) * scale
	fillFrac := float64(clampPercent(g.Percent)) / 100

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			dist := math.Hypot(dx, dy)
			if dist < inner || dist > outer {
				img.SetRGBA(x, y, white)
				continue
			}
			// Angle measured clockwise from twelve o'clock, matching
			// the rotated on-screen ring.
			angle := math.Atan2(dx, -dy)
			if angle < 0 {
				angle += 2 * math.Pi
			}
			if angle/(2*math.Pi) <= fillFrac && fillFrac > 0 {
				img.SetRGBA(x, y, stroke)
			} else {
				img.SetRGBA(x, y, track)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode gauge png: %w", err)
	}
	return buf.Bytes(), nil
}

func parseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}, nil
}
