// Package export renders a risk report into a printable PDF document:
// A4, 20mm margins, a fixed section order, and an optional gauge chart
// image between the results summary and the recommendations.
package export

import (
	"bytes"
	"fmt"
	"image/png"
	"log/slog"
	"sort"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/intake"
	"github.com/Veda103/CardioCare-Heart-Health-Risk-Prediction/internal/report"
)

const (
	pageMargin = 20.0
	fontFamily = "Helvetica"
)

// FileName is the suggested name for a saved document.
const FileName = "cardio-care-comprehensive-report.pdf"

const disclaimer = "This assessment provides educational information only and is not " +
	"intended to replace professional medical advice, diagnosis, or treatment. Always " +
	"consult with a qualified healthcare provider regarding any medical concerns or " +
	"before making health-related decisions. If you have concerns about your heart " +
	"health, please contact your doctor immediately."

// defaultRecommendations backs reports whose prediction carried none.
var defaultRecommendations = []string{
	"Schedule regular cardiovascular check-ups with your healthcare provider",
	"Maintain a balanced diet rich in fruits, vegetables, and whole grains",
	"Engage in regular physical activity (at least 150 minutes per week)",
	"Monitor your blood pressure and cholesterol levels regularly",
	"Avoid tobacco use and limit alcohol consumption",
	"Manage stress through relaxation techniques and adequate sleep",
}

// ChartRasterizer produces the PNG embedded as the report chart. A nil
// rasterizer, or one that returns no data, skips the chart section.
type ChartRasterizer func(rep *report.Report) ([]byte, error)

// GaugeChart rasterizes the report's risk gauge for embedding.
func GaugeChart(renderer *report.GaugeRenderer) ChartRasterizer {
	return func(rep *report.Report) ([]byte, error) {
		return report.RasterizeGauge(renderer.Render(rep), 400)
	}
}

// Exporter renders reports to PDF.
type Exporter struct {
	chart  ChartRasterizer
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithChart sets the chart rasterizer.
func WithChart(c ChartRasterizer) Option {
	return func(e *Exporter) { e.chart = c }
}

// WithLogger sets the exporter logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithClock overrides the generation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// New creates an exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a rendered document.
type Result struct {
	PDF   []byte
	Pages int
}

// Render produces the document. The chart is rasterized up front and
// the remaining sections wait for it, so a slow or failed rasterization
// can never interleave with later content; a failure drops the chart
// and the rest of the document still renders.
func (e *Exporter) Render(rep *report.Report) (*Result, error) {
	if rep == nil {
		return nil, fmt.Errorf("nil report")
	}

	var chart []byte
	if e.chart != nil {
		data, err := e.chart(rep)
		if err != nil {
			e.logger.Warn("chart rasterization failed, exporting without chart", "error", err)
		} else {
			chart = data
		}
	}

	generated := e.now()
	dateLine := generated.Format("January 2, 2006")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 5, fmt.Sprintf("Generated by Cardio Care | %s", dateLine), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	d := &doc{pdf: pdf, y: pageMargin}
	d.pageWidth, d.pageHeight = pdf.GetPageSize()
	d.maxWidth = d.pageWidth - 2*pageMargin

	// Header.
	pdf.SetFont(fontFamily, "B", 24)
	pdf.Text(pageMargin, d.y, "Cardio Care")
	pdf.SetFont(fontFamily, "", 16)
	pdf.Text(pageMargin, d.y+8, "AI-Powered Heart Health Report")
	d.y += 25

	d.addText(fmt.Sprintf("Assessment Date: %s", dateLine), 12, false)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(pageMargin, d.y, d.pageWidth-pageMargin, d.y)
	d.y += 10

	// Results summary.
	d.addText("ASSESSMENT RESULTS", 18, true)
	level := rep.RiskLevel
	if level == "" {
		level = "Not Available"
	}
	d.addText(fmt.Sprintf("Risk Level: %s", level), 14, true)
	d.addText(fmt.Sprintf("Risk Score: %d/100", rep.RiskScore), 14, false)
	if rep.Confidence > 0 {
		d.addText(fmt.Sprintf("Model Confidence: %.0f%%", rep.Confidence*100), 12, false)
	}
	for _, f := range rep.Factors {
		d.addText(fmt.Sprintf("- %s (%s): %s", f.Factor, f.Impact, f.Value), 11, false)
	}

	// Chart.
	if len(chart) > 0 {
		if err := d.addChart(chart); err != nil {
			e.logger.Warn("failed to embed chart", "error", err)
		}
	}

	// Recommendations.
	d.ensure(40)
	d.addText("RECOMMENDATIONS & NEXT STEPS", 16, true)
	recs := rep.Recommendations
	if len(recs) == 0 {
		recs = defaultRecommendations
	}
	for i, rec := range recs {
		d.addText(fmt.Sprintf("%d. %s", i+1, rec), 11, false)
	}

	// Input echo.
	d.ensure(40)
	d.addText("YOUR INPUT DATA", 16, true)
	for _, line := range inputLines(rep.Input) {
		d.addText(line, 11, false)
	}

	// Disclaimer.
	d.ensure(60)
	d.addText("IMPORTANT MEDICAL DISCLAIMER", 14, true)
	d.addText(disclaimer, 10, false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return &Result{PDF: buf.Bytes(), Pages: pdf.PageCount()}, nil
}

// doc tracks the write cursor on the current page.
type doc struct {
	pdf        *fpdf.Fpdf
	y          float64
	pageWidth  float64
	pageHeight float64
	maxWidth   float64
}

// ensure starts a new page when fewer than h millimeters remain.
func (d *doc) ensure(h float64) {
	if d.y+h > d.pageHeight-pageMargin {
		d.pdf.AddPage()
		d.y = pageMargin
	}
}

// addText writes a wrapped text block. Line height follows the font
// size, with a 5mm gap after the block.
func (d *doc) addText(text string, size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	d.pdf.SetFont(fontFamily, style, size)
	for _, line := range d.pdf.SplitText(text, d.maxWidth) {
		d.ensure(20)
		d.pdf.Text(pageMargin, d.y, line)
		d.y += size * 0.5
	}
	d.y += 5
}

// addChart embeds the PNG scaled to the usable width, preserving its
// aspect ratio.
func (d *doc) addChart(data []byte) error {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode chart: %w", err)
	}
	w := d.maxWidth
	h := w * float64(cfg.Height) / float64(cfg.Width)

	d.ensure(h + 15)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	d.pdf.RegisterImageOptionsReader("risk-gauge", opts, bytes.NewReader(data))
	d.pdf.ImageOptions("risk-gauge", pageMargin, d.y, w, h, false, opts, 0, "")
	d.y += h + 15
	return nil
}

// inputLines formats the submitted answers in questionnaire order, with
// any unrecognized keys appended alphabetically.
func inputLines(input map[string]string) []string {
	var lines []string
	seen := make(map[string]bool, len(input))
	for _, f := range intake.Fields {
		if v, ok := input[f.Name]; ok {
			lines = append(lines, fmt.Sprintf("%s: %s", f.Label, v))
			seen[f.Name] = true
		}
	}
	var extras []string
	for k := range input {
		if !seen[k] {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		lines = append(lines, fmt.Sprintf("%s: %s", intake.Label(k), input[k]))
	}
	return lines
}
