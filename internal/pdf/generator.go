package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/healthmate/pkg/model"
)

// PDFGenerator renders the course report
type PDFGenerator struct {
	logger *zap.Logger
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	UserName    string
	GeneratedAt time.Time
	Metrics     []model.HealthMetric
	Active      []model.MedicationView
	Completed   []model.MedicationView
}

// Generate creates a PDF report from the provided data
func (g *PDFGenerator) Generate(data *ReportData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("report data is required")
	}

	g.logger.Info("generating PDF report",
		zap.String("user_name", data.UserName),
		zap.Int("active_medications", len(data.Active)),
		zap.Int("completed_medications", len(data.Completed)),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	generatedAt := data.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}
	g.addTitle(pdf, "Health Report", data.UserName, generatedAt)

	g.addMetrics(pdf, data.Metrics)
	g.addMedications(pdf, "Active Medications", "No active medications.", data.Active)
	g.addMedications(pdf, "Completed Courses", "No completed courses.", data.Completed)
	g.addDisclaimer(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, title, userName string, generatedAt time.Time) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	if userName != "" {
		pdf.CellFormat(0, 8, fmt.Sprintf("Patient: %s", userName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

// addMetrics renders the metric table
func (g *PDFGenerator) addMetrics(pdf *gofpdf.Fpdf, metrics []model.HealthMetric) {
	g.addSectionHeader(pdf, "Health Metrics")

	if len(metrics) == 0 {
		pdf.CellFormat(0, 8, "No metrics recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	widths := []float64{55, 35, 35, 25, 20}
	headers := []string{"Metric", "Value", "Target", "Trend", "Goal"}

	pdf.SetFont("Arial", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, m := range metrics {
		target := "-"
		if m.Target != nil {
			target = formatNumber(*m.Target) + " " + m.Unit
		}
		goal := ""
		if m.TargetReached() {
			goal = "Met"
		}

		pdf.CellFormat(widths[0], 6, m.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, formatNumber(m.Value)+" "+m.Unit, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, target, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, string(m.Trend), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 6, goal, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(5)
}

// addMedications renders one group of medication courses
func (g *PDFGenerator) addMedications(pdf *gofpdf.Fpdf, title, empty string, views []model.MedicationView) {
	g.addSectionHeader(pdf, title)

	if len(views) == 0 {
		pdf.CellFormat(0, 8, empty, "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, v := range views {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s (%s)", v.Name, v.Dosage), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Frequency: %s", v.Frequency), "", 1, "L", false, 0, "")
		if v.PrescribedBy != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Prescribed by: %s", v.PrescribedBy), "", 1, "L", false, 0, "")
		}

		period := v.StartDate.String()
		if v.EndDate != nil {
			period += " to " + v.EndDate.String()
		}
		pdf.CellFormat(0, 5, fmt.Sprintf("  Course: %s", period), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Doses taken: %d of %d", v.DosesTaken, v.TotalDoses), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Status: %s", v.Status), "", 1, "L", false, 0, "")
		if v.Instructions != nil && *v.Instructions != "" {
			pdf.MultiCell(0, 5, fmt.Sprintf("  Instructions: %s", *v.Instructions), "", "L", false)
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)
}

func (g *PDFGenerator) addDisclaimer(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, "This report is informational only and does not replace advice from a doctor.", "", "L", false)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
