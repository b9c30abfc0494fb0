package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// StudentSummaryPDF renders a student's attendance summary followed by the
// list of sessions with their status.
func StudentSummaryPDF(report StudentReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Attendance summary", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Attendance Summary")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	info := [][2]string{
		{"Course:", report.CourseName},
		{"Student:", report.StudentName},
		{"Student Number:", report.StudentNumber},
	}
	for _, line := range info {
		pdf.Cell(40, 7, line[0])
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 7, tr(line[1]))
		pdf.SetFont("Arial", "", 11)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	sum := report.Summary
	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(68, 114, 196)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(90, 8, "Metric", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Value", "1", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)

	metrics := []struct {
		label string
		value string
	}{
		{"Sessions", fmt.Sprint(sum.TotalSessions)},
		{"Present", fmt.Sprint(sum.Present)},
		{"Late", fmt.Sprint(sum.Late)},
		{"Absent (recorded)", fmt.Sprint(sum.RecordedAbsent)},
		{"Absent (not checked in)", fmt.Sprint(sum.AutoAbsent)},
		{"Excused", fmt.Sprint(sum.Excused)},
		{"Lates converted to absences", fmt.Sprint(sum.LateConversion)},
		{"Final absences", fmt.Sprint(sum.FinalAbsent)},
		{"Attendance rate", fmt.Sprintf("%d%%", sum.AttendanceRate)},
		{"Risk level", string(sum.Risk)},
	}
	for _, m := range metrics {
		pdf.CellFormat(90, 7, m.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, m.value, "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Sessions")
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(15, 7, "Week", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 7, "Date", "1", 0, "C", false, 0, "")
	pdf.CellFormat(105, 7, "Title", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, s := range report.Sessions {
		pdf.CellFormat(15, 6, fmt.Sprint(s.Week), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, s.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(105, 6, tr(s.Title), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, string(s.Status), "1", 1, "C", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 6, "Generated "+report.GeneratedAt.Format("2006-01-02 15:04:05"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
