package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const attendanceSheet = "Attendance"

var summaryHeaders = []string{
	"Student Number", "Name", "Present", "Late", "Absent", "Excused",
	"Auto Absent", "Late Conversion", "Final Absent", "Rate (%)", "Risk",
}

// CourseWorkbook renders one row per student: the summary columns followed
// by a status grid with one column per session.
func CourseWorkbook(report CourseReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(attendanceSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	title := report.CourseName
	if report.CourseCode != "" {
		title = fmt.Sprintf("%s (%s)", report.CourseName, report.CourseCode)
	}
	if err := f.SetCellValue(attendanceSheet, "A1", title); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(attendanceSheet, "A2", "Generated "+report.GeneratedAt.Format("2006-01-02 15:04")); err != nil {
		return nil, err
	}

	const headerRow = 4
	headers := append([]string{}, summaryHeaders...)
	for _, s := range report.Sessions {
		label := fmt.Sprintf("W%d %s", s.Week, s.Date.Format("01/02"))
		if s.Holiday {
			label += " (H)"
		}
		headers = append(headers, label)
	}
	if err := writeRow(f, headerRow, toAny(headers)); err != nil {
		return nil, err
	}

	lastCol, err := excelize.ColumnNumberToName(len(headers))
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(attendanceSheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), headerStyle); err != nil {
		return nil, err
	}

	for i, st := range report.Students {
		sum := st.Summary
		values := []interface{}{
			st.Number, st.Name, sum.Present, sum.Late, sum.RecordedAbsent, sum.Excused,
			sum.AutoAbsent, sum.LateConversion, sum.FinalAbsent, sum.AttendanceRate, string(sum.Risk),
		}
		for _, s := range report.Sessions {
			if s.Holiday {
				values = append(values, "H")
				continue
			}
			values = append(values, statusLetter(st.Statuses[s.ID]))
		}
		if err := writeRow(f, headerRow+1+i, values); err != nil {
			return nil, err
		}
	}

	if err := f.SetColWidth(attendanceSheet, "A", "A", 16); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(attendanceSheet, "B", "B", 24); err != nil {
		return nil, err
	}
	if err := f.SetPanes(attendanceSheet, &excelize.Panes{
		Freeze: true, XSplit: 2, YSplit: headerRow, TopLeftCell: fmt.Sprintf("C%d", headerRow+1), ActivePane: "bottomRight",
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(attendanceSheet, cell, &values)
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
