package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yigit/rollcall/internal/domain/attendance"
)

func sampleCourseReport() CourseReport {
	week1 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	return CourseReport{
		CourseName: "Operating Systems",
		CourseCode: "CS301",
		Sessions: []SessionColumn{
			{ID: 1, Week: 1, Date: week1, Title: "Week 1 class"},
			{ID: 2, Week: 2, Date: week1.AddDate(0, 0, 7), Title: "Holiday (no class)", Holiday: true},
			{ID: 3, Week: 2, Date: week1.AddDate(0, 0, 14), Title: "Week 2 class"},
		},
		Students: []StudentRow{
			{
				Name:   "Kim Minji",
				Number: "20231234",
				Summary: attendance.Summary{
					TotalSessions: 3, Present: 1, Late: 1, FinalAbsent: 0, AttendanceRate: 100, Risk: attendance.RiskOK,
				},
				Statuses: map[int64]attendance.Status{1: attendance.StatusPresent, 3: attendance.StatusLate},
			},
			{
				Name:     "Lee Jisoo",
				Number:   "20231235",
				Summary:  attendance.Summary{TotalSessions: 3, RecordedAbsent: 1, FinalAbsent: 1, AttendanceRate: 67, Risk: attendance.RiskOK},
				Statuses: map[int64]attendance.Status{1: attendance.StatusAbsent},
			},
		},
		GeneratedAt: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCourseWorkbook(t *testing.T) {
	data, err := CourseWorkbook(sampleCourseReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{attendanceSheet}, f.GetSheetList())

	rows, err := f.GetRows(attendanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	assert.Equal(t, "Operating Systems (CS301)", rows[0][0])

	header := rows[3]
	assert.Equal(t, "Student Number", header[0])
	assert.Equal(t, "W1 09/01", header[len(summaryHeaders)])
	assert.Equal(t, "W2 09/08 (H)", header[len(summaryHeaders)+1])

	first := rows[4]
	assert.Equal(t, "20231234", first[0])
	assert.Equal(t, "Kim Minji", first[1])
	assert.Equal(t, "100", first[9])
	assert.Equal(t, []string{"P", "H", "L"}, first[len(summaryHeaders):])

	second := rows[5]
	assert.Equal(t, []string{"A", "H", "-"}, second[len(summaryHeaders):])
}

func TestStudentSummaryPDF(t *testing.T) {
	report := StudentReport{
		CourseName:    "Operating Systems",
		StudentName:   "Kim Minji",
		StudentNumber: "20231234",
		Summary:       attendance.Summary{TotalSessions: 2, Present: 2, AttendanceRate: 100, Risk: attendance.RiskOK},
		Sessions: []SessionLine{
			{Week: 1, Date: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), Title: "Week 1 class", Status: attendance.StatusPresent},
			{Week: 2, Date: time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC), Title: "Week 2 class", Status: attendance.StatusPresent},
		},
		GeneratedAt: time.Now(),
	}

	data, err := StudentSummaryPDF(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Greater(t, len(data), 500)
}

func TestStatusLetter(t *testing.T) {
	tests := []struct {
		status attendance.Status
		want   string
	}{
		{attendance.StatusPresent, "P"},
		{attendance.StatusLate, "L"},
		{attendance.StatusAbsent, "A"},
		{attendance.StatusExcused, "E"},
		{attendance.StatusUnmarked, "-"},
		{"", "-"},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, statusLetter(tt.status))
		})
	}
}
