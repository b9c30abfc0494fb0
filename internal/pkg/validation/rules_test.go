package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Day    *int   `json:"dayOfWeek" validate:"required,weekday"`
	Start  string `json:"startTime" validate:"omitempty,hhmm"`
	Code   string `json:"code" validate:"omitempty,checkin_code"`
	Number string `json:"studentNumber" validate:"omitempty,student_number"`
	Status string `json:"status" validate:"omitempty,attendance_status"`
	Date   string `json:"date" validate:"omitempty,date"`
}

func intPtr(n int) *int { return &n }

func TestRules(t *testing.T) {
	v := New()

	tests := []struct {
		name      string
		in        sample
		wantField string
	}{
		{name: "valid", in: sample{Day: intPtr(0), Start: "09:30", Code: "0421", Number: "20231234", Status: "late", Date: "2025-09-01"}},
		{name: "saturday is valid", in: sample{Day: intPtr(6)}},
		{name: "weekday too large", in: sample{Day: intPtr(7)}, wantField: "dayOfWeek"},
		{name: "weekday missing", in: sample{}, wantField: "dayOfWeek"},
		{name: "bad clock", in: sample{Day: intPtr(1), Start: "24:00"}, wantField: "startTime"},
		{name: "short code", in: sample{Day: intPtr(1), Code: "123"}, wantField: "code"},
		{name: "letters in student number", in: sample{Day: intPtr(1), Number: "A2023"}, wantField: "studentNumber"},
		{name: "unknown status", in: sample{Day: intPtr(1), Status: "sick"}, wantField: "status"},
		{name: "bad date", in: sample{Day: intPtr(1), Date: "01/09/2025"}, wantField: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var fieldErrors validator.ValidationErrors
			require.ErrorAs(t, err, &fieldErrors)
			assert.Equal(t, tt.wantField, fieldErrors[0].Field())
		})
	}
}
