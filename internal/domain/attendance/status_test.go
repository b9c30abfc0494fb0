package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/rollcall/internal/pkg/apperrors"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"", StatusUnmarked},
		{"0", StatusUnmarked},
		{"pending", StatusUnmarked},
		{" Unmarked ", StatusUnmarked},
		{"1", StatusPresent},
		{"PRESENT", StatusPresent},
		{"2", StatusLate},
		{"late", StatusLate},
		{"3", StatusAbsent},
		{"absent", StatusAbsent},
		{"4", StatusExcused},
		{"Excused", StatusExcused},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseStatus(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStatus_Unknown(t *testing.T) {
	_, err := ParseStatus("sick")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAttendStatus)
}

func TestStatusHelpers(t *testing.T) {
	assert.False(t, StatusUnmarked.IsFinal())
	assert.True(t, StatusLate.IsFinal())
	assert.True(t, StatusExcused.Valid())
	assert.False(t, Status("sick").Valid())
}

func TestStatusScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want Status
	}{
		{name: "null", src: nil, want: StatusUnmarked},
		{name: "canonical", src: "late", want: StatusLate},
		{name: "upper case", src: "PRESENT", want: StatusPresent},
		{name: "numeric code", src: "1", want: StatusPresent},
		{name: "bytes", src: []byte("3"), want: StatusAbsent},
		{name: "placeholder", src: "pending", want: StatusUnmarked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Status
			require.NoError(t, got.Scan(tt.src))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusScan_Rejects(t *testing.T) {
	var s Status
	assert.ErrorIs(t, s.Scan("sick"), apperrors.ErrInvalidAttendStatus)
	assert.ErrorIs(t, s.Scan(int64(1)), apperrors.ErrInvalidAttendStatus)
}

func TestStatusScan_LegacyRowsCountInSummary(t *testing.T) {
	stored := []string{"PRESENT", "1", "2"}
	marks := make([]Mark, len(stored))
	for i, raw := range stored {
		marks[i].SessionID = int64(i + 1)
		require.NoError(t, marks[i].Status.Scan(raw))
	}

	got := Summarize(heldSessions(3), marks, DefaultPolicy())
	assert.Equal(t, 2, got.Present)
	assert.Equal(t, 1, got.Late)
	assert.Zero(t, got.NoMark)
}
