package qrcode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckInURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{"plain base", "https://att.example.edu", "https://att.example.edu/checkin?code=4821&sessionId=42"},
		{"trailing slash", "https://att.example.edu/", "https://att.example.edu/checkin?code=4821&sessionId=42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckInURL(tt.base, 42, "4821"))
		})
	}
}

func TestPNGDecodes(t *testing.T) {
	data, err := PNG(CheckInURL("http://localhost:8080", 7, "1234"), 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSize, img.Bounds().Dx())
	assert.Equal(t, DefaultSize, img.Bounds().Dy())
}

func TestPNGRejectsEmptyContent(t *testing.T) {
	_, err := PNG("", 100)
	assert.Error(t, err)
}
