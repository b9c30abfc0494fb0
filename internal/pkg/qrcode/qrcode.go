// Package qrcode renders check-in links as PNG QR codes.
package qrcode

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the edge length in pixels of generated images
const DefaultSize = 320

// CheckInURL builds the link students open to check in to a session
func CheckInURL(baseURL string, sessionID int64, code string) string {
	q := url.Values{}
	q.Set("sessionId", strconv.FormatInt(sessionID, 10))
	q.Set("code", code)
	return strings.TrimRight(baseURL, "/") + "/checkin?" + q.Encode()
}

// PNG encodes content as a QR image. A non-positive size uses DefaultSize.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("qrcode: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}

	qr, err := goqrcode.New(content, goqrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qrcode: %w", err)
	}
	qr.DisableBorder = false
	return qr.PNG(size)
}
