package helpers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rollcall/internal/domain/schedule"
)

// ParseDateQuery reads an optional YYYY-MM-DD query parameter
func ParseDateQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseInt64Query reads an optional positive integer query parameter
func ParseInt64Query(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil, strconv.ErrSyntax
	}
	return &v, nil
}
