package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateOffsetLimit(t *testing.T) {
	tests := []struct {
		name       string
		page, size int
		wantOffset uint64
		wantLimit  int
	}{
		{name: "first page", page: 1, size: 20, wantOffset: 0, wantLimit: 20},
		{name: "third page", page: 3, size: 10, wantOffset: 20, wantLimit: 10},
		{name: "page below one", page: 0, size: 10, wantOffset: 0, wantLimit: 10},
		{name: "oversized page", page: 2, size: 500, wantOffset: DefaultPageSize, wantLimit: DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := CalculateOffsetLimit(tt.page, tt.size)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(37, 2, 10)
	assert.Equal(t, 4, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestQueryParsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=2&size=5&from=2025-09-01&courseId=12&bad=x", nil)

	page, size := ParsePaginationParams(c)
	assert.Equal(t, 2, page)
	assert.Equal(t, 5, size)

	from, err := ParseDateQuery(c, "from")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", from.Format("2006-01-02"))

	missing, err := ParseDateQuery(c, "to")
	require.NoError(t, err)
	assert.Nil(t, missing)

	id, err := ParseInt64Query(c, "courseId")
	require.NoError(t, err)
	assert.Equal(t, int64(12), *id)

	_, err = ParseInt64Query(c, "bad")
	assert.Error(t, err)
}
