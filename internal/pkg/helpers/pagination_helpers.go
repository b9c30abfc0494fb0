package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rollcall/internal/app/models/dto"
)

// Page bounds for list endpoints. Pages are 1-based.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	return page, size
}

// CalculateOffsetLimit turns a page request into SQL OFFSET and LIMIT values
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	page, size = normalizePage(page, size)
	return uint64(page-1) * uint64(size), size
}

// NewPaginationInfo describes the page of a result set holding totalItems rows.
// An empty result still reports one page so clients can render "page 1 of 1".
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	page, size = normalizePage(page, size)

	totalPages := int((totalItems + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads the "page" and "size" query parameters,
// falling back to the defaults for missing or out of range values.
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	size, _ = strconv.Atoi(c.Query("size"))
	return normalizePage(page, size)
}
