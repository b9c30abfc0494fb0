// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/middleware"
	"github.com/yigit/rollcall/internal/pkg/helpers"
)

// requireActor returns the authenticated caller or writes a 401
func requireActor(ctx *gin.Context) (authz.Actor, bool) {
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
		return authz.Actor{}, false
	}
	return actor, true
}

// optionalIDQuery reads an optional positive integer query parameter,
// writing a 400 when it is malformed.
func optionalIDQuery(ctx *gin.Context, name string) (*int64, bool) {
	id, err := helpers.ParseInt64Query(ctx, name)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name)
		errorDetail = errorDetail.WithField(name).WithDetails("must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return id, true
}

func dateQuery(ctx *gin.Context, name string) (*time.Time, bool) {
	d, err := helpers.ParseDateQuery(ctx, name)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid "+name)
		errorDetail = errorDetail.WithField(name).WithDetails("use YYYY-MM-DD")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return nil, false
	}
	return d, true
}

// limitQuery reads the "limit" query parameter, falling back to def
func limitQuery(ctx *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(ctx.Query("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func writeAttachment(ctx *gin.Context, contentType, filename string, data []byte) {
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, contentType, data)
}
