package controllers

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/app/services"
	"github.com/yigit/rollcall/internal/middleware"
	"github.com/yigit/rollcall/internal/pkg/helpers"
)

// SettingsService reads and writes runtime settings
type SettingsService interface {
	List(ctx context.Context) ([]*models.Setting, error)
	Update(ctx context.Context, key, value string) error
	UpdateMany(ctx context.Context, values map[string]string) error
}

// AuditService records and lists audit entries
type AuditService interface {
	Record(ctx context.Context, actorID int64, action, details string)
	List(ctx context.Context, filter dto.AuditLogFilter) ([]*models.AuditLog, dto.PaginationInfo, error)
}

// ReportService builds dashboard figures
type ReportService interface {
	Stats(ctx context.Context) (*dto.SystemStats, error)
	AdminReport(ctx context.Context) (*dto.AdminReport, error)
	AtRisk(ctx context.Context) ([]dto.RiskEntry, error)
}

// AdminController serves the admin dashboard, settings and audit log
type AdminController struct {
	settings SettingsService
	audit    AuditService
	reports  ReportService
	logger   zerolog.Logger
}

// NewAdminController creates a new AdminController
func NewAdminController(settings SettingsService, audit AuditService, reports ReportService, logger zerolog.Logger) *AdminController {
	return &AdminController{
		settings: settings,
		audit:    audit,
		reports:  reports,
		logger:   logger,
	}
}

// ListSettings returns every setting
// @Summary List settings
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Setting} "Settings"
// @Failure 403 {object} dto.ErrorResponse "Admin only"
// @Router /admin/settings [get]
func (c *AdminController) ListSettings(ctx *gin.Context) {
	settings, err := c.settings.List(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(settings, ""))
}

// UpdateSetting changes one setting
// @Summary Update setting
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateSettingRequest true "Key and value"
// @Success 200 {object} dto.APIResponse "Setting updated"
// @Failure 400 {object} dto.ErrorResponse "Unknown key or invalid value"
// @Router /admin/settings [put]
func (c *AdminController) UpdateSetting(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.UpdateSettingRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.settings.Update(ctx.Request.Context(), req.Key, req.Value); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.audit.Record(ctx.Request.Context(), actor.UserID, services.ActionSettingsUpdate, fmt.Sprintf("%s=%s", req.Key, req.Value))
	c.logger.Info().Int64("userID", actor.UserID).Str("key", req.Key).Msg("Setting updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Setting updated"))
}

// BulkUpdateSettings changes several settings at once. Either all values
// are stored or none.
// @Summary Bulk update settings
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkSettingsRequest true "Settings map"
// @Success 200 {object} dto.APIResponse "Settings updated"
// @Failure 400 {object} dto.ErrorResponse "Unknown key or invalid value"
// @Router /admin/settings/bulk [put]
func (c *AdminController) BulkUpdateSettings(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	var req dto.BulkSettingsRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	if err := c.settings.UpdateMany(ctx.Request.Context(), req.Settings); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	keys := make([]string, 0, len(req.Settings))
	for key, value := range req.Settings {
		keys = append(keys, key+"="+value)
	}
	sort.Strings(keys)
	c.audit.Record(ctx.Request.Context(), actor.UserID, services.ActionSettingsUpdate, strings.Join(keys, ", "))
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Settings updated"))
}

// ListAuditLogs lists audit entries, newest first
// @Summary List audit logs
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action"
// @Param userId query int false "Acting user ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD, inclusive)"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.AuditLog}} "Audit logs"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter"
// @Router /admin/audit-logs [get]
func (c *AdminController) ListAuditLogs(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	filter := dto.AuditLogFilter{Page: page, Size: size}

	if action := strings.TrimSpace(ctx.Query("action")); action != "" {
		filter.Action = &action
	}
	userID, ok := optionalIDQuery(ctx, "userId")
	if !ok {
		return
	}
	filter.UserID = userID

	from, ok := dateQuery(ctx, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(ctx, "to")
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	logs, pagination, err := c.audit.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.PaginatedResponse{
		Items:      logs,
		Pagination: pagination,
	}, ""))
}

// Stats returns system-wide counters
// @Summary System stats
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SystemStats} "Stats"
// @Router /admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.reports.Stats(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}

// Report returns the admin dashboard report
// @Summary Admin report
// @Description Overview counters, today's check-ins, open sessions, at-risk students and recent audit activity
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.AdminReport} "Report"
// @Router /admin/report [get]
func (c *AdminController) Report(ctx *gin.Context) {
	report, err := c.reports.AdminReport(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(report, ""))
}

// AtRisk lists student-course pairs at warning or danger level
// @Summary At-risk students
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]dto.RiskEntry} "At-risk students"
// @Router /admin/at-risk [get]
func (c *AdminController) AtRisk(ctx *gin.Context) {
	entries, err := c.reports.AtRisk(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(entries, ""))
}
