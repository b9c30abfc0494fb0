package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	authz "github.com/yigit/rollcall/internal/app/auth"
	"github.com/yigit/rollcall/internal/middleware"
	"github.com/yigit/rollcall/internal/pkg/export"
)

// ExportService renders attendance documents
type ExportService interface {
	CourseWorkbook(ctx context.Context, actor authz.Actor, courseID int64) ([]byte, string, error)
	StudentPDF(ctx context.Context, actor authz.Actor, courseID, studentID int64) ([]byte, string, error)
}

// ReportController serves file exports
type ReportController struct {
	exportService ExportService
}

// NewReportController creates a new ReportController
func NewReportController(exportService ExportService) *ReportController {
	return &ReportController{exportService: exportService}
}

// CourseWorkbook downloads the course attendance sheet
// @Summary Course attendance workbook
// @Description One row per enrolled student with summary columns and a weekly status grid
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {file} binary "XLSX workbook"
// @Failure 403 {object} dto.ErrorResponse "Not the course owner"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Router /reports/courses/{id}/attendance.xlsx [get]
func (c *ReportController) CourseWorkbook(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}

	data, filename, err := c.exportService.CourseWorkbook(ctx.Request.Context(), actor, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	writeAttachment(ctx, export.ContentTypeXLSX, filename, data)
}

// StudentPDF downloads one student's attendance summary
// @Summary Student attendance PDF
// @Tags reports
// @Produce application/pdf
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param studentId path int true "Student ID"
// @Success 200 {file} binary "PDF document"
// @Failure 403 {object} dto.ErrorResponse "Not allowed to read this student's record"
// @Router /reports/courses/{id}/students/{studentId}/summary.pdf [get]
func (c *ReportController) StudentPDF(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	courseID, ok := middleware.ParamID(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := middleware.ParamID(ctx, "studentId")
	if !ok {
		return
	}

	data, filename, err := c.exportService.StudentPDF(ctx.Request.Context(), actor, courseID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	writeAttachment(ctx, export.ContentTypePDF, filename, data)
}
