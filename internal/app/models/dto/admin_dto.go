package dto

import (
	"time"

	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/domain/attendance"
)

// DepartmentRequest creates or updates a department
type DepartmentRequest struct {
	Name string `json:"name" binding:"required,max=150"`
	Code string `json:"code" binding:"required,max=20"`
}

// SemesterRequest creates or updates a semester
type SemesterRequest struct {
	Name      string `json:"name" binding:"required,max=100"`
	StartDate string `json:"startDate" binding:"required,date"`
	EndDate   string `json:"endDate" binding:"required,date"`
	IsActive  bool   `json:"isActive"`
}

// HolidayRequest adds a holiday to the calendar
type HolidayRequest struct {
	Date  string `json:"date" binding:"required,date" example:"2025-10-03"`
	Label string `json:"label" binding:"required,max=100" example:"National Foundation Day"`
}

// UpdateSettingRequest sets one system setting
type UpdateSettingRequest struct {
	Key   string `json:"key" binding:"required,max=60"`
	Value string `json:"value" binding:"max=255"`
}

// BulkSettingsRequest sets several settings at once
type BulkSettingsRequest struct {
	Settings map[string]string `json:"settings" binding:"required,min=1"`
}

// AuditLogFilter narrows the audit log listing
type AuditLogFilter struct {
	Action *string
	UserID *int64
	From   *time.Time
	To     *time.Time
	Page   int
	Size   int
}

// SystemStats are headline counts for the admin dashboard
type SystemStats struct {
	UsersByRole    map[models.RoleType]int   `json:"usersByRole"`
	Courses        int                       `json:"courses"`
	Sessions       int                       `json:"sessions"`
	OpenSessions   int                       `json:"openSessions"`
	MarksByStatus  map[attendance.Status]int `json:"marksByStatus"`
	PendingExcuses int                       `json:"pendingExcuses"`
}

// ActionCount is one row of the top audit actions
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// RiskEntry is a student whose attendance in a course needs attention
type RiskEntry struct {
	CourseID      int64                `json:"courseId"`
	CourseName    string               `json:"courseName"`
	StudentID     int64                `json:"studentId"`
	StudentName   string               `json:"studentName"`
	StudentNumber *string              `json:"studentNumber,omitempty"`
	Risk          attendance.RiskLevel `json:"riskLevel"`
	FinalAbsent   int                  `json:"finalAbsentCount"`
	Rate          int                  `json:"attendanceRate"`
}

// AdminReport aggregates the admin dashboard
type AdminReport struct {
	Stats         SystemStats               `json:"stats"`
	TodayCheckIns map[attendance.Status]int `json:"todayCheckIns"`
	OpenSessions  []*models.Session         `json:"openSessions"`
	AtRisk        []RiskEntry               `json:"atRisk"`
	TopActions    []ActionCount             `json:"topActions"`
	RecentLogs    []*models.AuditLog        `json:"recentLogs"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}
