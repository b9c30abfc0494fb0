package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/apperrors"
	"github.com/yigit/rollcall/internal/pkg/logger"
)

type errorMapping struct {
	target  error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; specific sentinels come before the generic ones
var errorMappings = []errorMapping{
	// Authentication
	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Token revoked"},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},

	// Attendance
	{apperrors.ErrAttendanceClosed, http.StatusConflict, dto.ErrorCodeAttendanceClosed, "Attendance is not open for this session"},
	{apperrors.ErrInvalidCheckInCode, http.StatusBadRequest, dto.ErrorCodeInvalidCheckInCode, "Check-in code does not match"},
	{apperrors.ErrAlreadyCheckedIn, http.StatusConflict, dto.ErrorCodeAlreadyCheckedIn, "Attendance already recorded"},
	{apperrors.ErrHolidaySession, http.StatusConflict, dto.ErrorCodeHolidaySession, "Holiday sessions cannot be opened"},
	{apperrors.ErrNotEnrolled, http.StatusForbidden, dto.ErrorCodeNotEnrolled, "Not enrolled in this course"},
	{apperrors.ErrInvalidAttendStatus, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Invalid attendance status"},

	// Not found
	{apperrors.ErrUserNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "User not found"},
	{apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Course not found"},
	{apperrors.ErrSessionNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Session not found"},
	{apperrors.ErrAttendanceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Attendance mark not found"},
	{apperrors.ErrDepartmentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Department not found"},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},

	// Conflicts
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Email already exists"},
	{apperrors.ErrStudentNumberExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Student number already exists"},
	{apperrors.ErrAlreadyEnrolled, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Student is already enrolled"},
	{apperrors.ErrDepartmentAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Department already exists"},
	{apperrors.ErrDepartmentHasRelations, http.StatusConflict, dto.ErrorCodeConflict, "Department is still in use"},
	{apperrors.ErrExcuseAlreadyDecided, http.StatusConflict, dto.ErrorCodeConflict, "Excuse has already been decided"},
	{apperrors.ErrVoteClosed, http.StatusConflict, dto.ErrorCodeConflict, "Vote is closed"},
	{apperrors.ErrAlreadyVoted, http.StatusConflict, dto.ErrorCodeConflict, "Already voted"},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},

	// Validation
	{apperrors.ErrStudentNumberRequired, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Student number is required for students"},
	{apperrors.ErrInvalidVoteOption, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Option does not belong to this vote"},
	{apperrors.ErrCannotDeleteCurrentUser, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "You cannot delete your own account"},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Bad request"},

	// Authorization and system state
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{apperrors.ErrFeatureDisabled, http.StatusForbidden, dto.ErrorCodeFeatureDisabled, "Feature is disabled"},
	{apperrors.ErrMaintenance, http.StatusServiceUnavailable, dto.ErrorCodeMaintenance, "System is under maintenance"},
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	status, detail := ErrorDetailFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Unhandled error")
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

// ErrorDetailFor resolves err into an HTTP status and error detail
func ErrorDetailFor(err error) (int, *dto.ErrorDetail) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}

		detail := dto.NewErrorDetail(m.code, m.message)
		var custom *apperrors.CustomError
		if errors.As(err, &custom) {
			if custom.Message != "" {
				detail.Message = custom.Message
			}
			if len(custom.Details) > 0 {
				detail.Details = custom.Details
			}
		} else if wrapped := err.Error(); wrapped != m.target.Error() {
			detail.Details = wrapped
		}
		return m.status, detail
	}

	return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")
}
