package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yigit/rollcall/internal/app/models/dto"
	"github.com/yigit/rollcall/internal/pkg/helpers"
	"github.com/yigit/rollcall/internal/pkg/logger"
	"github.com/yigit/rollcall/internal/pkg/metrics"
)

// RequestIDHeader carries the request identifier in and out
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs every request once it has been served
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("requestID", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Request = c.Request.WithContext(helpers.WithClientIP(c.Request.Context(), c.ClientIP()))

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		if actor, ok := GetActor(c); ok {
			event = event.Int64("userID", actor.UserID)
		}
		event.
			Str("requestID", requestID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("clientIP", c.ClientIP()).
			Msg("Request served")
	}
}

// CORS allows browser clients from origins to call the API. A single "*"
// opens it to every origin without credentials.
func CORS(origins []string) gin.HandlerFunc {
	config := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return cors.New(config)
}

// Metrics records request counts and latency per route
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

// MaintenanceChecker reports whether the system is in maintenance mode
type MaintenanceChecker interface {
	MaintenanceEnabled(ctx context.Context) bool
}

// Maintenance rejects non-admin requests while maintenance mode is on.
// It must run after JWTAuth.
func Maintenance(checker MaintenanceChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := GetActor(c); ok && actor.IsAdmin() {
			c.Next()
			return
		}
		if checker.MaintenanceEnabled(c.Request.Context()) {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeMaintenance, "System is under maintenance")
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}
