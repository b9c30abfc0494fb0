package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yigit/rollcall/internal/app/controllers"
	"github.com/yigit/rollcall/internal/app/models"
	"github.com/yigit/rollcall/internal/middleware"
)

// Controllers groups every HTTP controller mounted by SetupRouter
type Controllers struct {
	Auth         *controllers.AuthController
	User         *controllers.UserController
	Department   *controllers.DepartmentController
	Calendar     *controllers.CalendarController
	Admin        *controllers.AdminController
	Course       *controllers.CourseController
	Session      *controllers.SessionController
	Attendance   *controllers.AttendanceController
	Enrollment   *controllers.EnrollmentController
	Excuse       *controllers.ExcuseController
	Vote         *controllers.VoteController
	Notification *controllers.NotificationController
	Message      *controllers.MessageController
	Notice       *controllers.NoticeController
	Report       *controllers.ReportController
	Health       *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	c *Controllers,
	authMiddleware *middleware.AuthMiddleware,
	maintenance middleware.MaintenanceChecker,
	websocketHandler gin.HandlerFunc,
) {
	router.GET("/health", c.Health.Health)

	// API version group
	v1 := router.Group("/api/v1")
	v1.GET("/health", c.Health.Health)

	staff := authMiddleware.RoleRequired(models.RoleInstructor, models.RoleAdmin)
	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)
	studentOnly := authMiddleware.RoleRequired(models.RoleStudent)

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.Auth.Register)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
	}
	v1.GET("/departments", c.Department.GetAllDepartments)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), middleware.Maintenance(maintenance))
	{
		authenticated.GET("/auth/me", c.Auth.Me)
		authenticated.GET("/ws", websocketHandler)

		departments := authenticated.Group("/departments", adminOnly)
		{
			departments.POST("", c.Department.CreateDepartment)
			departments.PUT("/:id", c.Department.UpdateDepartment)
			departments.DELETE("/:id", c.Department.DeleteDepartment)
		}

		semesters := authenticated.Group("/semesters")
		{
			semesters.GET("", c.Calendar.ListSemesters)
			semesters.POST("", adminOnly, c.Calendar.CreateSemester)
			semesters.PUT("/:id", adminOnly, c.Calendar.UpdateSemester)
			semesters.DELETE("/:id", adminOnly, c.Calendar.DeleteSemester)
		}

		holidays := authenticated.Group("/holidays")
		{
			holidays.GET("", c.Calendar.ListHolidays)
			holidays.POST("", adminOnly, c.Calendar.CreateHoliday)
			holidays.DELETE("/:id", adminOnly, c.Calendar.DeleteHoliday)
		}

		admin := authenticated.Group("/admin", adminOnly)
		{
			admin.GET("/users", c.User.ListUsers)
			admin.GET("/users/:id", c.User.GetUser)
			admin.POST("/users", c.User.CreateUser)
			admin.PATCH("/users/:id", c.User.UpdateUser)
			admin.DELETE("/users/:id", c.User.DeleteUser)

			admin.GET("/settings", c.Admin.ListSettings)
			admin.PUT("/settings", c.Admin.UpdateSetting)
			admin.PUT("/settings/bulk", c.Admin.BulkUpdateSettings)

			admin.GET("/audit-logs", c.Admin.ListAuditLogs)
			admin.GET("/stats", c.Admin.Stats)
			admin.GET("/report", c.Admin.Report)
			admin.GET("/at-risk", c.Admin.AtRisk)
		}

		courses := authenticated.Group("/courses")
		{
			courses.GET("", c.Course.ListCourses)
			courses.GET("/:id", c.Course.GetCourse)
			courses.POST("", staff, c.Course.CreateCourse)
			courses.POST("/preview-schedule", staff, c.Course.PreviewSchedule)
			courses.PATCH("/:id", staff, c.Course.UpdateCourse)
			courses.DELETE("/:id", staff, c.Course.DeleteCourse)

			courses.GET("/:id/sessions", c.Session.ListSessions)
			courses.POST("/:id/sessions", staff, c.Session.CreateSession)

			courses.GET("/:id/votes", c.Vote.ListVotes)
			courses.POST("/:id/votes", staff, c.Vote.CreateVote)
		}

		sessions := authenticated.Group("/sessions", staff)
		{
			sessions.PATCH("/:id/toggle", c.Session.ToggleSession)
			sessions.POST("/:id/code", c.Session.RegenerateCode)
			sessions.DELETE("/:id/code", c.Session.ClearCode)
			sessions.GET("/:id/qr", c.Session.QRCode)
		}

		attendance := authenticated.Group("/attendance")
		{
			attendance.POST("/check-in", studentOnly, c.Attendance.CheckIn)
			attendance.GET("/sessions/:id", staff, c.Attendance.SessionRoster)
			attendance.GET("/students/:id", c.Attendance.StudentRecords)
			attendance.PATCH("/:id", staff, c.Attendance.UpdateStatus)
			attendance.GET("/courses/:id/me", studentOnly, c.Attendance.MySummary)
			attendance.GET("/courses/:id/stats", staff, c.Attendance.CourseStats)
		}

		enrollments := authenticated.Group("/enrollments", staff)
		{
			enrollments.GET("/courses/:id", c.Enrollment.ListStudents)
			enrollments.GET("/candidates", c.Enrollment.Candidates)
			enrollments.POST("", c.Enrollment.Enroll)
			enrollments.DELETE("", c.Enrollment.Unenroll)
		}

		excuses := authenticated.Group("/excuses")
		{
			excuses.POST("", studentOnly, c.Excuse.Submit)
			excuses.GET("/me", studentOnly, c.Excuse.Mine)
			excuses.GET("", staff, c.Excuse.List)
			excuses.PATCH("/:id", staff, c.Excuse.Decide)
		}

		votes := authenticated.Group("/votes")
		{
			votes.POST("/:id/ballot", c.Vote.CastBallot)
			votes.PATCH("/:id/close", staff, c.Vote.CloseVote)
			votes.GET("/:id/result", c.Vote.Result)
		}

		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", c.Notification.List)
			notifications.GET("/unread-count", c.Notification.UnreadCount)
			notifications.PATCH("/read-all", c.Notification.MarkAllRead)
			notifications.PATCH("/:id/read", c.Notification.MarkRead)
		}

		messages := authenticated.Group("/messages")
		{
			messages.GET("/targets", c.Message.Targets)
			messages.GET("/:userId", c.Message.Conversation)
			messages.POST("", c.Message.Send)
		}

		notices := authenticated.Group("/notices")
		{
			notices.GET("", c.Notice.List)
			notices.POST("", staff, c.Notice.Create)
			notices.DELETE("/:id", staff, c.Notice.Delete)
		}

		reports := authenticated.Group("/reports")
		{
			reports.GET("/courses/:id/attendance.xlsx", staff, c.Report.CourseWorkbook)
			reports.GET("/courses/:id/students/:studentId/summary.pdf", c.Report.StudentPDF)
		}
	}
}
