package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/rollcall/internal/app/auth"
	appControllers "github.com/yigit/rollcall/internal/app/controllers"
	appMigrations "github.com/yigit/rollcall/internal/app/migrations"
	appRepos "github.com/yigit/rollcall/internal/app/repositories"
	appRoutes "github.com/yigit/rollcall/internal/app/routes"
	appServices "github.com/yigit/rollcall/internal/app/services"
	"github.com/yigit/rollcall/internal/config"
	"github.com/yigit/rollcall/internal/db"
	"github.com/yigit/rollcall/internal/domain/attendance"
	"github.com/yigit/rollcall/internal/domain/schedule"
	appMiddleware "github.com/yigit/rollcall/internal/middleware"
	pkgAuth "github.com/yigit/rollcall/internal/pkg/auth"
	"github.com/yigit/rollcall/internal/pkg/logger"
	"github.com/yigit/rollcall/internal/pkg/metrics"
	"github.com/yigit/rollcall/internal/pkg/websocket"
	"github.com/yigit/rollcall/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos *appRepos.Repositories

	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Metrics      *metrics.Metrics
	Hub          *websocket.Hub

	SettingsService     *appServices.SettingsService
	AuditService        *appServices.AuditService
	NotificationService *appServices.NotificationService
	AuthService         *appServices.AuthService
	UserService         *appServices.UserService
	DepartmentService   *appServices.DepartmentService
	CalendarService     *appServices.CalendarService
	CourseService       *appServices.CourseService
	SessionService      *appServices.SessionService
	AttendanceService   *appServices.AttendanceService
	EnrollmentService   *appServices.EnrollmentService
	ExcuseService       *appServices.ExcuseService
	VoteService         *appServices.VoteService
	MessageService      *appServices.MessageService
	NoticeService       *appServices.NoticeService
	ReportService       *appServices.ReportService

	Controllers      *appRoutes.Controllers
	AuthMiddleware   *appMiddleware.AuthMiddleware
	WebsocketHandler *websocket.Handler
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logConfig := logger.Config{
		Level:  logLevel,
		Pretty: cfg.Logging.Pretty,
	}
	if cfg.Logging.File != "" {
		logConfig.File = &logger.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		}
	}
	logger.Configure(logConfig)

	lgr := logger.Get()
	lgr.Info().
		Str("logLevel", string(logLevel)).
		Bool("pretty", cfg.Logging.Pretty).
		Str("logFile", cfg.Logging.File).
		Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and,
// when enabled, seeds the default data.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	dbPool, err := db.NewPostgresPool(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	ctx := context.Background()
	if err := RunMigrations(ctx, dbPool, cfg.Database.MigrationsDir, lgr); err != nil {
		dbPool.Close()
		return nil, err
	}

	if cfg.Database.Seed {
		if err := seed.CreateDefaultData(ctx, appRepos.NewRepositories(dbPool), lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return dbPool, nil
}

// RunMigrations applies the pending migrations found in dir
func RunMigrations(ctx context.Context, dbPool *pgxpool.Pool, dir string, lgr zerolog.Logger) error {
	lgr.Info().Str("dir", dir).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(dbPool).MigrateFromDirectory(ctx, dir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}
	repos := appRepos.NewRepositories(dbPool)
	deps.Repos = repos

	deps.Metrics = metrics.New()
	deps.Hub = websocket.NewHub(deps.Metrics, lgr.With().Str("component", "websocket").Logger())

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  config.Duration(cfg.JWT.AccessTokenExpiration),
		RefreshTokenExp: config.Duration(cfg.JWT.RefreshTokenExpiration),
		TokenIssuer:     cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(repos.CourseRepository, repos.EnrollmentRepository)

	// Cross-cutting services first: most of the domain services consume them.
	deps.SettingsService = appServices.NewSettingsService(repos.SettingRepository, appServices.SettingsDefaults{
		Policy: attendance.Policy{
			LatesPerAbsence: cfg.Attendance.LatesPerAbsence,
			WarnAbsences:    cfg.Attendance.WarnAbsences,
			DangerAbsences:  cfg.Attendance.DangerAbsences,
			MinRate:         cfg.Attendance.MinRate,
		},
		OpenMinutes: cfg.Attendance.OpenMinutes,
	}, config.Duration(cfg.Attendance.SettingsTTL))
	deps.AuditService = appServices.NewAuditService(repos.AuditRepository, deps.SettingsService)
	deps.NotificationService = appServices.NewNotificationService(repos.NotificationRepository, deps.Hub, deps.SettingsService)

	deps.AuthService = appServices.NewAuthService(repos.UserRepository, repos.TokenRepository, deps.JWTService, deps.AuditService)
	deps.UserService = appServices.NewUserService(repos.UserRepository, repos.TokenRepository, deps.AuditService)
	deps.DepartmentService = appServices.NewDepartmentService(repos.DepartmentRepository)
	deps.CalendarService = appServices.NewCalendarService(repos.SemesterRepository, repos.HolidayRepository)

	deps.CourseService = appServices.NewCourseService(
		repos.CourseRepository,
		repos.UserRepository,
		deps.CalendarService,
		schedule.NewGenerator(schedule.RandomCode),
		deps.AuthzService,
		deps.AuditService,
		cfg.Attendance.CourseLength,
	)
	deps.SessionService = appServices.NewSessionService(
		repos.SessionRepository,
		repos.EnrollmentRepository,
		deps.AuthzService,
		deps.SettingsService,
		deps.NotificationService,
		deps.Hub,
		deps.AuditService,
		appServices.SessionConfig{
			PublicBaseURL: cfg.Server.PublicBaseURL,
			Codes:         schedule.RandomCode,
			Metrics:       deps.Metrics,
		},
	)
	deps.AttendanceService = appServices.NewAttendanceService(
		repos.AttendanceRepository,
		repos.SessionRepository,
		repos.CourseRepository,
		repos.EnrollmentRepository,
		deps.AuthzService,
		deps.SettingsService,
		deps.NotificationService,
		deps.AuditService,
		deps.Metrics,
	)
	deps.EnrollmentService = appServices.NewEnrollmentService(repos.EnrollmentRepository, repos.UserRepository, deps.AuthzService, deps.AuditService)
	deps.ExcuseService = appServices.NewExcuseService(
		repos.ExcuseRepository,
		repos.SessionRepository,
		deps.AuthzService,
		deps.SettingsService,
		deps.NotificationService,
		deps.AuditService,
	)
	deps.VoteService = appServices.NewVoteService(repos.VoteRepository, repos.EnrollmentRepository, deps.AuthzService, deps.SettingsService, deps.NotificationService)
	deps.MessageService = appServices.NewMessageService(repos.MessageRepository, repos.UserRepository, deps.NotificationService)
	deps.NoticeService = appServices.NewNoticeService(repos.NoticeRepository, repos.EnrollmentRepository, repos.UserRepository, deps.AuthzService, deps.NotificationService)
	deps.ReportService = appServices.NewReportService(
		repos.ReportRepository,
		appServices.StatsSources{
			Users:    repos.UserRepository,
			Sessions: repos.SessionRepository,
			Marks:    repos.AttendanceRepository,
			Excuses:  repos.ExcuseRepository,
			Audit:    repos.AuditRepository,
		},
		repos.CourseRepository,
		repos.SessionRepository,
		repos.AttendanceRepository,
		repos.EnrollmentRepository,
		repos.UserRepository,
		deps.AuthzService,
		deps.SettingsService,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.WebsocketHandler = websocket.NewHandler(deps.Hub, deps.AuthzService, cfg.Server.AllowedOrigins, lgr.With().Str("component", "websocket").Logger())

	deps.Controllers = &appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.AuthService, lgr),
		User:         appControllers.NewUserController(deps.UserService),
		Department:   appControllers.NewDepartmentController(deps.DepartmentService),
		Calendar:     appControllers.NewCalendarController(deps.CalendarService),
		Admin:        appControllers.NewAdminController(deps.SettingsService, deps.AuditService, deps.ReportService, lgr),
		Course:       appControllers.NewCourseController(deps.CourseService),
		Session:      appControllers.NewSessionController(deps.SessionService),
		Attendance:   appControllers.NewAttendanceController(deps.AttendanceService, lgr),
		Enrollment:   appControllers.NewEnrollmentController(deps.EnrollmentService),
		Excuse:       appControllers.NewExcuseController(deps.ExcuseService),
		Vote:         appControllers.NewVoteController(deps.VoteService),
		Notification: appControllers.NewNotificationController(deps.NotificationService),
		Message:      appControllers.NewMessageController(deps.MessageService),
		Notice:       appControllers.NewNoticeController(deps.NoticeService),
		Report:       appControllers.NewReportController(deps.ReportService),
		Health:       appControllers.NewHealthController(dbPool),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	if err := appMiddleware.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(), appMiddleware.CORS(cfg.Server.AllowedOrigins))

	if cfg.Metrics.Enabled {
		router.Use(appMiddleware.Metrics(deps.Metrics))
		router.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
		lgr.Info().Str("path", cfg.Metrics.Path).Msg("Prometheus metrics enabled")
	}

	if !cfg.IsProduction() {
		appRoutes.SetupSwagger(router)
	}

	appRoutes.SetupRouter(router,
		deps.Controllers,
		deps.AuthMiddleware,
		deps.SettingsService,
		deps.WebsocketHandler.HandleConnection,
	)

	return router, nil
}
