package main

import (
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/hirestack/ats-api/api/swagger"
	"github.com/hirestack/ats-api/internal/handler"
	"github.com/hirestack/ats-api/internal/repository"
	"github.com/hirestack/ats-api/internal/service"
	"github.com/hirestack/ats-api/pkg/cache"
	"github.com/hirestack/ats-api/pkg/config"
	"github.com/hirestack/ats-api/pkg/database"
	"github.com/hirestack/ats-api/pkg/logger"
	"github.com/hirestack/ats-api/pkg/mailer"
	"github.com/hirestack/ats-api/pkg/storage"
)

// @title HireStack ATS API
// @version 1.0.0
// @description Applicant tracking API: hiring pipeline, interviews, assignments, and analytics
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	var mail mailer.Mailer = mailer.Nop{}
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTP(cfg.SMTP)
	}

	uploads, err := storage.NewUploadStore(cfg.Uploads.StorageDir, cfg.Uploads.MaxFileSizeBytes, cfg.Uploads.AllowedMIMEs)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload store", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	jobRepo := repository.NewJobRepository(db)
	candidateRepo := repository.NewCandidateRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	communicationRepo := repository.NewCommunicationRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)
	}

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ats-api",
	})
	permissionService := service.NewPermissionService(permissionRepo, userRepo, validate, logr)
	userService := service.NewUserService(userRepo, permissionService, validate, logr)
	jobService := service.NewJobService(jobRepo, validate, logr)
	candidateService := service.NewCandidateService(candidateRepo, userRepo, validate, logr)
	interviewService := service.NewInterviewService(interviewRepo, validate, logr)
	assignmentService := service.NewAssignmentService(assignmentRepo, candidateRepo, communicationRepo, userRepo, mail, validate, logr)
	taskService := service.NewTaskService(taskRepo, userRepo, mail, validate, logr)
	communicationService := service.NewCommunicationService(communicationRepo, validate, logr)
	templateService := service.NewTemplateService(templateRepo, mail, validate, logr)
	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheService, metricsService, cfg.Analytics.CacheTTL, logr)

	r := handler.NewRouter(handler.RouterDeps{
		Cfg:    cfg,
		Logger: logr,

		AuthService: authService,
		Permissions: permissionService,
		Metrics:     metricsService,
		AuditRepo:   userRepo,

		Auth:           handler.NewAuthHandler(authService),
		Users:          handler.NewUserHandler(userService, permissionService),
		Jobs:           handler.NewJobHandler(jobService),
		Candidates:     handler.NewCandidateHandler(candidateService, uploads),
		Interviews:     handler.NewInterviewHandler(interviewService),
		Assignments:    handler.NewAssignmentHandler(assignmentService, uploads),
		Tasks:          handler.NewTaskHandler(taskService),
		Communications: handler.NewCommunicationHandler(communicationService),
		Templates:      handler.NewTemplateHandler(templateService),
		Analytics:      handler.NewAnalyticsHandler(analyticsService),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
