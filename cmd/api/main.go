package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-placement-portal/config"
	_ "go-placement-portal/docs"
	v1 "go-placement-portal/internal/delivery/http/v1"
	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/repository/postgres"
	"go-placement-portal/internal/scheduler"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/database"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/redis"
	"go-placement-portal/pkg/security"
	"go-placement-portal/pkg/storage"
	"go-placement-portal/pkg/validation"

	"github.com/gin-gonic/gin"
)

// @title           Placement Portal API
// @version         1.0
// @description     Student, employee and admin portals with proctored assessments.
// @host            localhost:8080
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting placement portal", "port", cfg.Port, "env", cfg.Environment)
	secLogger := security.InitSecurityLogger("placement-portal", cfg.Environment)
	defer secLogger.Sync()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// 3. Setup Database
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DBUrl); err != nil {
			logger.Log.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
		logger.Log.Info("Migrations applied")
	}
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		logger.Log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	eventRepo := security.NewEventRepository(dbPool)
	secLogger.SetPersistFunc(eventRepo.Persist)

	// 4. Redis (optional; limiters fall back to in-process buckets)
	var redisCheck usecase.Pinger
	if err := redis.Initialize(redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword}); err != nil {
		if !errors.Is(err, redis.ErrNotConfigured) {
			logger.Log.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
		}
	} else {
		redisCheck = redis.HealthCheck
		defer redis.Close()
	}

	// 5. Object storage and email
	var fileStorage domain.FileStorage = storage.Unconfigured{}
	var storageCheck usecase.Pinger
	if s3, err := storage.NewS3Storage(ctx, cfg); err != nil {
		logger.Log.Warn("Object storage not configured - uploads will be unavailable", "error", err)
	} else {
		fileStorage = s3
		storageCheck = s3.Ping
	}

	emailService := email.NewEmailService(cfg)
	if !emailService.IsConfigured() {
		logger.Log.Warn("Email service not fully configured - notifications will be skipped")
	}

	// 6. Setup Repositories
	accountRepo := postgres.NewAccountRepository(dbPool)
	tokenRepo := postgres.NewAuthTokenRepository(dbPool)
	studentRepo := postgres.NewStudentRepository(dbPool)
	jobRepo := postgres.NewJobRepository(dbPool)
	applicationRepo := postgres.NewApplicationRepository(dbPool)
	jobInvitationRepo := postgres.NewJobInvitationRepository(dbPool)
	interviewRepo := postgres.NewInterviewRepository(dbPool)
	testRepo := postgres.NewAssessmentTestRepository(dbPool)
	invitationRepo := postgres.NewAssessmentInvitationRepository(dbPool)
	verificationRepo := postgres.NewAssessmentVerificationRepository(dbPool)
	resultRepo := postgres.NewAssessmentResultRepository(dbPool)
	adminRepo := postgres.NewAdminRepository(dbPool)

	// 7. Setup UseCases
	validate := validation.New()
	tokens := auth.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTExpiryHours)*time.Hour)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tracker := security.NewLoginTracker(security.LoginTrackerConfig{
		MaxAttempts:   cfg.FailedLoginMaxAttempts,
		AttemptWindow: time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute,
		BlockDuration: time.Duration(cfg.FailedLoginBlockMinutes) * time.Minute,
	})

	authUC := usecase.NewAuthUsecase(accountRepo, tokenRepo, tokens, hasher, tracker, emailService, cfg.BaseURL, validate)
	studentUC := usecase.NewStudentUsecase(accountRepo, studentRepo, applicationRepo, interviewRepo, fileStorage, validate)
	jobUC := usecase.NewJobUsecase(jobRepo, validate)
	applicationUC := usecase.NewApplicationUsecase(applicationRepo, jobRepo, studentRepo, emailService, validate)
	jobInvitationUC := usecase.NewJobInvitationUsecase(jobInvitationRepo, jobRepo, accountRepo, studentRepo, tokens, hasher, emailService, cfg.BaseURL, cfg.JobInvitationTTL, validate)
	interviewUC := usecase.NewInterviewUsecase(interviewRepo, applicationRepo, jobRepo, emailService, cfg.InterviewReminderWindow, validate)
	assessmentUC := usecase.NewAssessmentUsecase(testRepo, invitationRepo, verificationRepo, resultRepo, fileStorage, emailService, cfg.BaseURL, cfg.InvitationTTL, validate)
	adminUC := usecase.NewAdminUsecase(adminRepo, accountRepo, studentRepo, eventRepo)
	uploadUC := usecase.NewUploadUsecase(fileStorage)
	healthUC := usecase.NewHealthUsecase(map[string]usecase.Pinger{
		"database": dbPool.Ping,
		"redis":    redisCheck,
		"storage":  storageCheck,
	})

	// 8. Scheduler
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = scheduler.New(scheduler.Config{
			InvitationExpirySpec:  cfg.InvitationExpirySpec,
			InterviewReminderSpec: cfg.InterviewReminderSpec,
		}, assessmentUC, jobInvitationUC, interviewUC)
		if err != nil {
			logger.Log.Error("Failed to configure scheduler", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	// 9. Setup Router
	uploadLimiter := security.NewUploadLimiter(cfg.UploadsPerMinute, cfg.UploadsPerDay)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	uploadLimiter.StartCleanup(10*time.Minute, stopCleanup)

	router := v1.NewRouter(v1.RouterDeps{
		AuthUC:          authUC,
		StudentUC:       studentUC,
		JobUC:           jobUC,
		ApplicationUC:   applicationUC,
		JobInvitationUC: jobInvitationUC,
		InterviewUC:     interviewUC,
		AssessmentUC:    assessmentUC,
		AdminUC:         adminUC,
		UploadUC:        uploadUC,
		HealthUC:        healthUC,
		Tokens:          tokens,
		UploadLimiter:   uploadLimiter,
		Config:          cfg,
	})

	// 10. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
