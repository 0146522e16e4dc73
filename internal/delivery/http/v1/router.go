package v1

import (
	"go-placement-portal/config"
	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/metrics"
	"go-placement-portal/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	AuthUC          domain.AuthUsecase
	StudentUC       domain.StudentUsecase
	JobUC           domain.JobUsecase
	ApplicationUC   domain.ApplicationUsecase
	JobInvitationUC domain.JobInvitationUsecase
	InterviewUC     domain.InterviewUsecase
	AssessmentUC    domain.AssessmentUsecase
	AdminUC         domain.AdminUsecase
	UploadUC        domain.UploadUsecase
	HealthUC        domain.HealthUsecase
	Tokens          *auth.TokenService
	UploadLimiter   *security.UploadLimiter
	Config          *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	// CORS must be first so preflights never hit the rate limiter
	r.Use(middleware.CORSMiddleware(middleware.AllowedOrigins(cfg.BaseURL, cfg.IsProduction())))
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	if cfg.MetricsEnabled {
		r.Use(metrics.GinMiddleware())
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(cfg)))
	r.Use(middleware.CSRFMiddleware(cfg.CookieSecure, cfg.CookieDomain))

	loginLimit := middleware.RateLimitMiddleware(middleware.LoginRateLimitConfig(cfg))
	uploadLimit := middleware.UploadRateLimitMiddleware(deps.UploadLimiter)

	v1 := r.Group("/v1")
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	NewHealthHandler(v1, deps.HealthUC)

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.Tokens, deps.AuthUC))

	students := protected.Group("")
	students.Use(middleware.RequireRoles(domain.RoleStudent))

	staff := protected.Group("")
	staff.Use(middleware.RequireRoles(domain.RoleEmployee, domain.RoleAdmin))

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(domain.RoleAdmin))

	NewAuthHandler(v1, protected, deps.AuthUC, cfg, loginLimit)
	NewStudentHandler(students, deps.StudentUC, uploadLimit)
	NewJobHandler(v1, staff, deps.JobUC)
	NewApplicationHandler(students, staff, deps.ApplicationUC)
	NewJobInvitationHandler(v1, staff, deps.JobInvitationUC, cfg, loginLimit)
	NewInterviewHandler(staff, deps.InterviewUC)
	NewAssessmentHandler(v1, staff, deps.AssessmentUC, uploadLimit)
	NewAdminHandler(admin, deps.AdminUC)
	NewUploadHandler(protected, deps.UploadUC, uploadLimit)

	return r
}
