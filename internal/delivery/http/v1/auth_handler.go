package v1

import (
	"net/http"
	"time"

	"go-placement-portal/config"
	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authUC domain.AuthUsecase
	config *config.Config
}

func NewAuthHandler(public, protected *gin.RouterGroup, authUC domain.AuthUsecase, cfg *config.Config, loginLimit gin.HandlerFunc) {
	handler := &AuthHandler{
		authUC: authUC,
		config: cfg,
	}

	publicAuth := public.Group("/auth")
	{
		publicAuth.POST("/login", loginLimit, handler.Login)
		publicAuth.POST("/register/student", loginLimit, handler.RegisterStudent)
		publicAuth.POST("/register/employee", loginLimit, handler.RegisterEmployee)
		publicAuth.POST("/logout", handler.Logout)
		publicAuth.GET("/verify-email", handler.VerifyEmail)
		publicAuth.POST("/forgot-password", loginLimit, handler.ForgotPassword)
		publicAuth.POST("/reset-password", loginLimit, handler.ResetPassword)
	}

	protectedAuth := protected.Group("/auth")
	{
		protectedAuth.GET("/me", handler.Me)
		protectedAuth.POST("/totp/setup", middleware.RequireRoles(domain.RoleAdmin), handler.SetupTOTP)
		protectedAuth.POST("/totp/confirm", middleware.RequireRoles(domain.RoleAdmin), handler.ConfirmTOTP)
	}
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type TOTPConfirmRequest struct {
	Code string `json:"code" binding:"required"`
}

// RegisterStudent godoc
// @Summary      Register a student
// @Description  Creates a student account and profile, then emails a verification link.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        register  body      domain.RegisterStudentRequest  true  "Student details"
// @Success      201       {object}  response.Response
// @Failure      400       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /auth/register/student [post]
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req domain.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	acc, err := h.authUC.RegisterStudent(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Registration successful. Please check your email to verify your account.", acc)
}

// RegisterEmployee godoc
// @Summary      Register an employee
// @Description  Creates an employee account that must be verified and approved by an admin before login.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        register  body      domain.RegisterEmployeeRequest  true  "Employee details"
// @Success      201       {object}  response.Response
// @Failure      400       {object}  response.Response
// @Failure      409       {object}  response.Response
// @Router       /auth/register/employee [post]
func (h *AuthHandler) RegisterEmployee(c *gin.Context) {
	var req domain.RegisterEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}

	acc, err := h.authUC.RegisterEmployee(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusCreated, "Registration successful. Your account is awaiting approval.", acc)
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials (and a TOTP code for admins who enabled it) and sets the auth_token cookie.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        login  body      domain.LoginRequest  true  "Credentials"
// @Success      200    {object}  response.Response
// @Failure      401    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Failure      429    {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Email and password are required"))
		return
	}

	session, err := h.authUC.Login(c.Request.Context(), req, requestMeta(c))
	if err != nil {
		c.Error(err)
		return
	}

	setSessionCookie(c, h.config, session.Token, session.ExpiresAt)
	response.Success(c, http.StatusOK, "Login successful", session)
}

// Logout godoc
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	setSessionCookie(c, h.config, "", time.Time{})
	response.Success(c, http.StatusOK, "Logged out", nil)
}

// VerifyEmail godoc
// @Summary      Verify email address
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  response.Response
// @Failure      400    {object}  response.Response
// @Failure      410    {object}  response.Response
// @Router       /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.Error(apperror.BadRequest("Verification token is required"))
		return
	}
	if err := h.authUC.VerifyEmail(c.Request.Context(), token); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Email verified successfully", nil)
}

// ForgotPassword godoc
// @Summary      Request a password reset link
// @Description  Always succeeds so that registered emails cannot be enumerated.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      ForgotPasswordRequest  true  "Email"
// @Success      200      {object}  response.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Email is required"))
		return
	}
	if err := h.authUC.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "If an account exists for this email, a reset link has been sent.", nil)
}

// ResetPassword godoc
// @Summary      Reset password with an emailed token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      ResetPasswordRequest  true  "Token and new password"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      410      {object}  response.Response
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest(err.Error()))
		return
	}
	if err := h.authUC.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Password has been reset. You can now log in.", nil)
}

// Me godoc
// @Summary      Get the current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authUC.GetCurrentUser(c.Request.Context(), c.GetString(string(domain.KeyUserID)))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Current user", user)
}

// SetupTOTP godoc
// @Summary      Start two-factor enrollment
// @Description  Returns a TOTP secret and otpauth URL. Admin only.
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /auth/totp/setup [post]
func (h *AuthHandler) SetupTOTP(c *gin.Context) {
	enrollment, err := h.authUC.SetupTOTP(c.Request.Context(), middleware.CurrentActor(c))
	if err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Scan the code with your authenticator app, then confirm", enrollment)
}

// ConfirmTOTP godoc
// @Summary      Confirm two-factor enrollment
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      TOTPConfirmRequest  true  "Current code"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Router       /auth/totp/confirm [post]
func (h *AuthHandler) ConfirmTOTP(c *gin.Context) {
	var req TOTPConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.BadRequest("Code is required"))
		return
	}
	if err := h.authUC.ConfirmTOTP(c.Request.Context(), middleware.CurrentActor(c), req.Code); err != nil {
		c.Error(err)
		return
	}
	response.Success(c, http.StatusOK, "Two-factor authentication enabled", nil)
}
