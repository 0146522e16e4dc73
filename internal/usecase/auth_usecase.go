package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/email"
	"go-placement-portal/pkg/logger"
	"go-placement-portal/pkg/security"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	emailVerifyTTL   = 24 * time.Hour
	passwordResetTTL = time.Hour
)

type authUsecase struct {
	accountRepo domain.AccountRepository
	tokenRepo   domain.AuthTokenRepository
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	tracker     *security.LoginTracker
	notifier    notifier
	baseURL     string
	validate    *validator.Validate
}

func NewAuthUsecase(
	accountRepo domain.AccountRepository,
	tokenRepo domain.AuthTokenRepository,
	tokens *auth.TokenService,
	hasher *auth.PasswordHasher,
	tracker *security.LoginTracker,
	mailer domain.Mailer,
	baseURL string,
	validate *validator.Validate,
) domain.AuthUsecase {
	return &authUsecase{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		tokens:      tokens,
		hasher:      hasher,
		tracker:     tracker,
		notifier:    notifier{mailer: mailer},
		baseURL:     baseURL,
		validate:    validate,
	}
}

func (uc *authUsecase) RegisterStudent(ctx context.Context, req domain.RegisterStudentRequest) (*domain.Account, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	acc, err := uc.newAccount(ctx, req.Email, req.Password, req.FullName, domain.RoleStudent)
	if err != nil {
		return nil, err
	}
	acc.Phone = req.Phone
	acc.IsApproved = true

	profile := &domain.StudentProfile{
		RollNumber:     req.RollNumber,
		College:        req.College,
		Branch:         req.Branch,
		GraduationYear: req.GraduationYear,
		Skills:         []string{},
		UpdatedAt:      acc.CreatedAt,
	}
	if err := uc.accountRepo.CreateStudent(ctx, acc, profile); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, apperror.Conflict("An account with this email already exists")
		}
		return nil, apperror.Internal(err)
	}

	uc.sendVerification(ctx, acc)
	return acc, nil
}

func (uc *authUsecase) RegisterEmployee(ctx context.Context, req domain.RegisterEmployeeRequest) (*domain.Account, error) {
	if err := uc.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	acc, err := uc.newAccount(ctx, req.Email, req.Password, req.FullName, domain.RoleEmployee)
	if err != nil {
		return nil, err
	}
	acc.Phone = req.Phone
	acc.Organization = req.Organization
	acc.Designation = req.Designation

	if err := uc.accountRepo.Create(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, apperror.Conflict("An account with this email already exists")
		}
		return nil, apperror.Internal(err)
	}

	uc.sendVerification(ctx, acc)
	return acc, nil
}

func (uc *authUsecase) newAccount(ctx context.Context, rawEmail, password, fullName, role string) (*domain.Account, error) {
	addr := normalizeEmail(rawEmail)
	if _, err := uc.accountRepo.GetByEmail(ctx, addr); err == nil {
		return nil, apperror.Conflict("An account with this email already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.Internal(err)
	}

	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := time.Now().UTC()
	return &domain.Account{
		ID:           uuid.NewString(),
		Email:        addr,
		PasswordHash: hash,
		Role:         role,
		FullName:     fullName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (uc *authUsecase) Login(ctx context.Context, req domain.LoginRequest, meta domain.RequestMeta) (*domain.Session, error) {
	addr := normalizeEmail(req.Email)

	blocked, remaining, err := uc.tracker.IsBlocked(ctx, addr)
	if err != nil {
		logger.Log.Warn("Login block check failed", "error", err)
	}
	if blocked {
		minutes := int(remaining.Minutes()) + 1
		return nil, apperror.TooManyRequests(fmt.Sprintf("Too many failed login attempts. Try again in %d minutes.", minutes))
	}

	acc, err := uc.accountRepo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, uc.loginFailed(ctx, addr, meta)
		}
		return nil, apperror.Internal(err)
	}
	if !uc.hasher.Verify(acc.PasswordHash, req.Password) {
		return nil, uc.loginFailed(ctx, addr, meta)
	}

	if acc.TOTPEnabled {
		if req.TOTPCode == "" {
			return nil, apperror.Unauthorized("Two-factor code required")
		}
		if !auth.ValidateTOTP(req.TOTPCode, acc.TOTPSecret) {
			return nil, uc.loginFailed(ctx, addr, meta)
		}
	}

	switch {
	case !acc.IsActive:
		return nil, apperror.Forbidden("Your account has been disabled")
	case acc.Role != domain.RoleAdmin && !acc.EmailVerified:
		return nil, apperror.Forbidden("Please verify your email before logging in")
	case acc.Role == domain.RoleEmployee && !acc.IsApproved:
		return nil, apperror.Forbidden("Your account is awaiting admin approval")
	}

	if err := uc.tracker.ClearAttempts(ctx, addr); err != nil {
		logger.Log.Warn("Failed to clear login attempts", "error", err)
	}

	session, err := issueSession(uc.tokens, acc)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uc.accountRepo.TouchLastLogin(ctx, acc.ID, time.Now().UTC()); err != nil {
		logger.Log.Warn("Failed to record last login", "account_id", acc.ID, "error", err)
	}

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventLoginSuccess,
		SubjectType:  "user_id",
		SubjectValue: acc.ID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		RequestID:    meta.RequestID,
	})
	return session, nil
}

// loginFailed counts the attempt and returns the same 401 for every cause.
func (uc *authUsecase) loginFailed(ctx context.Context, addr string, meta domain.RequestMeta) error {
	if blocked, _, err := uc.tracker.RecordFailedAttempt(ctx, addr, meta.IP, meta.RequestID); err != nil {
		logger.Log.Warn("Failed to record login attempt", "error", err)
	} else if blocked {
		return apperror.TooManyRequests("Too many failed login attempts. Please try again later.")
	}
	return apperror.Unauthorized("Invalid email or password")
}

func issueSession(tokens *auth.TokenService, acc *domain.Account) (*domain.Session, error) {
	token, expiresAt, err := tokens.Generate(acc.ID, acc.Email, acc.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Session{Token: token, ExpiresAt: expiresAt, Account: acc}, nil
}

func (uc *authUsecase) issueToken(ctx context.Context, acc *domain.Account, purpose string, ttl time.Duration) (string, error) {
	token := auth.NewOpaqueToken()
	err := uc.tokenRepo.Create(ctx, &domain.AuthToken{
		TokenHash: auth.HashToken(token),
		AccountID: acc.ID,
		Purpose:   purpose,
		ExpiresAt: time.Now().UTC().Add(ttl),
	})
	return token, err
}

func (uc *authUsecase) sendVerification(ctx context.Context, acc *domain.Account) {
	token, err := uc.issueToken(ctx, acc, domain.TokenPurposeEmailVerify, emailVerifyTTL)
	if err != nil {
		logger.Log.Error("Failed to create verification token", "account_id", acc.ID, "error", err)
		return
	}
	uc.notifier.notify(ctx, acc.Email, "Verify your email", email.TemplateVerifyEmail, map[string]any{
		"Name":      acc.FullName,
		"Link":      uc.baseURL + "/verify-email?token=" + url.QueryEscape(token),
		"ExpiresIn": "24 hours",
	})
}

// consumeToken checks a single-use token and marks it used.
func (uc *authUsecase) consumeToken(ctx context.Context, token, purpose, label string) (*domain.AuthToken, error) {
	if token == "" {
		return nil, apperror.BadRequest(fmt.Sprintf("Invalid %s link", label))
	}
	t, err := uc.tokenRepo.Get(ctx, auth.HashToken(token), purpose)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid %s link", label))
		}
		return nil, apperror.Internal(err)
	}
	if t.UsedAt != nil {
		return nil, apperror.BadRequest(fmt.Sprintf("This %s link has already been used", label))
	}
	now := time.Now().UTC()
	if !now.Before(t.ExpiresAt) {
		return nil, apperror.Gone(fmt.Sprintf("This %s link has expired", label))
	}
	if err := uc.tokenRepo.MarkUsed(ctx, t.TokenHash, now); err != nil {
		if errors.Is(err, domain.ErrStateChanged) {
			return nil, apperror.BadRequest(fmt.Sprintf("This %s link has already been used", label))
		}
		return nil, apperror.Internal(err)
	}
	return t, nil
}

func (uc *authUsecase) VerifyEmail(ctx context.Context, token string) error {
	t, err := uc.consumeToken(ctx, token, domain.TokenPurposeEmailVerify, "verification")
	if err != nil {
		return err
	}
	if err := uc.accountRepo.MarkEmailVerified(ctx, t.AccountID); err != nil {
		return repoError(err, "Account not found")
	}
	return nil
}

func (uc *authUsecase) ForgotPassword(ctx context.Context, rawEmail string) error {
	acc, err := uc.accountRepo.GetByEmail(ctx, normalizeEmail(rawEmail))
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Log.Error("Password reset lookup failed", "error", err)
		}
		return nil
	}
	if !acc.IsActive {
		return nil
	}

	token, err := uc.issueToken(ctx, acc, domain.TokenPurposePasswordReset, passwordResetTTL)
	if err != nil {
		logger.Log.Error("Failed to create reset token", "account_id", acc.ID, "error", err)
		return nil
	}
	uc.notifier.notify(ctx, acc.Email, "Reset your password", email.TemplatePasswordReset, map[string]any{
		"Name": acc.FullName,
		"Link": uc.baseURL + "/reset-password?token=" + url.QueryEscape(token),
	})
	return nil
}

func (uc *authUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := uc.validate.Var(newPassword, "required,min=8,max=72"); err != nil {
		return apperror.BadRequest("Password must be between 8 and 72 characters")
	}
	t, err := uc.consumeToken(ctx, token, domain.TokenPurposePasswordReset, "password reset")
	if err != nil {
		return err
	}

	hash, err := uc.hasher.Hash(newPassword)
	if err != nil {
		return apperror.Internal(err)
	}
	if err := uc.accountRepo.UpdatePassword(ctx, t.AccountID, hash); err != nil {
		return repoError(err, "Account not found")
	}

	security.DefaultLogger().Log(ctx, security.SecurityEvent{
		Event:        security.EventPasswordReset,
		SubjectType:  "user_id",
		SubjectValue: t.AccountID,
	})
	return nil
}

func (uc *authUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.Account, error) {
	acc, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, "User not found")
	}
	return acc, nil
}

func (uc *authUsecase) SetupTOTP(ctx context.Context, actor domain.Actor) (*auth.TOTPEnrollment, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Two-factor setup is available to admins only")
	}
	acc, err := uc.accountRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, repoError(err, "User not found")
	}
	if acc.TOTPEnabled {
		return nil, apperror.Conflict("Two-factor authentication is already enabled")
	}

	enrollment, err := auth.GenerateTOTP(acc.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := uc.accountRepo.SetTOTP(ctx, acc.ID, enrollment.Secret, false); err != nil {
		return nil, apperror.Internal(err)
	}
	return enrollment, nil
}

func (uc *authUsecase) ConfirmTOTP(ctx context.Context, actor domain.Actor, code string) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("Two-factor setup is available to admins only")
	}
	acc, err := uc.accountRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return repoError(err, "User not found")
	}
	if acc.TOTPSecret == "" {
		return apperror.BadRequest("Start two-factor setup first")
	}
	if !auth.ValidateTOTP(code, acc.TOTPSecret) {
		return apperror.BadRequest("Invalid two-factor code")
	}
	if err := uc.accountRepo.SetTOTP(ctx, acc.ID, acc.TOTPSecret, true); err != nil {
		return apperror.Internal(err)
	}
	return nil
}
