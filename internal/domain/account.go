package domain

import (
	"context"
	"time"

	"go-placement-portal/pkg/auth"
)

const (
	RoleStudent  = "student"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

const (
	TokenPurposeEmailVerify   = "email_verify"
	TokenPurposePasswordReset = "password_reset"
)

type Account struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          string     `json:"role"`
	FullName      string     `json:"full_name"`
	Phone         string     `json:"phone,omitempty"`
	Organization  string     `json:"organization,omitempty"`
	Designation   string     `json:"designation,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	IsApproved    bool       `json:"is_approved"`
	IsActive      bool       `json:"is_active"`
	TOTPSecret    string     `json:"-"`
	TOTPEnabled   bool       `json:"totp_enabled"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AuthToken is a single-use emailed token stored by hash.
type AuthToken struct {
	TokenHash string
	AccountID string
	Purpose   string
	ExpiresAt time.Time
	UsedAt    *time.Time
}

type AccountFilter struct {
	Role     string
	Status   string // "pending", "active", "inactive"
	Query    string
	Page     int
	PageSize int
}

type RegisterStudentRequest struct {
	FullName       string `json:"full_name" validate:"required,min=2,max=100,valid_name,no_emoji"`
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	Phone          string `json:"phone" validate:"omitempty,valid_phone"`
	RollNumber     string `json:"roll_number" validate:"max=50"`
	College        string `json:"college" validate:"max=150"`
	Branch         string `json:"branch" validate:"max=100"`
	GraduationYear int    `json:"graduation_year" validate:"omitempty,gte=1980,max_current_year=6"`
}

type RegisterEmployeeRequest struct {
	FullName     string `json:"full_name" validate:"required,min=2,max=100,valid_name,no_emoji"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Phone        string `json:"phone" validate:"omitempty,valid_phone"`
	Organization string `json:"organization" validate:"required,min=2,max=150"`
	Designation  string `json:"designation" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code"`
}

// RequestMeta carries caller details for audit logging.
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"account"`
}

type AccountRepository interface {
	Create(ctx context.Context, acc *Account) error
	// CreateStudent inserts the account and its profile together.
	CreateStudent(ctx context.Context, acc *Account, profile *StudentProfile) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetApproved(ctx context.Context, id string, approved bool) error
	SetActive(ctx context.Context, id string, active bool) error
	SetTOTP(ctx context.Context, id, secret string, enabled bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, filter AccountFilter) ([]Account, int64, error)
}

type AuthTokenRepository interface {
	Create(ctx context.Context, t *AuthToken) error
	Get(ctx context.Context, tokenHash, purpose string) (*AuthToken, error)
	// MarkUsed fails with ErrStateChanged if the token was already used.
	MarkUsed(ctx context.Context, tokenHash string, at time.Time) error
}

type AuthUsecase interface {
	RegisterStudent(ctx context.Context, req RegisterStudentRequest) (*Account, error)
	RegisterEmployee(ctx context.Context, req RegisterEmployeeRequest) (*Account, error)
	Login(ctx context.Context, req LoginRequest, meta RequestMeta) (*Session, error)
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	GetCurrentUser(ctx context.Context, id string) (*Account, error)
	SetupTOTP(ctx context.Context, actor Actor) (*auth.TOTPEnrollment, error)
	ConfirmTOTP(ctx context.Context, actor Actor, code string) error
}
