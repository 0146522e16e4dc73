package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go-placement-portal/internal/domain"
	"go-placement-portal/internal/usecase"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/security"
	"go-placement-portal/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	accounts *MockAccountRepo
	tokens   *MockAuthTokenRepo
	mailer   *MockMailer
	hasher   *auth.PasswordHasher
	uc       domain.AuthUsecase
}

func newAuthFixture(maxAttempts int) *authFixture {
	f := &authFixture{
		accounts: new(MockAccountRepo),
		tokens:   new(MockAuthTokenRepo),
		mailer:   new(MockMailer),
		hasher:   auth.NewPasswordHasher(10),
	}
	tracker := security.NewLoginTracker(security.LoginTrackerConfig{
		MaxAttempts:   maxAttempts,
		AttemptWindow: time.Minute,
		BlockDuration: time.Minute,
	})
	f.uc = usecase.NewAuthUsecase(
		f.accounts,
		f.tokens,
		auth.NewTokenService("test-secret", time.Hour),
		f.hasher,
		tracker,
		f.mailer,
		"http://localhost:3000",
		validation.New(),
	)
	return f
}

func (f *authFixture) account(t *testing.T, role, password string) *domain.Account {
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return &domain.Account{
		ID:            "acc-1",
		Email:         "asha@example.com",
		PasswordHash:  hash,
		Role:          role,
		FullName:      "Asha Verma",
		EmailVerified: true,
		IsApproved:    true,
		IsActive:      true,
	}
}

func errorCode(t *testing.T, err error) int {
	t.Helper()
	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.Code
}

func TestAuthUsecase_Login(t *testing.T) {
	ctx := context.Background()
	meta := domain.RequestMeta{IP: "127.0.0.1"}

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(5)
		acc := f.account(t, domain.RoleStudent, "s3cret-pass")
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)
		f.accounts.On("TouchLastLogin", ctx, "acc-1", mock.AnythingOfType("time.Time")).Return(nil)

		session, err := f.uc.Login(ctx, domain.LoginRequest{Email: " Asha@Example.com ", Password: "s3cret-pass"}, meta)

		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)
		assert.Equal(t, "acc-1", session.Account.ID)
		assert.True(t, session.ExpiresAt.After(time.Now()))
		f.accounts.AssertExpectations(t)
	})

	t.Run("Wrong password and unknown email look the same", func(t *testing.T) {
		f := newAuthFixture(5)
		acc := f.account(t, domain.RoleStudent, "s3cret-pass")
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)
		f.accounts.On("GetByEmail", ctx, "nobody@example.com").Return(nil, domain.ErrNotFound)

		_, errWrong := f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "wrong-pass"}, meta)
		_, errUnknown := f.uc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "wrong-pass"}, meta)

		assert.Equal(t, http.StatusUnauthorized, errorCode(t, errWrong))
		assert.Equal(t, http.StatusUnauthorized, errorCode(t, errUnknown))
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
		f.accounts.AssertNotCalled(t, "TouchLastLogin", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Blocked after repeated failures", func(t *testing.T) {
		f := newAuthFixture(2)
		acc := f.account(t, domain.RoleStudent, "s3cret-pass")
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)

		req := domain.LoginRequest{Email: "asha@example.com", Password: "wrong-pass"}
		_, err := f.uc.Login(ctx, req, meta)
		assert.Equal(t, http.StatusUnauthorized, errorCode(t, err))

		_, err = f.uc.Login(ctx, req, meta)
		assert.Equal(t, http.StatusTooManyRequests, errorCode(t, err))

		// Even the right password is refused while blocked.
		_, err = f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"}, meta)
		assert.Equal(t, http.StatusTooManyRequests, errorCode(t, err))
	})

	t.Run("Unverified student", func(t *testing.T) {
		f := newAuthFixture(5)
		acc := f.account(t, domain.RoleStudent, "s3cret-pass")
		acc.EmailVerified = false
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)

		_, err := f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"}, meta)
		assert.Equal(t, http.StatusForbidden, errorCode(t, err))
	})

	t.Run("Unapproved employee", func(t *testing.T) {
		f := newAuthFixture(5)
		acc := f.account(t, domain.RoleEmployee, "s3cret-pass")
		acc.IsApproved = false
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)

		_, err := f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"}, meta)
		assert.Equal(t, http.StatusForbidden, errorCode(t, err))
		assert.Contains(t, err.Error(), "approval")
	})

	t.Run("Disabled account", func(t *testing.T) {
		f := newAuthFixture(5)
		acc := f.account(t, domain.RoleStudent, "s3cret-pass")
		acc.IsActive = false
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)

		_, err := f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"}, meta)
		assert.Equal(t, http.StatusForbidden, errorCode(t, err))
	})

	t.Run("TOTP required for enrolled admin", func(t *testing.T) {
		f := newAuthFixture(5)
		acc := f.account(t, domain.RoleAdmin, "s3cret-pass")
		acc.TOTPEnabled = true
		acc.TOTPSecret = "JBSWY3DPEHPK3PXP"
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(acc, nil)

		_, err := f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass"}, meta)
		assert.Equal(t, http.StatusUnauthorized, errorCode(t, err))
		assert.Contains(t, err.Error(), "Two-factor")

		_, err = f.uc.Login(ctx, domain.LoginRequest{Email: "asha@example.com", Password: "s3cret-pass", TOTPCode: "000000x"}, meta)
		assert.Equal(t, http.StatusUnauthorized, errorCode(t, err))
	})
}

func TestAuthUsecase_RegisterStudent(t *testing.T) {
	ctx := context.Background()
	req := domain.RegisterStudentRequest{
		FullName: "Asha Verma",
		Email:    "Asha@Example.com",
		Password: "s3cret-pass",
		College:  "Government Engineering College",
	}

	t.Run("Success sends verification", func(t *testing.T) {
		f := newAuthFixture(5)
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(nil, domain.ErrNotFound)
		f.accounts.On("CreateStudent", ctx, mock.AnythingOfType("*domain.Account"), mock.AnythingOfType("*domain.StudentProfile")).Return(nil)
		f.tokens.On("Create", ctx, mock.MatchedBy(func(tok *domain.AuthToken) bool {
			return tok.Purpose == domain.TokenPurposeEmailVerify && tok.TokenHash != ""
		})).Return(nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(nil)

		acc, err := f.uc.RegisterStudent(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", acc.Email)
		assert.Equal(t, domain.RoleStudent, acc.Role)
		assert.False(t, acc.EmailVerified)
		assert.NotEqual(t, req.Password, acc.PasswordHash)
		f.mailer.AssertNumberOfCalls(t, "Send", 1)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newAuthFixture(5)
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(&domain.Account{ID: "acc-1"}, nil)

		_, err := f.uc.RegisterStudent(ctx, req)

		assert.Equal(t, http.StatusConflict, errorCode(t, err))
		f.accounts.AssertNotCalled(t, "CreateStudent", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid input", func(t *testing.T) {
		f := newAuthFixture(5)
		bad := req
		bad.Email = "not-an-email"
		bad.Password = "short"

		_, err := f.uc.RegisterStudent(ctx, bad)

		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	})

	t.Run("Mail failure does not fail registration", func(t *testing.T) {
		f := newAuthFixture(5)
		f.accounts.On("GetByEmail", ctx, "asha@example.com").Return(nil, domain.ErrNotFound)
		f.accounts.On("CreateStudent", ctx, mock.Anything, mock.Anything).Return(nil)
		f.tokens.On("Create", ctx, mock.Anything).Return(nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(errors.New("smtp down"))

		_, err := f.uc.RegisterStudent(ctx, req)
		assert.NoError(t, err)
	})
}

func TestAuthUsecase_VerifyEmail(t *testing.T) {
	ctx := context.Background()
	hash := auth.HashToken("raw-token")

	t.Run("Expired link", func(t *testing.T) {
		f := newAuthFixture(5)
		f.tokens.On("Get", ctx, hash, domain.TokenPurposeEmailVerify).Return(&domain.AuthToken{
			TokenHash: hash,
			AccountID: "acc-1",
			Purpose:   domain.TokenPurposeEmailVerify,
			ExpiresAt: time.Now().Add(-time.Minute),
		}, nil)

		err := f.uc.VerifyEmail(ctx, "raw-token")

		assert.Equal(t, http.StatusGone, errorCode(t, err))
		f.accounts.AssertNotCalled(t, "MarkEmailVerified", mock.Anything, mock.Anything)
	})

	t.Run("Used link", func(t *testing.T) {
		f := newAuthFixture(5)
		used := time.Now().Add(-time.Hour)
		f.tokens.On("Get", ctx, hash, domain.TokenPurposeEmailVerify).Return(&domain.AuthToken{
			TokenHash: hash,
			ExpiresAt: time.Now().Add(time.Hour),
			UsedAt:    &used,
		}, nil)

		err := f.uc.VerifyEmail(ctx, "raw-token")
		assert.Equal(t, http.StatusBadRequest, errorCode(t, err))
	})

	t.Run("Success", func(t *testing.T) {
		f := newAuthFixture(5)
		f.tokens.On("Get", ctx, hash, domain.TokenPurposeEmailVerify).Return(&domain.AuthToken{
			TokenHash: hash,
			AccountID: "acc-1",
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil)
		f.tokens.On("MarkUsed", ctx, hash, mock.AnythingOfType("time.Time")).Return(nil)
		f.accounts.On("MarkEmailVerified", ctx, "acc-1").Return(nil)

		require.NoError(t, f.uc.VerifyEmail(ctx, "raw-token"))
		f.accounts.AssertExpectations(t)
	})
}

func TestAuthUsecase_ForgotPasswordUnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture(5)
	f.accounts.On("GetByEmail", ctx, "ghost@example.com").Return(nil, domain.ErrNotFound)

	assert.NoError(t, f.uc.ForgotPassword(ctx, "ghost@example.com"))
	f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestAuthUsecase_SetupTOTPAdminOnly(t *testing.T) {
	f := newAuthFixture(5)
	_, err := f.uc.SetupTOTP(context.Background(), domain.Actor{UserID: "acc-1", Role: domain.RoleEmployee})
	assert.Equal(t, http.StatusForbidden, errorCode(t, err))
}
