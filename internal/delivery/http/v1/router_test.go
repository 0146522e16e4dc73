package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-placement-portal/config"
	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"
	"go-placement-portal/pkg/auth"
	"go-placement-portal/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) RegisterStudent(ctx context.Context, req domain.RegisterStudentRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	acc, _ := args.Get(0).(*domain.Account)
	return acc, args.Error(1)
}

func (m *mockAuthUsecase) RegisterEmployee(ctx context.Context, req domain.RegisterEmployeeRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	acc, _ := args.Get(0).(*domain.Account)
	return acc, args.Error(1)
}

func (m *mockAuthUsecase) Login(ctx context.Context, req domain.LoginRequest, meta domain.RequestMeta) (*domain.Session, error) {
	args := m.Called(ctx, req, meta)
	s, _ := args.Get(0).(*domain.Session)
	return s, args.Error(1)
}

func (m *mockAuthUsecase) VerifyEmail(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockAuthUsecase) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthUsecase) ResetPassword(ctx context.Context, token, newPassword string) error {
	return m.Called(ctx, token, newPassword).Error(0)
}

func (m *mockAuthUsecase) GetCurrentUser(ctx context.Context, id string) (*domain.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*domain.Account)
	return acc, args.Error(1)
}

func (m *mockAuthUsecase) SetupTOTP(ctx context.Context, actor domain.Actor) (*auth.TOTPEnrollment, error) {
	args := m.Called(ctx, actor)
	e, _ := args.Get(0).(*auth.TOTPEnrollment)
	return e, args.Error(1)
}

func (m *mockAuthUsecase) ConfirmTOTP(ctx context.Context, actor domain.Actor, code string) error {
	return m.Called(ctx, actor, code).Error(0)
}

type stubHealth struct{ status *domain.HealthStatus }

func (s stubHealth) Check(context.Context) *domain.HealthStatus { return s.status }

type routerFixture struct {
	engine *gin.Engine
	authUC *mockAuthUsecase
	tokens *auth.TokenService
	health *stubHealth
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Environment:              "test",
		BaseURL:                  "https://portal.example.com",
		CookieSecure:             false,
		RateLimitWindowSeconds:   60,
		RateLimitGlobalThreshold: 1000,
		RateLimitLoginThreshold:  1000,
	}
	f := &routerFixture{
		authUC: new(mockAuthUsecase),
		tokens: auth.NewTokenService("test-secret", time.Hour),
		health: &stubHealth{status: &domain.HealthStatus{Status: "ok", Services: map[string]string{"database": "ok"}}},
	}
	f.engine = NewRouter(RouterDeps{
		AuthUC:        f.authUC,
		HealthUC:      f.health,
		Tokens:        f.tokens,
		UploadLimiter: security.NewUploadLimiter(10, 50),
		Config:        cfg,
	})
	return f
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *routerFixture) bearer(t *testing.T, acc *domain.Account) string {
	t.Helper()
	tok, _, err := f.tokens.Generate(acc.ID, acc.Email, acc.Role)
	require.NoError(t, err)
	f.authUC.On("GetCurrentUser", mock.Anything, acc.ID).Return(acc, nil)
	return "Bearer " + tok
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c
		}
	}
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func loginRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginWrongPasswordSetsNoSessionCookie(t *testing.T) {
	f := newRouterFixture(t)
	f.authUC.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperror.Unauthorized("Invalid email or password"))

	w := f.do(loginRequest(`{"email":"a@b.com","password":"wrong-password"}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, sessionCookie(w))
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid email or password", body.Message)
}

func TestLoginSuccessSetsHttpOnlyCookie(t *testing.T) {
	f := newRouterFixture(t)
	session := &domain.Session{
		Token:     "signed-token",
		ExpiresAt: time.Now().Add(time.Hour),
		Account:   &domain.Account{ID: "u-1", Role: domain.RoleStudent},
	}
	f.authUC.On("Login", mock.Anything, domain.LoginRequest{Email: "a@b.com", Password: "secret-pass"}, mock.Anything).
		Return(session, nil)

	w := f.do(loginRequest(`{"email":"a@b.com","password":"secret-pass"}`))

	require.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Equal(t, "signed-token", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestLoginMissingFieldsIsBadRequest(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(loginRequest(`{"email":"a@b.com"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.authUC.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeWithBearerToken(t *testing.T) {
	f := newRouterFixture(t)
	acc := &domain.Account{ID: "u-1", Email: "a@b.com", Role: domain.RoleStudent, IsActive: true}
	authz := f.bearer(t, acc)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", authz)
	w := f.do(req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
}

func TestDisabledAccountIsRejected(t *testing.T) {
	f := newRouterFixture(t)
	acc := &domain.Account{ID: "u-2", Email: "x@b.com", Role: domain.RoleStudent, IsActive: false}
	authz := f.bearer(t, acc)

	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	req.Header.Set("Authorization", authz)
	w := f.do(req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRoutesRejectStudents(t *testing.T) {
	f := newRouterFixture(t)
	acc := &domain.Account{ID: "u-3", Email: "s@b.com", Role: domain.RoleStudent, IsActive: true}
	authz := f.bearer(t, acc)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/stats", nil)
	req.Header.Set("Authorization", authz)
	w := f.do(req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCookieSessionMutationNeedsCSRFToken(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CSRFTokenCookieName, Value: "abc"})
	w := f.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: middleware.CSRFTokenCookieName, Value: "abc"})
	req.Header.Set(middleware.CSRFTokenHeaderName, "abc")
	w = f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.MaxAge < 0)
}

func TestHealthReportsDatabaseOutage(t *testing.T) {
	f := newRouterFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	f.health.status = &domain.HealthStatus{Status: "degraded", Services: map[string]string{"database": "unavailable"}}
	w = f.do(httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/jobs", nil)
	req.Header.Set("Origin", "https://portal.example.com")
	w := f.do(req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://portal.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/jobs", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	w = f.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
