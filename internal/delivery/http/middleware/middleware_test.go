package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestAllowedOrigins(t *testing.T) {
	prod := AllowedOrigins("https://www.portal.example.com/app/", true)
	assert.True(t, prod["https://www.portal.example.com"])
	assert.True(t, prod["https://portal.example.com"])
	assert.False(t, prod["http://localhost:3000"])

	dev := AllowedOrigins("https://portal.example.com", false)
	assert.True(t, dev["http://localhost:3000"])
}

func TestRateLimitFallsBackToLocalBuckets(t *testing.T) {
	r := newEngine(RateLimitMiddleware(RateLimitConfig{Limit: 2, Window: time.Minute, KeyPrefix: "rl:test:"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
		if i == 2 {
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestErrorHandlerRendersAppErrors(t *testing.T) {
	r := newEngine(RequestID(), ErrorHandler())
	r.GET("/gone", func(c *gin.Context) { c.Error(apperror.Gone("Invitation has expired")) })
	r.GET("/boom", func(c *gin.Context) { c.Error(errors.New("pq: relation does not exist")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gone", nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "Invitation has expired")
	assert.Contains(t, w.Body.String(), "request_id")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRequestIDPropagatesIncomingHeader(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("RequestID")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestCSRFExemptions(t *testing.T) {
	r := newEngine(CSRFMiddleware(false, ""))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/v1/assessments/invitations/:token/submit", ok)
	r.POST("/v1/jobs", ok)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/assessments/invitations/tok/submit", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/jobs", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/jobs", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
