package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"go-placement-portal/internal/delivery/http/response"

	"github.com/gin-gonic/gin"
)

const (
	CSRFTokenCookieName = "csrf_token"
	CSRFTokenHeaderName = "X-CSRF-Token"
	CSRFTokenLength     = 32
	CSRFTokenExpiry     = 24 * time.Hour
)

// Paths used before a session exists. They are covered by rate limiting.
var csrfExemptPaths = map[string]bool{
	"/v1/auth/login":             true,
	"/v1/auth/register/student":  true,
	"/v1/auth/register/employee": true,
	"/v1/auth/forgot-password":   true,
	"/v1/auth/reset-password":    true,
	"/v1/health":                 true,
}

// Token-addressed candidate endpoints carry their own secret in the URL.
var csrfExemptPrefixes = []string{
	"/v1/job-invitations/",
	"/v1/assessments/invitations/",
}

func generateCSRFToken() (string, error) {
	bytes := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func csrfExempt(path string) bool {
	if csrfExemptPaths[path] {
		return true
	}
	for _, p := range csrfExemptPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// CSRFMiddleware implements the double-submit cookie pattern: mutating
// requests must echo the csrf_token cookie in the X-CSRF-Token header.
// Bearer-authenticated clients do not rely on ambient cookies and skip the check.
func CSRFMiddleware(secure bool, domain string) gin.HandlerFunc {
	setCookie := func(c *gin.Context, token string) {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CSRFTokenCookieName, token, int(CSRFTokenExpiry.Seconds()), "/", domain, secure, false)
	}

	return func(c *gin.Context) {
		csrfCookie, err := c.Cookie(CSRFTokenCookieName)
		if err != nil || csrfCookie == "" {
			newToken, err := generateCSRFToken()
			if err != nil {
				response.Error(c, http.StatusInternalServerError, "Failed to generate security token", nil)
				c.Abort()
				return
			}
			setCookie(c, newToken)
			csrfCookie = newToken
		}

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if csrfExempt(c.Request.URL.Path) || strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			c.Next()
			return
		}

		headerToken := c.GetHeader(CSRFTokenHeaderName)
		if headerToken == "" {
			response.Error(c, http.StatusForbidden, "Missing CSRF token", nil)
			c.Abort()
			return
		}
		if subtle.ConstantTimeCompare([]byte(headerToken), []byte(csrfCookie)) != 1 {
			response.Error(c, http.StatusForbidden, "Invalid CSRF token", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
