package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go-placement-portal/internal/delivery/http/response"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/auth"

	"github.com/gin-gonic/gin"
)

// SessionCookie is the HttpOnly cookie carrying the session JWT.
const SessionCookie = "auth_token"

// AuthMiddleware accepts the session token from the auth_token cookie or a
// Bearer header and loads the account behind it.
func AuthMiddleware(tokens *auth.TokenService, authUC domain.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			tokenString = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		} else if cookie, err := c.Cookie(SessionCookie); err == nil {
			tokenString = cookie
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required", nil)
			c.Abort()
			return
		}

		claims, err := tokens.Validate(tokenString)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Session expired, please log in again"
			}
			response.Error(c, http.StatusUnauthorized, msg, nil)
			c.Abort()
			return
		}

		// Role and organization come from the database, not the token,
		// so deactivation and approval changes apply immediately.
		user, err := authUC.GetCurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "User not found", nil)
			c.Abort()
			return
		}
		if !user.IsActive {
			response.Error(c, http.StatusForbidden, "Account is disabled", nil)
			c.Abort()
			return
		}

		c.Set(string(domain.KeyUserID), user.ID)
		c.Set(string(domain.KeyUserEmail), user.Email)
		c.Set(string(domain.KeyUserRole), user.Role)
		c.Set(string(domain.KeyOrganization), user.Organization)

		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed. It must run after
// AuthMiddleware.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(string(domain.KeyUserRole))
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "You do not have permission to access this resource", nil)
		c.Abort()
	}
}

// CurrentActor builds the authenticated caller from the gin context.
func CurrentActor(c *gin.Context) domain.Actor {
	return domain.Actor{
		UserID:       c.GetString(string(domain.KeyUserID)),
		Email:        c.GetString(string(domain.KeyUserEmail)),
		Role:         c.GetString(string(domain.KeyUserRole)),
		Organization: c.GetString(string(domain.KeyOrganization)),
	}
}
