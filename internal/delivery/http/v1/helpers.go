package v1

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go-placement-portal/config"
	"go-placement-portal/internal/delivery/http/middleware"
	"go-placement-portal/internal/domain"
	"go-placement-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.BadRequest("Invalid ID format"))
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(def)))
	if err != nil {
		return def
	}
	return n
}

func requestMeta(c *gin.Context) domain.RequestMeta {
	return domain.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
		RequestID: c.GetString(string(domain.KeyRequestID)),
	}
}

// readUpload reads a multipart file field into memory, capped at maxUploadBytes.
func readUpload(c *gin.Context, field string) (domain.UploadedFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return domain.UploadedFile{}, apperror.BadRequest(fmt.Sprintf("File field %q is required", field))
	}
	if fh.Size > maxUploadBytes {
		return domain.UploadedFile{}, apperror.BadRequest("File exceeds the 10 MB limit")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.UploadedFile{}, apperror.BadRequest("Could not read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return domain.UploadedFile{}, apperror.BadRequest("Could not read uploaded file")
	}
	if len(data) > maxUploadBytes {
		return domain.UploadedFile{}, apperror.BadRequest("File exceeds the 10 MB limit")
	}
	return domain.UploadedFile{Filename: fh.Filename, Data: data}, nil
}

// setSessionCookie writes the HttpOnly session cookie. A zero expiry clears it.
func setSessionCookie(c *gin.Context, cfg *config.Config, token string, expiresAt time.Time) {
	maxAge := -1
	if !expiresAt.IsZero() {
		maxAge = int(time.Until(expiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
}
