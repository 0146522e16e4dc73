package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://portal.example.edu/")
	t.Setenv("INVITATION_TTL", "48h")
	t.Setenv("FAILED_LOGIN_MAX_ATTEMPTS", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.edu", cfg.BaseURL)
	assert.Equal(t, 48*time.Hour, cfg.InvitationTTL)
	assert.Equal(t, 5, cfg.FailedLoginMaxAttempts)
	assert.Equal(t, 24, cfg.JWTExpiryHours)
}

func TestIsProduction(t *testing.T) {
	assert.True(t, (&Config{Environment: "production"}).IsProduction())
	assert.False(t, (&Config{Environment: "development"}).IsProduction())
}
