package auth

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, exp, err := svc.Generate("user-1", "a@b.com", "student")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "student", claims.Role)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenService("one", time.Hour).Generate("u", "e@x.com", "admin")
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("s", -time.Minute)
	token, _, err := svc.Generate("u", "e@x.com", "student")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenRequiresSecret(t *testing.T) {
	_, _, err := NewTokenService("", time.Hour).Generate("u", "e", "student")
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(4)
	assert.Equal(t, MinBcryptCost, h.cost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "wrong"))
	assert.False(t, h.Verify("not-a-hash", "correct horse"))

	_, err = h.Hash("")
	assert.Error(t, err)
}

func TestTOTP(t *testing.T) {
	enr, err := GenerateTOTP("admin@portal.test")
	require.NoError(t, err)
	assert.NotEmpty(t, enr.Secret)
	assert.Contains(t, enr.URL, "otpauth://totp/")

	code, err := totp.GenerateCode(enr.Secret, time.Now())
	require.NoError(t, err)
	assert.True(t, ValidateTOTP(code, enr.Secret))
	assert.False(t, ValidateTOTP("", enr.Secret))
}

func TestOpaqueToken(t *testing.T) {
	a, b := NewOpaqueToken(), NewOpaqueToken()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, a, HashToken(a))
}
