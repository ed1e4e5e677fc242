package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lostSilverfish/blood-donors-SHAH/auth"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := auth.NewTokenService("test-secret", "blood-donors", time.Hour)

	token, err := svc.Generate("user-1", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "blood-donors", claims.Issuer)
}

func TestTokenService_RejectsWrongKey(t *testing.T) {
	issuer := auth.NewTokenService("secret-a", "blood-donors", time.Hour)
	verifier := auth.NewTokenService("secret-b", "blood-donors", time.Hour)

	token, err := issuer.Generate("user-1", "admin")
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := auth.NewTokenService("test-secret", "blood-donors", time.Hour)

	_, err := svc.Validate("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := auth.NewTokenService("test-secret", "blood-donors", -time.Minute)

	token, err := svc.Generate("user-1", "admin")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pw")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pw", hash)

	assert.NoError(t, auth.VerifyPassword("s3cret-pw", hash))
	assert.ErrorIs(t, auth.VerifyPassword("wrong", hash), auth.ErrBadCredentials)
}

func TestPassword_RejectsEmpty(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.Error(t, err)
}
