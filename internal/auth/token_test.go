package auth_test

import (
	"testing"
	"time"

	"campusconnect/internal/auth"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	svc := auth.NewTokenService("test_secret")

	token, err := svc.Issue("user-42")
	require.NoError(t, err)

	userID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokenService_RejectsOtherSecret(t *testing.T) {
	token, err := auth.NewTokenService("secret-a").Issue("user-42")
	require.NoError(t, err)

	_, err = auth.NewTokenService("secret-b").Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestTokenService_RejectsExpiredAndClaimless(t *testing.T) {
	secret := []byte("test_secret")
	svc := auth.NewTokenService(string(secret))

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-42",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)
	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err = noUser.SignedString(secret)
	require.NoError(t, err)
	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.Validate("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
