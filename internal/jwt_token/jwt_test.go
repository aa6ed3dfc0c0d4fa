package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "memberpanel/pkg/domain"
	dErrors "memberpanel/pkg/domain-errors"
)

var userID = id.UserID(uuid.New())

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "test-issuer")

	token, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "test-issuer")

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("invalid-token-string")
		assert.Equal(t, "invalid token", dErrors.Description(err))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateAccessToken(userID, -time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Equal(t, "token has expired", dErrors.Description(err))
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewJWTService("other-key", "test-issuer").GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewJWTService("test-signing-key", "someone-else").GenerateAccessToken(userID, time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				Issuer:    "test-issuer",
				Audience:  []string{Audience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestMiddlewareValidator(t *testing.T) {
	svc := NewJWTService("test-signing-key", "test-issuer")
	token, err := svc.GenerateAccessToken(userID, time.Hour)
	require.NoError(t, err)

	claims, err := NewMiddlewareValidator(svc).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
}
