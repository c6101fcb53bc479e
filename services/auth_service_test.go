package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)
	service := NewAuthService(string(hash), "test-secret")

	t.Run("valid password yields an admin token", func(t *testing.T) {
		token, err := service.Login("hunter2")
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		require.True(t, parsed.Valid)
		require.Equal(t, "admin", claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := service.Login("wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("login disabled without a configured hash", func(t *testing.T) {
		_, err := NewAuthService("", "test-secret").Login("anything")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
