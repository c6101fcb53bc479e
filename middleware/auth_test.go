package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func TestAdminOnly(t *testing.T) {
	secret := []byte("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := AdminOnly(secret)(next)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/teams", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid admin token passes", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodPost, "/teams", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("non-admin role is forbidden", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{"role": "hacker", "exp": time.Now().Add(time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodPost, "/teams", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		token := signToken(t, []byte("other-secret"), jwt.MapClaims{"role": "admin", "exp": time.Now().Add(time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodPost, "/teams", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signToken(t, secret, jwt.MapClaims{"role": "admin", "exp": time.Now().Add(-time.Hour).Unix()})
		req := httptest.NewRequest(http.MethodPost, "/teams", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
