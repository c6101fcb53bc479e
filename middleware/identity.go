package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity extracts the participant identity injected by the fronting auth
// proxy into the configured trusted header. Requests without it are
// rejected; this service never authenticates attendees itself.
func Identity(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := strings.TrimSpace(r.Header.Get(header))
			if identity == "" {
				http.Error(w, "missing identity header", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext returns the identity placed by the Identity middleware.
func IdentityFromContext(ctx context.Context) (string, error) {
	identity, ok := ctx.Value(identityContextKey).(string)
	if !ok || identity == "" {
		return "", errors.New("identity not found in request context")
	}
	return identity, nil
}
