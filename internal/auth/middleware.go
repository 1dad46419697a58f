package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/pupaakdev/userd/internal/model"
	"github.com/pupaakdev/userd/internal/repository"
)

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the authenticated user value.
type contextKey string

const userKey contextKey = "user"

// RequireAuth enforces authentication on protected routes.
//
// It reads the "Authorization: Bearer <token>" header, validates the token,
// and resolves the subject claim against the user directory: a valid token
// for a since-deleted user is rejected the same way as a bad token. On
// success the resolved user is attached to the request context.
//
// All failures answer 401 with a "WWW-Authenticate: Bearer" challenge and
// an identical body, regardless of which check failed.
func RequireAuth(tokens *TokenService, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := tokens.Validate(tokenStr)
			if err != nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByUsername(r.Context(), claims.Subject)
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext retrieves the authenticated user set by RequireAuth.
// Returns (nil, false) on routes the middleware didn't run on.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return header[len(prefix):], true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
}
