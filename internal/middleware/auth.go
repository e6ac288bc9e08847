package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// TokenVerifier validates access tokens and extracts their claims.
type TokenVerifier interface {
	VerifyAccess(token string) (auth.AccessClaims, error)
}

// UserLoader resolves the authenticated account from its identifier.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

type ctxKey int

const userKey ctxKey = iota

// WithUser stores the authenticated user on the context.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user placed by Auth.Require.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey).(models.User)
	return user, ok
}

// Auth guards endpoints that require an authenticated user. The access token
// is read from the accessToken cookie or an Authorization bearer header.
type Auth struct {
	Verifier TokenVerifier
	Users    UserLoader
}

// Require wraps a handler, rejecting requests without a valid access token.
func (a Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.FromContext(ctx)

		token := bearerToken(r)
		if token == "" {
			writeUnauthorized(w, "unauthorized request")
			return
		}

		claims, err := a.Verifier.VerifyAccess(token)
		if err != nil {
			logger.Warn("access token rejected", "error", err)
			writeUnauthorized(w, "invalid access token")
			return
		}

		user, err := a.Users.FindByID(ctx, claims.UserID)
		if err != nil {
			logger.Warn("authenticated user lookup failed", "userId", claims.UserID, "error", err)
			writeUnauthorized(w, "invalid access token")
			return
		}

		// Credential material never travels on the request context.
		user.Password = ""
		user.RefreshToken = ""

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// writeUnauthorized emits the standard error envelope. Defined here rather
// than reusing the handlers package to keep the dependency direction one-way.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": http.StatusUnauthorized,
		"message":    message,
		"success":    false,
		"errors":     []string{},
	})
}
