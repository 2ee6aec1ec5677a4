package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/quillpost/quillpost-go/internal/crypto"
	"github.com/quillpost/quillpost-go/internal/metrics"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenVerifier resolves a session token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// Authenticate returns middleware that requires a session token in the
// Authorization header. The header carries the raw token with no scheme
// prefix. A missing token is 401; any verification failure is 403 with the
// same body regardless of cause. The user store is not consulted.
func Authenticate(tokens TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("Authorization")
			if token == "" {
				m.AuthFailure("no_token")
				writeJSONError(w, http.StatusUnauthorized, "access denied, no token provided")
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				reason := failureReason(err)
				m.AuthFailure(reason)
				slog.WarnContext(r.Context(), "token rejected", "reason", reason, "path", r.URL.Path)
				writeJSONError(w, http.StatusForbidden, "failed to authenticate token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// ContextWithUserID attaches an authenticated user ID to ctx.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, crypto.ErrTokenExpired):
		return "expired"
	case errors.Is(err, crypto.ErrTokenSignature):
		return "signature"
	default:
		return "malformed"
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
