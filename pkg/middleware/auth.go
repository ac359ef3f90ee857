package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/WhisperLily/task-management-api/pkg/errors"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// Claims represents the JWT claims extracted by the auth middleware.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// TokenValidator is a function that validates a JWT access token and returns
// claims. This allows the service to inject its own validation logic.
type TokenValidator func(token string) (*Claims, error)

// Auth middleware validates bearer tokens and injects user claims into context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "UNAUTHORIZED", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "UNAUTHORIZED", "invalid authorization header format")
				return
			}

			claims, err := validate(parts[1])
			if err != nil {
				// Surface the validator's error code (EXPIRED_TOKEN,
				// WRONG_TOKEN_TYPE, ...) instead of flattening every
				// failure to a generic 401.
				code, message := "UNAUTHORIZED", "invalid or expired token"
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) && appErr.Code != "" {
					code, message = appErr.Code, appErr.Message
				}
				writeAuthError(w, code, message)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// Mirrors the httputil.Response envelope without importing it.
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
