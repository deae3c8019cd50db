package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"notesapp/internal/auth"
	"notesapp/pkg/logger"
)

type contextKey string

const UserKey contextKey = "user"

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (auth.User, error)
}

// Gate rejects requests that do not carry a valid bearer token with a 401
// and a JSON "Unauthorized" body. Accepted requests continue with the
// resolved user in their context.
func Gate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Log.Debug("auth gate", zap.String("method", r.Method), zap.String("path", r.URL.Path))

			tokenString := bearerToken(r)
			if tokenString == "" {
				unauthorized(w)
				return
			}

			user, err := verifier.Verify(tokenString)
			if err != nil {
				logger.Log.Info("rejected token", zap.Error(err))
				unauthorized(w)
				return
			}

			logger.Log.Debug("user is logged in", zap.String("user_id", user.ID))

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFrom returns the user the Gate attached to ctx.
func UserFrom(ctx context.Context) (auth.User, bool) {
	user, ok := ctx.Value(UserKey).(auth.User)
	if !ok || user.ID == "" {
		return auth.User{}, false
	}
	return user, true
}

// WithUser attaches user to ctx the same way the Gate does.
func WithUser(ctx context.Context, user auth.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	// Browsers cannot set headers on websocket upgrades.
	if isWebsocketUpgrade(r) {
		return r.URL.Query().Get("token")
	}

	return ""
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode("Unauthorized")
}
