package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/user"
	"github.com/opsboard/backend/pkg/logger"
)

// SessionResolver turns a bearer token into the live user record. Blocked
// users come back as an error so they are cut off on the very next request,
// not at token expiry.
type SessionResolver interface {
	CurrentUser(tokenString string) (*user.User, error)
}

func Authenticate(sessions SessionResolver, lg *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing authorization token")
				return
			}

			u, err := sessions.CurrentUser(token)
			if err != nil {
				lg.Warn("request rejected", "path", r.URL.Path, "error", err)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := authz.ContextWithSubject(r.Context(), u.Subject())
			ctx = logger.With(ctx, "user_id", u.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
