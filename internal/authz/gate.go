package authz

import (
	"log/slog"
	"net/http"
)

// Gate wraps the evaluator as chi middleware. Handlers behind a gate can
// assume the check already passed; services still re-check before mutating
// so that no path around the router widens access.
type Gate struct {
	logger *slog.Logger
}

func NewGate(logger *slog.Logger) *Gate {
	return &Gate{logger: logger}
}

func (g *Gate) require(name string, allowed func(*Subject) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := SubjectFromContext(r.Context())
			if !ok {
				g.logger.Warn("authorization check failed: no subject in context", "check", name)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !allowed(subject) {
				g.logger.WarnContext(r.Context(), "access denied",
					"check", name,
					"user_id", subject.ID,
					"role", subject.Role,
					"blocked", subject.Blocked)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (g *Gate) RequireSectionView(tabID string) func(http.Handler) http.Handler {
	return g.require("section_view:"+tabID, func(s *Subject) bool {
		return CanAccessTab(s, tabID)
	})
}

func (g *Gate) RequireSectionEdit(tabID string) func(http.Handler) http.Handler {
	return g.require("section_edit:"+tabID, func(s *Subject) bool {
		return CanEditSection(s, tabID)
	})
}

func (g *Gate) RequireEdit(action Action) func(http.Handler) http.Handler {
	return g.require("edit:"+string(action), func(s *Subject) bool {
		return HasEditPermission(s, action)
	})
}

func (g *Gate) RequireManageUsers() func(http.Handler) http.Handler {
	return g.require("manage_users", CanManageUsers)
}

func (g *Gate) RequireCreateGroups() func(http.Handler) http.Handler {
	return g.require("create_groups", CanCreateGroups)
}

func (g *Gate) RequireSuperAdmin() func(http.Handler) http.Handler {
	return g.require("superadmin", IsSuperAdmin)
}
