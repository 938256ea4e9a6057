package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/opsboard/backend/internal/activity"
	"github.com/opsboard/backend/internal/auth"
	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/backup"
	"github.com/opsboard/backend/internal/employee"
	"github.com/opsboard/backend/internal/livefeed"
	"github.com/opsboard/backend/internal/transport/middleware"
	"github.com/opsboard/backend/internal/transport/swagger"
	"github.com/opsboard/backend/internal/user"
)

// SectionAudit is the dashboard section the activity log lives under.
const SectionAudit = "historico"

type Handlers struct {
	Auth     *auth.Handler
	User     *user.Handler
	Employee *employee.Handler
	Activity *activity.Handler
	Backup   *backup.Handler
	Feed     *livefeed.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, sessions middleware.SessionResolver, gate *authz.Gate, h Handlers, allowedOrigins string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS(allowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))

	// OpenAPI spec and UI live outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		// Everything below requires a valid session
		r.Group(func(pr chi.Router) {
			pr.Use(middleware.Authenticate(sessions, logger))

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Get("/updates", h.Feed.ListUpdates)

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(gate.RequireManageUsers())
				ur.Post("/", h.User.CreateUser)
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{id}", h.User.GetUser)
				ur.Patch("/{id}/role", h.User.SetRole)
				ur.Patch("/{id}/blocked", h.User.SetBlocked)
				ur.Put("/{id}/permissions", h.User.UpdatePermissions)
			})

			pr.Route("/employees", func(er chi.Router) {
				er.Group(func(vr chi.Router) {
					vr.Use(gate.RequireSectionView(employee.TabID))
					vr.Get("/", h.Employee.ListEmployees)
					vr.Get("/{id}", h.Employee.GetEmployee)
				})
				er.Group(func(mr chi.Router) {
					mr.Use(gate.RequireSectionEdit(employee.TabID))
					mr.Post("/", h.Employee.CreateEmployee)
					mr.Patch("/{id}", h.Employee.UpdateEmployee)
					mr.Post("/{id}/dismiss", h.Employee.DismissEmployee)
				})
			})

			pr.Route("/activity", func(ar chi.Router) {
				ar.Group(func(vr chi.Router) {
					vr.Use(gate.RequireSectionView(SectionAudit))
					vr.Get("/", h.Activity.List)
					vr.Get("/vocabularies", h.Activity.GetVocabularies)
					vr.Get("/export", h.Activity.Export)
				})
				ar.Group(func(sr chi.Router) {
					sr.Use(gate.RequireSuperAdmin())
					sr.Post("/restore", h.Activity.Restore)
					sr.Delete("/", h.Activity.Clear)
				})
			})

			pr.Route("/backup", func(br chi.Router) {
				br.Use(gate.RequireSuperAdmin())
				br.Get("/export", h.Backup.Export)
				br.Post("/restore", h.Backup.Restore)
				br.Put("/schedule", h.Backup.Reconfigure)
			})
		})
	})
}
