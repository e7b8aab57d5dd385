package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/talentdesk/backoffice/internal/asset"
	"github.com/talentdesk/backoffice/internal/auth"
	"github.com/talentdesk/backoffice/internal/department"
	"github.com/talentdesk/backoffice/internal/employee"
	"github.com/talentdesk/backoffice/internal/project"
	"github.com/talentdesk/backoffice/internal/registration"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/internal/submission"
	"github.com/talentdesk/backoffice/internal/transport/middleware"
	"github.com/talentdesk/backoffice/internal/transport/swagger"
)

// Handlers bundles every route handler the router mounts.
type Handlers struct {
	Auth         *auth.Handler
	Employee     *employee.Handler
	Department   *department.Handler
	Asset        *asset.Handler
	Project      *project.Handler
	Submission   *submission.Handler
	Registration *registration.Handler
}

func RegisterAllRoutes(router *chi.Mux, gateway store.Gateway, cacheDB Pinger, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(gateway, cacheDB)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		// Everything else is operator-only
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Route("/employees", func(er chi.Router) {
				er.Get("/", h.Employee.List)
				er.Post("/", h.Employee.Create)
				er.Get("/index", h.Employee.Index)
				er.Get("/{id}", h.Employee.Get)
				er.Put("/{id}", h.Employee.Update)
				er.Post("/{id}/preview", h.Employee.PreviewUpdate)
				er.Delete("/{id}", h.Employee.Delete)
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Department.List)
				dr.Post("/", h.Department.Create)
				dr.Get("/{id}", h.Department.Get)
				dr.Put("/{id}", h.Department.Update)
				dr.Delete("/{id}", h.Department.Delete)
				dr.Put("/{id}/employees/{employeeId}", h.Department.AddEmployee)
				dr.Delete("/{id}/employees/{employeeId}", h.Department.RemoveEmployee)
			})

			pr.Route("/assets", func(ar chi.Router) {
				ar.Get("/", h.Asset.List)
				ar.Post("/", h.Asset.Create)
				ar.Get("/{id}", h.Asset.Get)
				ar.Put("/{id}", h.Asset.Update)
				ar.Delete("/{id}", h.Asset.Delete)
				ar.Post("/{id}/assign", h.Asset.Assign)
				ar.Post("/{id}/return", h.Asset.Return)
			})

			pr.Route("/projects", func(jr chi.Router) {
				jr.Get("/", h.Project.List)
				jr.Post("/", h.Project.Create)
				jr.Get("/{id}", h.Project.Get)
				jr.Put("/{id}", h.Project.Update)
				jr.Delete("/{id}", h.Project.Delete)
				jr.Post("/{id}/image", h.Project.UploadImage)
				jr.Post("/{id}/reorder", h.Project.Reorder)
			})

			pr.Route("/submissions", func(sr chi.Router) {
				sr.Get("/career", h.Submission.ListCareer)
				sr.Get("/career/{id}", h.Submission.GetCareer)
				sr.Patch("/career/{id}/status", h.Submission.ResolveCareer)
				sr.Delete("/career/{id}", h.Submission.DeleteCareer)
				sr.Get("/contact", h.Submission.ListContact)
				sr.Delete("/contact/{id}", h.Submission.DeleteContact)
			})

			pr.Route("/registrations", func(rr chi.Router) {
				rr.Get("/", h.Registration.List)
				rr.Get("/{id}", h.Registration.Get)
				rr.Post("/reindex", h.Registration.Reindex)
			})
		})
	})
}
