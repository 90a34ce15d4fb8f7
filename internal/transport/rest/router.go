package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/asset-management/internal/auth"
	"github.com/frahmantamala/asset-management/internal/dashboard"
	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/frahmantamala/asset-management/internal/sandbox"
	"github.com/frahmantamala/asset-management/internal/transport/middleware"
	"github.com/frahmantamala/asset-management/internal/transport/swagger"
	"github.com/frahmantamala/asset-management/internal/user"
	"github.com/go-chi/chi"
)

// APIPrefix is the mount point of every API route.
const APIPrefix = "/api/v1"

type Handlers struct {
	Auth    *auth.Handler
	User    *user.Handler
	Records *sandbox.Handler
}

// RegisterAllRoutes mounts the sandbox API on router. serverURL is advertised
// in the OpenAPI document.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, driver string, h Handlers, serverURL string, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, driver)

	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	doc := sandbox.Document(serverURL + APIPrefix)
	router.Get(swagger.DocumentPath, func(w http.ResponseWriter, r *http.Request) {
		h.Records.WriteJSON(w, http.StatusOK, doc)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
			sr.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Get(dashboard.ConfigPath, h.Records.GetDashboardConfig)
			pr.Put(dashboard.ConfigPath, h.Records.SaveDashboardConfig)

			for _, def := range resource.Definitions() {
				registerResource(pr, h.Records, def)
			}
		})
	})
}

func registerResource(r chi.Router, h *sandbox.Handler, def resource.Definition) {
	kind := def.Kind
	r.Route(def.Path, func(rr chi.Router) {
		rr.Get("/", h.List(kind))
		rr.Post("/", h.Create(kind))
		rr.Post("/bulk-delete", h.BulkDelete(kind))
		rr.Post("/import", h.ImportFile(kind))
		rr.Get("/export", h.Export(kind))
		rr.Get("/{id}", h.Get(kind))
		rr.Put("/{id}", h.Update(kind))
		rr.Delete("/{id}", h.Delete(kind))
	})
}
