package api

import (
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/go-chi/chi/v5"

	"github.com/solarview/solarview/internal/account"
	"github.com/solarview/solarview/internal/api/handler"
	"github.com/solarview/solarview/internal/api/middleware"
	"github.com/solarview/solarview/internal/auth"
	"github.com/solarview/solarview/internal/catalog"
	"github.com/solarview/solarview/internal/pvgis"
	"github.com/solarview/solarview/internal/store"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Store       store.Store
	AuthService *auth.Service
	Accounts    *account.Manager
	Catalog     *catalog.Manager
	Estimator   pvgis.Estimator
	Version     string
	OpenAPISpec []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.StripSlashes)

	healthHandler := handler.NewHealthHandler(deps.Store, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler := handler.NewOpenAPIHandler(deps.OpenAPISpec, deps.Version)
		r.Get("/openapi.json", openapiHandler.ServeHTTP)
	}

	authHandler := handler.NewAuthHandler(deps.AuthService, deps.Accounts)
	userHandler := handler.NewUserHandler(deps.Accounts)
	panelHandler := handler.NewPanelHandler(deps.Catalog)
	calculateHandler := handler.NewCalculateHandler(deps.Estimator)

	r.Post("/auth/login", authHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(deps.AuthService))

		r.Get("/auth/me", authHandler.Me)
		r.Post("/auth/rotate-key", authHandler.RotateKey)
		r.With(middleware.RequireAdmin()).Post("/auth/admin/rotate-key/{user_id}", authHandler.AdminRotateKey)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Create)
			r.Get("/", userHandler.List)
			r.Post("/change-password", userHandler.ChangePassword)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})

		r.Route("/api/panel-models", func(r chi.Router) {
			r.Get("/", panelHandler.List)
			r.Get("/{id}", panelHandler.Get)
			r.Post("/", panelHandler.Create)
			r.Put("/{id}", panelHandler.Update)
			r.Delete("/{id}", panelHandler.Delete)
		})

		r.Post("/calculate", calculateHandler.ServeHTTP)
	})

	return r
}
