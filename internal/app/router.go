package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/NUbem000/NubemERP/internal/auth"
	"github.com/NUbem000/NubemERP/internal/invoicing"
	"github.com/NUbem000/NubemERP/internal/modules"
	"github.com/NUbem000/NubemERP/internal/observability"
	"github.com/NUbem000/NubemERP/internal/users"
	"github.com/NUbem000/NubemERP/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	TokenManager    *auth.TokenManager
	AuthHandler     *auth.Handler
	UsersHandler    *users.Handler
	ModulesHandler  *modules.Handler
	InvoicesHandler *invoicing.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with NubemERP defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", params.AuthHandler.MountRoutes)

		api.Group(func(protected chi.Router) {
			protected.Use(auth.RequireAuth(params.TokenManager))

			protected.Route("/users", params.UsersHandler.MountRoutes)
			protected.Route("/modules", params.ModulesHandler.MountRoutes)
			protected.Route("/invoices", params.InvoicesHandler.MountRoutes)

			protected.Route("/admin", func(admin chi.Router) {
				admin.Use(auth.RequireRole("admin"))
				admin.Route("/users", params.UsersHandler.MountAdminRoutes)
				admin.Route("/modules", params.ModulesHandler.MountAdminRoutes)
				if params.JobHandler != nil {
					admin.Route("/jobs", params.JobHandler.MountRoutes)
				}
			})
		})
	})

	return r
}
