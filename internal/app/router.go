package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/backline-erp/backline/internal/auth"
	"github.com/backline-erp/backline/internal/customers"
	"github.com/backline-erp/backline/internal/deliveries"
	"github.com/backline-erp/backline/internal/equipment"
	"github.com/backline-erp/backline/internal/invoices"
	"github.com/backline-erp/backline/internal/observability"
	"github.com/backline-erp/backline/internal/overview"
	"github.com/backline-erp/backline/internal/projects"
	"github.com/backline-erp/backline/internal/quotes"
	"github.com/backline-erp/backline/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthMiddleware   *auth.Middleware
	AuthHandler      *auth.Handler
	UsersHandler     *users.Handler
	CustomersHandler *customers.Handler
	EquipmentHandler *equipment.Handler
	ProjectsHandler  *projects.Handler
	QuotesHandler    *quotes.Handler
	InvoicesHandler  *invoices.Handler
	DeliveryHandler  *deliveries.Handler
	OverviewHandler  *overview.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with the API mounted under /api.
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
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireAuth)
			params.AuthHandler.MountProtectedRoutes(r)
			params.UsersHandler.MountRoutes(r)
			params.CustomersHandler.MountRoutes(r)
			params.EquipmentHandler.MountRoutes(r)
			params.ProjectsHandler.MountRoutes(r)
			params.QuotesHandler.MountRoutes(r)
			params.InvoicesHandler.MountRoutes(r)
			params.DeliveryHandler.MountRoutes(r)
			params.OverviewHandler.MountRoutes(r)
		})
	})

	return r
}
