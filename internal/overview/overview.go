// Package overview serves the dashboard summary: one call returning entity
// counts so the client does not fan out eight list requests on load.
package overview

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/backline-erp/backline/internal/platform/httpx"
)

// Summary aggregates the headline numbers for the dashboard.
type Summary struct {
	Equipment       int64 `json:"equipment"`
	AvailableUnits  int64 `json:"available_units"`
	Customers       int64 `json:"customers"`
	Projects        int64 `json:"projects"`
	ActiveProjects  int64 `json:"active_projects"`
	OpenAllocations int64 `json:"open_allocations"`
	Quotes          int64 `json:"quotes"`
	Invoices        int64 `json:"invoices"`
	OverdueInvoices int64 `json:"overdue_invoices"`
	DeliveryNotes   int64 `json:"delivery_notes"`
}

// Service collects the summary counts concurrently.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

func (s *Service) count(ctx context.Context, dest *int64, query string, args ...any) func() error {
	return func() error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest)
	}
}

// Summary runs the count queries in parallel and returns the first error.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var out Summary
	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.count(ctx, &out.Equipment, `SELECT COUNT(*) FROM equipment`))
	g.Go(s.count(ctx, &out.AvailableUnits, `SELECT COUNT(*) FROM equipment WHERE is_available`))
	g.Go(s.count(ctx, &out.Customers, `SELECT COUNT(*) FROM customers WHERE is_active`))
	g.Go(s.count(ctx, &out.Projects, `SELECT COUNT(*) FROM projects`))
	g.Go(s.count(ctx, &out.ActiveProjects, `SELECT COUNT(*) FROM projects WHERE status = 'active'`))
	g.Go(s.count(ctx, &out.OpenAllocations, `SELECT COUNT(*) FROM project_equipment WHERE returned_date IS NULL`))
	g.Go(s.count(ctx, &out.Quotes, `SELECT COUNT(*) FROM quotes`))
	g.Go(s.count(ctx, &out.Invoices, `SELECT COUNT(*) FROM invoices`))
	g.Go(s.count(ctx, &out.OverdueInvoices, `SELECT COUNT(*) FROM invoices WHERE status = 'overdue'`))
	g.Go(s.count(ctx, &out.DeliveryNotes, `SELECT COUNT(*) FROM delivery_notes`))
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Handler wires the overview endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the overview route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/overview", h.show)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("overview failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, summary)
}
