package invoices

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/backline-erp/backline/internal/auth"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// OverdueEnqueuer queues an overdue sweep for the worker. Implemented by
// jobs.Client.
type OverdueEnqueuer interface {
	EnqueueMarkOverdue(ctx context.Context, now time.Time) error
}

// Handler wires HTTP endpoints for invoices.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	enqueuer OverdueEnqueuer
	validate *validator.Validate
}

// NewHandler constructs a Handler instance. enqueuer may be nil; the sweep
// endpoint is only mounted when one is provided.
func NewHandler(logger *slog.Logger, service *Service, enqueuer OverdueEnqueuer) *Handler {
	return &Handler{logger: logger, service: service, enqueuer: enqueuer, validate: validator.New()}
}

// MountRoutes registers invoice routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.list)
	r.Get("/invoices/{id}", h.show)
	r.Post("/invoices", h.create)
	r.Put("/invoices/{id}", h.update)
	r.Delete("/invoices/{id}", h.remove)
	r.Post("/invoices/{id}/items", h.addItem)
	r.Put("/invoices/{id}/items/{itemId}", h.updateItem)
	r.Delete("/invoices/{id}/items/{itemId}", h.deleteItem)
	if h.enqueuer != nil {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(shared.RoleAdmin, shared.RoleManager))
			r.Post("/invoices/mark-overdue", h.markOverdue)
		})
	}
}

func (h *Handler) markOverdue(w http.ResponseWriter, r *http.Request) {
	if err := h.enqueuer.EnqueueMarkOverdue(r.Context(), time.Now().UTC()); err != nil {
		h.logger.Error("enqueue overdue sweep failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, "overdue sweep queued")
}

func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageFromRequest(r)
	req := ListInvoicesRequest{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.List(w, result, len(result), shared.NewPagination(page, limit, total))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, inv)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	inv, err := h.service.Create(r.Context(), req, p)
	if err != nil {
		h.logger.Error("create invoice failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, inv)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	inv, err := h.service.Update(r.Context(), id, req, p)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, inv)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id, p); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, "invoice deleted")
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	var req ItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), id, req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	itemID, err := parseID(r, "itemId")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	var req ItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	item, err := h.service.UpdateItem(r.Context(), id, itemID, req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	itemID, err := parseID(r, "itemId")
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.DeleteItem(r.Context(), id, itemID); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, "invoice item deleted")
}
