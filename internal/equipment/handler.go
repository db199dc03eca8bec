package equipment

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/backline-erp/backline/internal/auth"
	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Handler wires HTTP endpoints for the equipment catalog.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers equipment routes. Writes are staff-only; deletion is
// admin-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/equipment", h.list)
	r.Get("/equipment/{id}", h.show)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleAdmin, shared.RoleManager))
		r.Post("/equipment", h.create)
		r.Put("/equipment/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(shared.RoleAdmin))
		r.Delete("/equipment/{id}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageFromRequest(r)
	req := ListEquipmentRequest{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
		Page:     page,
		Limit:    limit,
	}
	if cond := r.URL.Query().Get("condition"); cond != "" {
		c := Condition(cond)
		req.Condition = &c
	}
	if avail := r.URL.Query().Get("available"); avail != "" {
		v := avail == "true"
		req.Available = &v
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list equipment failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.List(w, result, len(result), shared.NewPagination(page, limit, total))
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	unit, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, unit)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateEquipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	unit, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create equipment failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, unit)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	var req UpdateEquipmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	unit, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, unit)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, "equipment deleted")
}
