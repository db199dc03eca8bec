package deliveries

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Handler wires HTTP endpoints for delivery notes.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers delivery note routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/deliverynotes", h.list)
	r.Get("/deliverynotes/{id}", h.show)
	r.Post("/deliverynotes", h.create)
	r.Put("/deliverynotes/{id}", h.update)
	r.Delete("/deliverynotes/{id}", h.remove)
	r.Post("/deliverynotes/{id}/items", h.addItem)
	r.Put("/deliverynotes/{id}/items/{itemId}", h.updateItem)
	r.Delete("/deliverynotes/{id}/items/{itemId}", h.deleteItem)
}

func parseID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageFromRequest(r)
	req := ListDeliveryNotesRequest{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := Status(status)
		req.Status = &s
	}
	if project := r.URL.Query().Get("project_id"); project != "" {
		if id, err := strconv.ParseInt(project, 10, 64); err == nil {
			req.ProjectID = &id
		}
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list delivery notes failed", slog.Any("error", err))
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
	note, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, note)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateDeliveryNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	note, err := h.service.Create(r.Context(), req, p)
	if err != nil {
		h.logger.Error("create delivery note failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, note)
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
	var req UpdateDeliveryNoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	note, err := h.service.Update(r.Context(), id, req, p)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, note)
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
	httpx.Message(w, "delivery note deleted")
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
	httpx.Message(w, "delivery item deleted")
}
