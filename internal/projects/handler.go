package projects

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/backline-erp/backline/internal/platform/httpx"
	"github.com/backline-erp/backline/internal/shared"
)

// Handler wires HTTP endpoints for projects and allocations.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/projects", h.list)
	r.Get("/projects/{id}", h.show)
	r.Post("/projects", h.create)
	r.Put("/projects/{id}", h.update)
	r.Delete("/projects/{id}", h.remove)
	r.Post("/projects/{id}/equipment", h.allocate)
	r.Put("/projects/{id}/equipment/{equipmentId}/return", h.returnEquipment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := shared.PageFromRequest(r)
	req := ListProjectsRequest{
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
		h.logger.Error("list projects failed", slog.Any("error", err))
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
	project, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, project)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	project, err := h.service.Create(r.Context(), req, p)
	if err != nil {
		h.logger.Error("create project failed", slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, project)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	var req UpdateProjectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	project, err := h.service.Update(r.Context(), id, req, p)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, project)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Error(w, httpx.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	if err := h.service.Delete(r.Context(), id, p); err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.Message(w, "project deleted")
}

func (h *Handler) allocate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	var req AllocateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, err)
		return
	}
	allocation, err := h.service.Allocate(r.Context(), id, req)
	if err != nil {
		h.logger.Warn("allocate equipment failed",
			slog.Int64("project_id", id), slog.Any("error", err))
		httpx.Error(w, err)
		return
	}
	httpx.Created(w, allocation)
}

func (h *Handler) returnEquipment(w http.ResponseWriter, r *http.Request) {
	projectID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	equipmentID, err := strconv.ParseInt(chi.URLParam(r, "equipmentId"), 10, 64)
	if err != nil {
		httpx.Error(w, httpx.ErrNotFound)
		return
	}
	allocation, err := h.service.Return(r.Context(), projectID, equipmentID)
	if err != nil {
		httpx.Error(w, err)
		return
	}
	httpx.OK(w, allocation)
}
