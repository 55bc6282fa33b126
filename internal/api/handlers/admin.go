package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/reservo/internal/api/httperr"
	"github.com/vitaliisemenov/reservo/internal/api/middleware"
	"github.com/vitaliisemenov/reservo/internal/cache"
	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/repository"
)

// AdminHandler exposes the resource lifecycle operations from §5's
// "Admission of admin operations": create, open, close. These bypass the
// FOR UPDATE commit/cancel lock discipline and go through a plain save,
// so every admin mutation also invalidates the availability cache.
type AdminHandler struct {
	resources    *repository.ResourceRepository
	availability *cache.AvailabilityCache
	logger       *slog.Logger
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(resources *repository.ResourceRepository, availability *cache.AvailabilityCache, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{resources: resources, availability: availability, logger: logger}
}

type createResourceRequest struct {
	ID       string `json:"id" validate:"required,max=100"`
	Type     string `json:"type" validate:"required,max=100"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// CreateResource handles POST /api/v1/admin/resources.
//
// @Summary Create a resource
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body createResourceRequest true "New resource"
// @Success 201 {object} domain.Resource
// @Failure 400 {object} httperr.APIError
// @Router /api/v1/admin/resources [post]
func (h *AdminHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, requestID, httperr.BadRequest("malformed request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.Write(w, requestID, httperr.BadRequest(err.Error()))
		return
	}

	resourceID, err := domain.NewResourceID(req.ID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	now := time.Now()
	resource := domain.Resource{
		ID:              resourceID,
		Type:            req.Type,
		Capacity:        req.Capacity,
		CurrentBookings: 0,
		State:           domain.ResourceOpen,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.resources.Save(r.Context(), resource); err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}
	h.availability.Invalidate(resourceID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resource); err != nil {
		h.logger.Error("failed to encode resource response", "error", err, "request_id", requestID)
	}
}

// Open handles POST /api/v1/admin/resources/{id}/open.
//
// @Summary Reopen a resource for new commits
// @Tags Admin
// @Param id path string true "Resource ID"
// @Success 200 {object} domain.Resource
// @Failure 404 {object} httperr.APIError
// @Router /api/v1/admin/resources/{id}/open [post]
func (h *AdminHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, domain.ResourceOpen)
}

// Close handles POST /api/v1/admin/resources/{id}/close.
//
// @Summary Close a resource to new commits
// @Tags Admin
// @Param id path string true "Resource ID"
// @Success 200 {object} domain.Resource
// @Failure 404 {object} httperr.APIError
// @Router /api/v1/admin/resources/{id}/close [post]
func (h *AdminHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.setState(w, r, domain.ResourceClosed)
}

func (h *AdminHandler) setState(w http.ResponseWriter, r *http.Request, state domain.ResourceState) {
	requestID := middleware.GetRequestID(r.Context())

	resourceID, err := domain.NewResourceID(mux.Vars(r)["id"])
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	resource, err := h.resources.FindByID(r.Context(), resourceID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	resource.State = state
	resource.Version++
	resource.UpdatedAt = time.Now()

	if err := h.resources.Save(r.Context(), resource); err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}
	h.availability.Invalidate(resourceID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resource); err != nil {
		h.logger.Error("failed to encode resource response", "error", err, "request_id", requestID)
	}
}
