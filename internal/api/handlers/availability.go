package handlers

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/reservo/internal/api/httperr"
	"github.com/vitaliisemenov/reservo/internal/api/middleware"
	"github.com/vitaliisemenov/reservo/internal/cache"
	"github.com/vitaliisemenov/reservo/internal/domain"
)

// AvailabilityHandler serves the read-side availability view and the
// operator cache-bypass endpoints.
type AvailabilityHandler struct {
	availability *cache.AvailabilityCache
	logger       *slog.Logger
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(availability *cache.AvailabilityCache, logger *slog.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AvailabilityHandler{availability: availability, logger: logger}
}

// Get handles GET /api/v1/availability/{resourceId}.
//
// @Summary Fetch the cached availability view for a resource
// @Tags Availability
// @Produce json
// @Param resourceId path string true "Resource ID"
// @Success 200 {object} domain.AvailabilityView
// @Failure 404 {object} httperr.APIError
// @Router /api/v1/availability/{resourceId} [get]
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	resourceID, err := domain.NewResourceID(mux.Vars(r)["resourceId"])
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	view, err := h.availability.Get(r.Context(), resourceID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	ttl := h.availability.Stats().TTL
	etag := etagFor(view)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", int(ttl.Seconds()), int(2*ttl.Seconds())))

	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(view); err != nil {
		h.logger.Error("failed to encode availability response", "error", err, "request_id", requestID)
	}
}

// InvalidateOne handles DELETE /api/v1/availability/cache/{id}, an
// operator bypass that forces the next read to rematerialize.
//
// @Summary Evict one resource's cached availability view
// @Tags Availability
// @Param id path string true "Resource ID"
// @Success 204
// @Router /api/v1/availability/cache/{id} [delete]
func (h *AvailabilityHandler) InvalidateOne(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	resourceID, err := domain.NewResourceID(mux.Vars(r)["id"])
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	h.availability.Invalidate(resourceID)
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateAll handles DELETE /api/v1/availability/cache, clearing the
// whole availability cache and resetting its hit/miss counters.
//
// @Summary Evict the entire availability cache
// @Tags Availability
// @Success 204
// @Router /api/v1/availability/cache [delete]
func (h *AvailabilityHandler) InvalidateAll(w http.ResponseWriter, r *http.Request) {
	h.availability.InvalidateAll()
	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/v1/availability/cache/stats, a diagnostics
// surface over the cache's hit ratio and occupancy.
//
// @Summary Availability cache statistics
// @Tags Availability
// @Produce json
// @Success 200 {object} cache.Stats
// @Router /api/v1/availability/cache/stats [get]
func (h *AvailabilityHandler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(h.availability.Stats())
}

// etagFor derives a strong ETag validator from the fields that change whenever the
// underlying resource changes; CachedAt is excluded so repeated rematerializations
// of an otherwise-unchanged resource don't churn the validator.
func etagFor(view domain.AvailabilityView) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%d:%d", view.ResourceID, view.State, view.Capacity, view.CurrentBookings, view.RemainingCapacity)))
	return fmt.Sprintf(`"%x"`, sum[:8])
}
