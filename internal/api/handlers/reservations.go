// Package handlers implements the HTTP surface described in SPEC_FULL §6:
// thin adapters that decode, validate, call a service, and map the result
// back onto the wire. No business logic lives here.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/vitaliisemenov/reservo/internal/api/httperr"
	"github.com/vitaliisemenov/reservo/internal/api/middleware"
	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/repository"
	"github.com/vitaliisemenov/reservo/internal/service"
)

var validate = validator.New()

// ReservationHandler exposes the commit/cancel/read endpoints.
type ReservationHandler struct {
	commit       *service.CommitService
	cancel       *service.CancelService
	reservations *repository.ReservationRepository
	logger       *slog.Logger
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(
	commit *service.CommitService,
	cancel *service.CancelService,
	reservations *repository.ReservationRepository,
	logger *slog.Logger,
) *ReservationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHandler{commit: commit, cancel: cancel, reservations: reservations, logger: logger}
}

type createReservationRequest struct {
	ResourceID string `json:"resourceId" validate:"required,max=100"`
	ClientID   string `json:"clientId" validate:"required,max=100"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

type reservationResponse struct {
	Status          string `json:"status"`
	ReservationID   string `json:"reservationId,omitempty"`
	Reason          string `json:"reason,omitempty"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// Create handles POST /api/v1/reservations.
//
// @Summary Commit a reservation
// @Description Attempts to admit a reservation against a resource's capacity
// @Tags Reservations
// @Accept json
// @Produce json
// @Param request body createReservationRequest true "Commit request"
// @Success 201 {object} reservationResponse
// @Failure 400 {object} httperr.APIError
// @Failure 404 {object} httperr.APIError
// @Failure 409 {object} httperr.APIError
// @Failure 503 {object} reservationResponse
// @Router /api/v1/reservations [post]
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.Write(w, requestID, httperr.BadRequest("malformed request body"))
		return
	}
	if err := validate.Struct(req); err != nil {
		httperr.Write(w, requestID, httperr.BadRequest(err.Error()))
		return
	}

	resourceID, err := domain.NewResourceID(req.ResourceID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}
	clientID, err := domain.NewClientID(req.ClientID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	result, err := h.commit.Commit(r.Context(), resourceID, clientID, req.Quantity)
	if errors.Is(err, domain.ErrMaintenanceMode) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(reservationResponse{
			Status:          string(domain.ReservationRejected),
			Reason:          string(httperr.CodeMaintenanceMode),
			ServerTimestamp: time.Now().UnixMilli(),
		})
		return
	}
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	resp := reservationResponse{
		ReservationID:   result.Reservation.ID.String(),
		ServerTimestamp: result.ServerTimestamp.UnixMilli(),
	}
	w.Header().Set("Content-Type", "application/json")
	if result.Success {
		resp.Status = string(domain.ReservationConfirmed)
		w.WriteHeader(http.StatusCreated)
	} else {
		resp.Status = string(domain.ReservationRejected)
		resp.Reason = string(result.Reservation.RejectionReason)
		w.WriteHeader(http.StatusConflict)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode commit response", "error", err, "request_id", requestID)
	}
}

// Cancel handles POST /api/v1/reservations/{id}/cancel.
//
// @Summary Cancel a reservation
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} reservationResponse
// @Failure 404 {object} httperr.APIError
// @Failure 409 {object} httperr.APIError
// @Router /api/v1/reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	reservationID, err := domain.ParseReservationID(mux.Vars(r)["id"])
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	result, err := h.cancel.Cancel(r.Context(), reservationID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	resp := reservationResponse{
		Status:          string(result.Reservation.Status),
		ReservationID:   result.Reservation.ID.String(),
		ServerTimestamp: result.ServerTimestamp.UnixMilli(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode cancel response", "error", err, "request_id", requestID)
	}
}

// Get handles GET /api/v1/reservations/{id}.
//
// @Summary Fetch a reservation by id
// @Tags Reservations
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} domain.Reservation
// @Failure 404 {object} httperr.APIError
// @Router /api/v1/reservations/{id} [get]
func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	reservationID, err := domain.ParseReservationID(mux.Vars(r)["id"])
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	reservation, err := h.reservations.FindByID(r.Context(), reservationID)
	if err != nil {
		httperr.WriteDomainError(w, requestID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(reservation); err != nil {
		h.logger.Error("failed to encode reservation response", "error", err, "request_id", requestID)
	}
}
