// Package httperr maps domain faults to the wire-level error taxonomy of
// §7: stable string codes and HTTP status lines, centralized so handlers
// never hand-pick a status code themselves.
package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vitaliisemenov/reservo/internal/domain"
	"github.com/vitaliisemenov/reservo/internal/store"
)

// Code is a stable wire-level error tag; the underlying type is internal.
type Code string

const (
	CodeResourceNotFound    Code = "RESOURCE_NOT_FOUND"
	CodeReservationNotFound Code = "RESERVATION_NOT_FOUND"
	CodeInvalidState        Code = "INVALID_STATE"
	CodeInvalidQuantity     Code = "INVALID_QUANTITY"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeConcurrencyConflict Code = "CONCURRENCY_CONFLICT"
	CodeMaintenanceMode     Code = "MAINTENANCE_MODE"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// APIError is the structured error body written to the response.
type APIError struct {
	Code      Code   `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

func newAPIError(code Code, message string) *APIError {
	return &APIError{Code: code, Message: message, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// StatusCode returns the HTTP status for a Code, per §7's taxonomy.
func (c Code) StatusCode() int {
	switch c {
	case CodeResourceNotFound, CodeReservationNotFound:
		return http.StatusNotFound
	case CodeInvalidState, CodeConcurrencyConflict:
		return http.StatusConflict
	case CodeInvalidQuantity, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeMaintenanceMode:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromDomain classifies err against the domain sentinels and Store fault
// classification, producing the APIError the HTTP boundary writes. Any
// unclassified error becomes an opaque 500 — internal details are never
// leaked to the caller.
func FromDomain(err error) *APIError {
	switch {
	case errors.Is(err, domain.ErrResourceNotFound):
		return newAPIError(CodeResourceNotFound, "resource not found")
	case errors.Is(err, domain.ErrReservationNotFound):
		return newAPIError(CodeReservationNotFound, "reservation not found")
	case errors.Is(err, domain.ErrInvalidState):
		return newAPIError(CodeInvalidState, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		return newAPIError(CodeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return newAPIError(CodeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return newAPIError(CodeConcurrencyConflict, "concurrent modification, please retry")
	case errors.Is(err, domain.ErrMaintenanceMode):
		return newAPIError(CodeMaintenanceMode, "service is in maintenance mode")
	case errors.Is(err, domain.ErrIntegrity):
		return newAPIError(CodeInternal, "internal consistency error")
	case store.IsRetryable(err):
		return newAPIError(CodeConcurrencyConflict, "transient store fault, please retry")
	default:
		return newAPIError(CodeInternal, "an internal error occurred")
	}
}

// Write writes apiErr as the JSON error body with the matching status code,
// stamping requestID if present.
func Write(w http.ResponseWriter, requestID string, apiErr *APIError) {
	apiErr.RequestID = requestID
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Code.StatusCode())
	_ = json.NewEncoder(w).Encode(errorResponse{Error: *apiErr})
}

// WriteDomainError classifies err and writes the resulting APIError.
func WriteDomainError(w http.ResponseWriter, requestID string, err error) {
	Write(w, requestID, FromDomain(err))
}

// Internal is a convenience constructor for handler-local failures that
// don't originate from a domain sentinel; it yields CodeInternal (500).
func Internal(format string, args ...interface{}) *APIError {
	return newAPIError(CodeInternal, fmt.Sprintf(format, args...))
}

// BadRequest is a convenience constructor for request-shape failures caught
// before the domain/service layer is ever invoked.
func BadRequest(message string) *APIError {
	return newAPIError(CodeInvalidInput, message)
}
