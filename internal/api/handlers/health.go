package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vitaliisemenov/reservo/internal/store"
)

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Health handles GET /healthz, reporting the store's connection health.
//
// @Summary Liveness and store connectivity check
// @Tags Ops
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /healthz [get]
func Health(s *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Store: "ok"}
		status := http.StatusOK
		if err := s.Health(ctx); err != nil {
			resp.Status = "degraded"
			resp.Store = err.Error()
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
