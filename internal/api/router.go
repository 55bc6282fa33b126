package api

import (
	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/vitaliisemenov/reservo/internal/api/handlers"
	"github.com/vitaliisemenov/reservo/internal/api/middleware"
	"github.com/vitaliisemenov/reservo/internal/cache"
	"github.com/vitaliisemenov/reservo/internal/repository"
	"github.com/vitaliisemenov/reservo/internal/service"
	"github.com/vitaliisemenov/reservo/internal/store"
)

// RouterConfig holds router configuration: which middleware to apply and
// the handler dependencies it wires into routes.
type RouterConfig struct {
	EnableAuth        bool
	EnableRateLimit   bool
	EnableCompression bool
	EnableCORS        bool
	EnableMetrics     bool

	AuthConfig middleware.AuthConfig

	RateLimitPerMinute int
	RateLimitBurst     int

	CORSConfig middleware.CORSConfig

	Logger *slog.Logger

	Store        *store.Store
	Resources    *repository.ResourceRepository
	Reservations *repository.ReservationRepository
	Availability *cache.AvailabilityCache
	Commit       *service.CommitService
	Cancel       *service.CancelService
}

// DefaultRouterConfig returns default router configuration; callers still
// must set Store/Resources/Reservations/Availability/Commit/Cancel.
func DefaultRouterConfig(logger *slog.Logger) RouterConfig {
	return RouterConfig{
		EnableAuth:         true,
		EnableRateLimit:    true,
		EnableCompression:  true,
		EnableCORS:         true,
		EnableMetrics:      true,
		RateLimitPerMinute: 100,
		RateLimitBurst:     20,
		CORSConfig:         middleware.DefaultCORSConfig(),
		Logger:             logger,
		AuthConfig: middleware.AuthConfig{
			EnableAPIKey: true,
			EnableJWT:    false,
			APIKeys:      make(map[string]*middleware.User),
		},
	}
}

// NewRouter creates the API router with all middleware configured.
//
// The middleware stack is applied in order:
//  1. RequestID (always)
//  2. Logging (always)
//  3. Metrics (if enabled)
//  4. CORS (if enabled)
//  5. Compression (if enabled)
//  6. Route-specific: Auth, RateLimit, Validation, Admin
//
// @title Reservation Commit Engine API
// @version 1.0.0
// @description Concurrency-safe reservation commit/cancel engine with a bounded availability cache
// @contact.name Platform Team
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func NewRouter(config RouterConfig) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.LoggingMiddleware(config.Logger))

	if config.EnableMetrics {
		router.Use(middleware.MetricsMiddleware)
	}
	if config.EnableCORS {
		router.Use(middleware.CORSMiddleware(config.CORSConfig))
	}
	if config.EnableCompression {
		router.Use(middleware.CompressionMiddleware)
	}

	router.HandleFunc("/healthz", handlers.Health(config.Store)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.PathPrefix("/api/v1/docs").Handler(httpSwagger.WrapHandler)

	setupReservationRoutes(router, config)
	setupAvailabilityRoutes(router, config)
	setupAdminRoutes(router, config)

	return router
}

func setupReservationRoutes(router *mux.Router, config RouterConfig) {
	h := handlers.NewReservationHandler(config.Commit, config.Cancel, config.Reservations, config.Logger)

	reservations := router.PathPrefix("/api/v1/reservations").Subrouter()
	if config.EnableAuth {
		reservations.Use(middleware.AuthMiddleware(config.AuthConfig))
	}
	if config.EnableRateLimit {
		reservations.Use(middleware.RateLimitMiddleware(config.RateLimitPerMinute, config.RateLimitBurst))
	}
	reservations.Use(middleware.ValidationMiddleware)

	reservations.HandleFunc("", h.Create).Methods("POST")
	reservations.HandleFunc("/{id}", h.Get).Methods("GET")
	reservations.HandleFunc("/{id}/cancel", h.Cancel).Methods("POST")
}

func setupAvailabilityRoutes(router *mux.Router, config RouterConfig) {
	h := handlers.NewAvailabilityHandler(config.Availability, config.Logger)

	availability := router.PathPrefix("/api/v1/availability").Subrouter()
	if config.EnableRateLimit {
		availability.Use(middleware.RateLimitMiddleware(config.RateLimitPerMinute, config.RateLimitBurst))
	}
	availability.HandleFunc("/{resourceId}", h.Get).Methods("GET")
	availability.HandleFunc("/cache/stats", h.Stats).Methods("GET")

	admin := router.PathPrefix("/api/v1/availability/cache").Subrouter()
	if config.EnableAuth {
		admin.Use(middleware.AuthMiddleware(config.AuthConfig))
		admin.Use(middleware.AdminMiddleware)
	}
	admin.HandleFunc("/{id}", h.InvalidateOne).Methods("DELETE")
	admin.HandleFunc("", h.InvalidateAll).Methods("DELETE")
}

func setupAdminRoutes(router *mux.Router, config RouterConfig) {
	h := handlers.NewAdminHandler(config.Resources, config.Availability, config.Logger)

	admin := router.PathPrefix("/api/v1/admin/resources").Subrouter()
	if config.EnableAuth {
		admin.Use(middleware.AuthMiddleware(config.AuthConfig))
		admin.Use(middleware.AdminMiddleware)
	}
	admin.Use(middleware.ValidationMiddleware)

	admin.HandleFunc("", h.CreateResource).Methods("POST")
	admin.HandleFunc("/{id}/open", h.Open).Methods("POST")
	admin.HandleFunc("/{id}/close", h.Close).Methods("POST")
}
