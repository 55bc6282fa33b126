// Package main is the entry point for the reservation commit engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitaliisemenov/reservo/internal/api"
	"github.com/vitaliisemenov/reservo/internal/api/middleware"
	"github.com/vitaliisemenov/reservo/internal/cache"
	"github.com/vitaliisemenov/reservo/internal/config"
	"github.com/vitaliisemenov/reservo/internal/repository"
	"github.com/vitaliisemenov/reservo/internal/service"
	"github.com/vitaliisemenov/reservo/internal/store"
	"github.com/vitaliisemenov/reservo/pkg/logger"
)

const (
	serviceName    = "reservo"
	serviceVersion = "1.0.0"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var configPath = flag.String("config", "", "Path to YAML configuration file")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s version %s\n", serviceName, serviceVersion)
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	log.Info("starting reservation commit engine", "service", serviceName, "version", serviceVersion)

	ctx := context.Background()

	s := store.New(&store.Config{
		Host:              cfg.Database.Host,
		Port:              cfg.Database.Port,
		Database:          cfg.Database.Database,
		User:              cfg.Database.User,
		Password:          cfg.Database.Password,
		SSLMode:           cfg.Database.SSLMode,
		MaxConns:          cfg.Database.MaxConnections,
		MinConns:          cfg.Database.MinConnections,
		MaxConnLifetime:   time.Duration(cfg.Database.MaxConnLifetimeSeconds) * time.Second,
		MaxConnIdleTime:   time.Duration(cfg.Database.MaxConnIdleTimeSeconds) * time.Second,
		ConnectTimeout:    time.Duration(cfg.Database.ConnectTimeoutSeconds) * time.Second,
		HealthCheckPeriod: time.Duration(cfg.Database.HealthCheckPeriodSecond) * time.Second,
		StatementTimeout:  time.Duration(cfg.Database.StatementTimeoutMs) * time.Millisecond,
		LockTimeout:       time.Duration(cfg.Database.LockTimeoutMs) * time.Millisecond,
	}, log)

	if err := s.Connect(ctx); err != nil {
		log.Error("failed to connect to store", "error", err)
		os.Exit(1)
	}
	log.Info("connected to store")
	defer func() { _ = s.Close() }()

	resources := repository.NewResourceRepository(s, log)
	reservations := repository.NewReservationRepository(s, log)

	availability, err := cache.New(cfg.Cache.MaxSize, time.Duration(cfg.Cache.TTLMs)*time.Millisecond, resources, log)
	if err != nil {
		log.Error("failed to construct availability cache", "error", err)
		os.Exit(1)
	}

	maintenance := service.NewMaintenanceFlag(s, 2*time.Second, log)
	commitService := service.NewCommitService(s, resources, reservations, availability, maintenance, log)
	cancelService := service.NewCancelService(s, resources, reservations, availability, log)

	routerConfig := api.DefaultRouterConfig(log)
	routerConfig.Store = s
	routerConfig.Resources = resources
	routerConfig.Reservations = reservations
	routerConfig.Availability = availability
	routerConfig.Commit = commitService
	routerConfig.Cancel = cancelService
	routerConfig.RateLimitPerMinute = cfg.RateLimit.RequestsPerMinute
	routerConfig.RateLimitBurst = cfg.RateLimit.Burst
	routerConfig.EnableRateLimit = cfg.RateLimit.Enabled
	routerConfig.EnableAuth = cfg.Auth.Enabled
	routerConfig.EnableCORS = cfg.CORS.Enabled
	routerConfig.EnableMetrics = cfg.Metrics.Enabled
	routerConfig.CORSConfig.AllowedOrigins = cfg.CORS.AllowedOrigins

	apiKeys := make(map[string]*middleware.User)
	if cfg.Auth.APIKey != "" {
		apiKeys[cfg.Auth.APIKey] = &middleware.User{ID: "service", Role: middleware.RoleOperator, APIKey: cfg.Auth.APIKey}
	}
	if cfg.Auth.AdminAPIKey != "" {
		apiKeys[cfg.Auth.AdminAPIKey] = &middleware.User{ID: "admin", Role: middleware.RoleAdmin, APIKey: cfg.Auth.AdminAPIKey}
	}
	routerConfig.AuthConfig = middleware.AuthConfig{EnableAPIKey: true, APIKeys: apiKeys}

	router := api.NewRouter(routerConfig)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	sig := <-quit
	log.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()

	go func() {
		<-quit
		log.Warn("second shutdown signal received, forcing exit")
		os.Exit(1)
	}()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited cleanly")
}
