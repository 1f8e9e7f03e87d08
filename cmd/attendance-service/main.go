package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/consumers"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/events"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/handler"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/service"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/storage"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/staffdesk/staffdesk-backend/pkg/httputil"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"github.com/staffdesk/staffdesk-backend/pkg/messaging"
)

const serviceName = "attendance-service"

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation(serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(serviceName, cfg.Server.Environment).SetLevel(cfg.Server.LogLevel)
	log.Info().Str("store", cfg.Store.Driver).Msg("starting Attendance Service")

	rules, err := service.RulesFromConfig(&cfg.Attendance)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid attendance rules")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the entry store and apply migrations
	stores, err := storage.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to attendance store")
	}
	defer stores.Close(context.Background())

	applied, err := stores.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to migrate attendance store")
	}
	log.Info().Int("applied", applied).Msg("attendance store up to date")

	// Connect to RabbitMQ when enabled; otherwise run standalone
	var (
		rmq       *messaging.RabbitMQ
		publisher service.EventPublisher = events.NopPublisher{}
	)
	if cfg.RabbitMQ.Enabled {
		rmq, err = messaging.New(ctx, &cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		eventPublisher, err := events.NewAttendanceEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
		publisher = eventPublisher

		directoryConsumer, err := consumers.NewDirectoryEventConsumer(rmq, stores.Directory, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create directory event consumer")
		}
		if err := directoryConsumer.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to start directory event consumer")
		}
	} else {
		log.Warn().Msg("rabbitmq disabled: events are not published and the directory is not synced")
	}

	// Initialize service and handlers
	attendanceService := service.NewAttendanceService(stores.Entries, stores.Directory, publisher, rules, log)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httputil.Editor)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":  "healthy",
			"service": serviceName,
			"store":   stores.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1/attendance", attendanceHandler.Routes)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
