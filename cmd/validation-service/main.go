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

	"github.com/complyflow/complyflow-backend/internal/validation/events"
	"github.com/complyflow/complyflow-backend/internal/validation/extract"
	"github.com/complyflow/complyflow-backend/internal/validation/handler"
	"github.com/complyflow/complyflow-backend/internal/validation/linkage"
	"github.com/complyflow/complyflow-backend/internal/validation/repository"
	"github.com/complyflow/complyflow-backend/internal/validation/resolver"
	"github.com/complyflow/complyflow-backend/internal/validation/rulestore"
	"github.com/complyflow/complyflow-backend/internal/validation/service"
	"github.com/complyflow/complyflow-backend/pkg/config"
	"github.com/complyflow/complyflow-backend/pkg/database"
	"github.com/complyflow/complyflow-backend/pkg/httputil"
	"github.com/complyflow/complyflow-backend/pkg/logger"
	"github.com/complyflow/complyflow-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("validation-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("validation-service", cfg.Server.Environment)
	log.Info().Msg("starting Validation Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize audit repository
	auditRepo := repository.NewAuditRepository(db)

	// Initialize the document resolution pipeline
	fetcher := extract.NewFetcher(cfg.Resolver.TaskTimeout)
	registry := extract.NewRegistry(
		extract.NewVisionExtractor(cfg.Vision.URL, cfg.Vision.Timeout),
		extract.NewPhotoAssessor(),
	)
	docResolver := resolver.New(fetcher, registry, int64(cfg.Resolver.GlobalConcurrency), cfg.Resolver.TaskTimeout, log)

	// Initialize rule store and linkage client
	ruleStore := rulestore.New(&cfg.RuleStore, log)
	linkageClient := linkage.New(&cfg.Linkage, log)

	// Initialize service
	validationService := service.New(ruleStore, docResolver, linkageClient, auditRepo, publisher, log)

	// Initialize handler
	validationHandler := handler.New(validationService, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httputil.ServiceAuth(&cfg.JWT)) // Service token auth with /health exception

	// Health check (no auth required - handled by middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "validation-service",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (service token required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/", validationHandler.Routes())
	})

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

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
