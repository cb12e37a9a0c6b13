package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "decision-hub/docs" // This is for Swagger
	"decision-hub/internal/auth"
	"decision-hub/internal/config"
	"decision-hub/internal/database"
	"decision-hub/internal/handlers"
	"decision-hub/internal/logger"
	"decision-hub/internal/middleware"
	"decision-hub/internal/repository"
	"decision-hub/internal/runguard"
	"decision-hub/internal/service"

	httpSwagger "github.com/swaggo/http-swagger"
)

// @title DecisionHub API
// @version 1.0
// @description Team decision API: options, criteria, personal weights, evaluations and AI scoring aggregated into one ranking

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("Starting application", "name", cfg.App.Name, "version", cfg.App.Version, "env", cfg.App.Env)

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Database connection established")

	// Run database migrations
	migrator := database.NewMigrationExecutor(db.DB)
	applied, err := migrator.RunMigrations(context.Background(), cfg.Database.MigrationsPath)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed", "applied", applied)

	// Optional Redis for the AI run guard and shared rate limiting
	redisClient, err := connectRedis(&cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	var guard runguard.Guard = runguard.Noop{}
	if redisClient != nil {
		defer redisClient.Close()
		guard = runguard.NewRedisGuard(redisClient, cfg.Redis.AIRunTTL, cfg.Redis.KeyPrefix)
		slog.Info("Redis connected - AI run guard and shared rate limiting enabled")
	} else {
		slog.Info("Redis not configured - using in-process rate limiting")
	}

	// Scoring oracle, with the API key from Vault when enabled
	scoringOracle, err := buildOracle(cfg)
	if err != nil {
		slog.Error("Failed to initialize AI scoring", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	decisionRepo := repository.NewDecisionRepository(db.DB)
	optionRepo := repository.NewOptionRepository(db.DB)
	criterionRepo := repository.NewCriterionRepository(db.DB)
	membershipRepo := repository.NewMembershipRepository(db.DB)
	weightRepo := repository.NewWeightRepository(db.DB)
	evaluationRepo := repository.NewEvaluationRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	decisionService := service.NewDecisionService(
		db.DB,
		decisionRepo,
		optionRepo,
		criterionRepo,
		membershipRepo,
		weightRepo,
		evaluationRepo,
		commentRepo,
		scoringOracle,
		guard,
	)

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, redisClient, cfg.Redis.KeyPrefix)
	defer rateLimiter.Close()

	// Initialize handlers
	decisionHandler := handlers.NewDecisionHandler(decisionService)
	teamHandler := handlers.NewTeamHandler(decisionService)
	commentHandler := handlers.NewCommentHandler(decisionService)

	// Setup router
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, authMw, decisionHandler, teamHandler, commentHandler)

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(r.Context()); err != nil {
			slog.Warn("Health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			if _, err := w.Write([]byte(`{"status":"unhealthy","database":"error"}`)); err != nil {
				slog.Error("Failed to write health check response", "error", err)
			}
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy","version":"` + cfg.App.Version + `"}`)); err != nil {
			slog.Error("Failed to write health check response", "error", err)
		}
	})

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.LoggingMiddleware(
		middleware.SecurityHeaders(
			corsMw.Handler(
				rateLimiter.Limit(mux),
			),
		),
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
