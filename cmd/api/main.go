package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"

	"github.com/sjperalta/expenseflow-api/internal/config"
	"github.com/sjperalta/expenseflow-api/internal/database"
	"github.com/sjperalta/expenseflow-api/internal/handlers"
	"github.com/sjperalta/expenseflow-api/internal/jobs"
	"github.com/sjperalta/expenseflow-api/internal/middleware"
	"github.com/sjperalta/expenseflow-api/internal/repository"
	"github.com/sjperalta/expenseflow-api/internal/services"
	"github.com/sjperalta/expenseflow-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}

	// Seed development data when requested
	if cfg.SeedData {
		if err := database.Seed(db); err != nil {
			logger.Error("Failed to seed database", "error", err)
			os.Exit(1)
		}
		logger.Info("Database seeded")
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, worker)

	// Setup router
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

// scheduleJobs registers recurring background tasks
func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Expired refresh tokens pile up from rotation; sweep them daily.
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		removed, err := svcs.Auth.CleanupExpiredTokens(ctx)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("Removed expired refresh tokens", "count", removed)
		}
		return nil
	})
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Check)

		// Authentication (public)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Expenses
			protected.POST("/expenses", h.Expense.Create)
			protected.GET("/expenses", h.Expense.Index)
			protected.GET("/expenses/:expense_id", h.Expense.Show)
			protected.DELETE("/expenses/:expense_id", h.Expense.Delete)

			// Approvals
			protected.GET("/approvals/pending", h.Approval.Pending)
			protected.GET("/expenses/:expense_id/approvals", h.Approval.History)
			protected.POST("/expenses/:expense_id/approve", h.Approval.Approve)
			protected.POST("/expenses/:expense_id/reject", h.Approval.Reject)

			// Rules (read for everyone, writes are admin-only below)
			protected.GET("/rules", h.Rule.Index)

			// Users
			protected.GET("/users/:user_id", middleware.RequireAdminOrOwner(), h.User.Show)

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/users", h.User.Index)
				admin.POST("/users", h.User.Create)
				admin.PUT("/users/:user_id", h.User.Update)
				admin.PUT("/users/:user_id/toggle_status", h.User.ToggleStatus)
				admin.DELETE("/users/:user_id", h.User.Delete)
				admin.POST("/users/:user_id/restore", h.User.Restore)

				admin.POST("/rules", h.Rule.Create)
				admin.DELETE("/rules/:rule_id", h.Rule.Deactivate)

				admin.GET("/audit", h.Audit.Index)
			}
		}
	}

	return router
}
