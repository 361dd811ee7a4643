package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/SscSPs/water_permits_app/internal/core/domain"
	portsrepo "github.com/SscSPs/water_permits_app/internal/core/ports/repositories"
	"github.com/SscSPs/water_permits_app/internal/core/services"
	"github.com/SscSPs/water_permits_app/internal/handlers"
	"github.com/SscSPs/water_permits_app/internal/middleware"
	"github.com/SscSPs/water_permits_app/internal/platform/config"
	"github.com/SscSPs/water_permits_app/internal/platform/metrics"
	"github.com/SscSPs/water_permits_app/internal/repositories/database/memory"
	"github.com/SscSPs/water_permits_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/water_permits_app/internal/utils"
	"github.com/SscSPs/water_permits_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title Water Permits Backend API
// @version 1.0
// @description Review workflow for water abstraction permit applications.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var repos portsrepo.RepositoryProvider
	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		repos = memory.NewRepositoryProvider()
		if err := seedBootstrapUser(repos.UserRepo, logger); err != nil {
			logger.Error("Failed to seed bootstrap user", slog.String("error", err.Error()))
			os.Exit(1)
		}
	default:
		logger.Info("Running database migrations...")
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, database.MigrateUp, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")
		repos = pgsql.NewRepositoryProvider(dbPool)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(registry)

	serviceContainer := services.NewServiceContainer(cfg, repos, appMetrics)

	if err := handlers.RegisterValidators(); err != nil {
		logger.Error("Failed to register request validators", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, appMetrics, registry)

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage", cfg.StorageDriver))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// seedBootstrapUser creates an ICT account for in-memory runs, which otherwise start with no
// users and no way to log in. The password comes from BOOTSTRAP_PASSWORD, or is generated and
// logged once when unset.
func seedBootstrapUser(users portsrepo.UserRepositoryFacade, logger *slog.Logger) error {
	password := os.Getenv("BOOTSTRAP_PASSWORD")
	if password == "" {
		generated, err := utils.GenerateBootstrapPassword(12)
		if err != nil {
			return err
		}
		password = generated
		logger.Warn("BOOTSTRAP_PASSWORD not set; generated a one-time password for user ict",
			slog.String("password", password))
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	admin := domain.User{
		UserID:       uuid.NewString(),
		Username:     "ict",
		Name:         "ICT Administrator",
		Role:         domain.RoleICT,
		PasswordHash: hash,
		IsActive:     true,
		AuditFields:  domain.NewAuditFields("bootstrap", time.Now().UTC()),
	}
	if err := users.SaveUser(context.Background(), admin); err != nil {
		return err
	}
	logger.Info("Seeded bootstrap ICT user", slog.String("username", admin.Username))
	return nil
}
