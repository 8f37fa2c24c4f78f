package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ledgerlink/exchange-bot/internal/adapters/database/pgsql"
	"github.com/ledgerlink/exchange-bot/internal/adapters/events/kafka"
	"github.com/ledgerlink/exchange-bot/internal/adapters/ledgerhttp"
	"github.com/ledgerlink/exchange-bot/internal/adapters/rates"
	"github.com/ledgerlink/exchange-bot/internal/core/ports/clients"
	portsrepo "github.com/ledgerlink/exchange-bot/internal/core/ports/repositories"
	"github.com/ledgerlink/exchange-bot/internal/core/services"
	"github.com/ledgerlink/exchange-bot/internal/handlers"
	"github.com/ledgerlink/exchange-bot/internal/middleware"
	"github.com/ledgerlink/exchange-bot/internal/platform/config"
	"github.com/ledgerlink/exchange-bot/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// The sync activity log is optional. Without a database the bot still
	// mirrors events, it just keeps no audit trail.
	var syncLogRepo portsrepo.SyncLogRepository
	if cfg.DatabaseURL != "" {
		dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)

		if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}

		syncLogRepo = pgsql.NewSyncLogRepository(dbPool)
	} else {
		logger.Info("Sync activity log disabled, no database configured.")
	}

	// Rate cache is best effort. A broken cache file should not stop the bot.
	var rateCache *rates.Cache
	if cfg.RateCachePath != "" {
		rateCache, err = rates.NewCache(cfg.RateCachePath)
		if err != nil {
			logger.Warn("Failed to open rate cache, continuing without it", slog.String("error", err.Error()))
			rateCache = nil
		} else {
			defer rateCache.Close()
		}
	}

	var publisher clients.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	ledgerClient := ledgerhttp.NewClient(ledgerhttp.Config{
		APIURL:       cfg.LedgerAPIURL,
		AppURL:       cfg.LedgerAppURL,
		APIKey:       cfg.LedgerAPIKey,
		ClientID:     cfg.LedgerClientID,
		ClientSecret: cfg.LedgerClientSecret,
		TokenURL:     cfg.LedgerTokenURL,
	})
	rateProvider := rates.NewClient(rateCache)

	svcContainer := services.NewServiceContainer(ledgerClient, rateProvider, syncLogRepo, publisher, cfg.RatesAPIURL)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS, rate limiting)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT value", slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(memory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, svcContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending migrations over a temporary stdlib
// connection, using the pgx stdlib driver to stay compatible with the pool.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
