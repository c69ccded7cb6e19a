package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/albaseet/catalog/internal/config"
	"github.com/albaseet/catalog/internal/core"
	"github.com/albaseet/catalog/internal/importer"
	"github.com/albaseet/catalog/internal/logging"
	"github.com/albaseet/catalog/internal/observability"
	"github.com/albaseet/catalog/internal/store"
	"github.com/albaseet/catalog/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database_driver", cfg.Database.Driver,
		"cache_enabled", cfg.Cache.RedisAddr != "",
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()

	var repo store.Repository
	switch cfg.Database.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory product store; products are lost on restart")
		repo = store.NewMemory()
	default:
		pool, err := openPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if cfg.Database.AutoMigrate {
			if err := pg.EnsureSchema(ctx); err != nil {
				slog.Error("failed to create schema", "error", err)
				os.Exit(1)
			}
		}
		repo = pg
	}

	if cfg.Cache.RedisAddr != "" {
		client, err := store.NewRedisClient(ctx, cfg.Cache.RedisAddr)
		if err != nil {
			slog.Warn("redis unavailable, product cache disabled", "addr", cfg.Cache.RedisAddr, "error", err)
		} else {
			defer client.Close()
			repo = store.NewCached(repo, client, cfg.Cache.TTL)
			slog.Info("product cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
		}
	}

	normalizer := importer.NewNormalizer()
	normalizer.DefaultStock = cfg.Import.DefaultStock
	normalizer.FallbackCategory = cfg.Import.FallbackCategory
	normalizer.FallbackSubcategory = cfg.Import.FallbackSubcategory

	metrics := observability.NewMetrics()

	service, err := core.NewService(core.Options{
		Repo:          repo,
		Normalizer:    normalizer,
		Limiter:       core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		Metrics:       metrics,
		SessionTTL:    cfg.Import.SessionTTL,
		ImportTimeout: cfg.Import.Timeout,
		MaxFileSize:   cfg.Import.MaxFileSize,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// Warm the snapshot so the first storefront request is served from memory.
	if err := service.Refresh(ctx); err != nil {
		slog.Warn("initial catalog load failed, retrying on first request", "error", err)
	}

	server := web.NewServer(service, cfg, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go service.StartSessionSweeper(ctx, cfg.Import.SessionTTL/2)

	// Run returns once in-flight requests, such as an import commit, have
	// finished, so the pool and cache close after the last handler.
	if err := server.Run(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// openPool connects to PostgreSQL with the configured pool limits.
func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
