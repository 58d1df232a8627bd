package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcoot/pirateclash/internal/api"
	"github.com/mcoot/pirateclash/internal/factory"
	redisstorage "github.com/mcoot/pirateclash/internal/storage/redis"
	"github.com/mcoot/pirateclash/internal/storage/relational"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// A missing .env file is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env file", slog.String("error", err.Error()))
	}

	cfg, serverConfig, err := loadConfig(os.Getenv)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	cfg.Logger = logger

	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close application", slog.String("error", err.Error()))
		}
	}()
	app.Start()

	router := api.NewRouter(api.RouterConfig{
		Logger:           logger,
		AuthService:      app.AuthService,
		ProfileService:   app.ProfileService,
		BattleController: app.BattleController,
		Catalog:          app.Catalog,
		HubManager:       app.HubManager,
	})

	server := api.NewServer(router, serverConfig, logger)
	if err := server.Listen(); err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("jobs", cfg.JobsEnabled),
	)

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return
	}

	logger.Info("server stopped")
}

// loadConfig builds the factory and HTTP server configuration from
// environment variables
func loadConfig(getenv func(string) string) (factory.Config, api.ServerConfig, error) {
	serverConfig := api.DefaultServerConfig()
	cfg := factory.Config{
		StorageType: getenv("STORAGE_TYPE"),
		CatalogPath: getenv("CATALOG_PATH"),
	}

	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return cfg, serverConfig, fmt.Errorf("invalid PORT %q", port)
		}
		serverConfig.Port = p
	}

	switch cfg.StorageType {
	case factory.StorageTypeRedis:
		redisURL := getenv("REDIS_URL")
		if redisURL == "" {
			return cfg, serverConfig, errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	case factory.StorageTypePostgres, factory.StorageTypeSQLite:
		sqlCfg := relational.DefaultConfig()
		sqlCfg.Driver = cfg.StorageType
		if dsn := getenv("DATABASE_URL"); dsn != "" {
			sqlCfg.DSN = dsn
		} else if cfg.StorageType == factory.StorageTypePostgres {
			return cfg, serverConfig, errors.New("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
		cfg.SQLConfig = &sqlCfg
	}

	var err error
	if cfg.BattleConfig.AITurnDelay, err = parseDuration(getenv, "AI_TURN_DELAY"); err != nil {
		return cfg, serverConfig, err
	}
	if cfg.AuthConfig.SessionDuration, err = parseDuration(getenv, "SESSION_DURATION"); err != nil {
		return cfg, serverConfig, err
	}

	if enabled := getenv("JOBS_ENABLED"); enabled != "" {
		if cfg.JobsEnabled, err = strconv.ParseBool(enabled); err != nil {
			return cfg, serverConfig, fmt.Errorf("invalid JOBS_ENABLED %q: %w", enabled, err)
		}
	}

	return cfg, serverConfig, nil
}

// parseDuration reads an optional duration; unset yields zero so the
// component default applies
func parseDuration(getenv func(string) string, key string) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}
