package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/pirateclash/internal/catalog"
	"github.com/mcoot/pirateclash/internal/dependencies/clock"
	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/jobs"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/auth"
	"github.com/mcoot/pirateclash/internal/services/battle"
	"github.com/mcoot/pirateclash/internal/services/bot"
	"github.com/mcoot/pirateclash/internal/services/combat"
	"github.com/mcoot/pirateclash/internal/services/profile"
	"github.com/mcoot/pirateclash/internal/storage"
	"github.com/mcoot/pirateclash/internal/storage/memory"
	redisstorage "github.com/mcoot/pirateclash/internal/storage/redis"
	"github.com/mcoot/pirateclash/internal/storage/relational"
	"github.com/mcoot/pirateclash/internal/stream"
)

// Storage type constants
const (
	StorageTypeMemory   = "memory"
	StorageTypeRedis    = "redis"
	StorageTypePostgres = "postgres"
	StorageTypeSQLite   = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Catalog          *catalog.Catalog
	Calculator       *combat.Calculator
	BotService       *bot.Service
	AuthService      *auth.Service
	ProfileService   *profile.Service
	BattleController *battle.Controller
	HubManager       *stream.HubManager

	// Jobs is nil unless background jobs are enabled
	Jobs *jobs.Scheduler

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// StorageType selects the storage backend ("memory", "redis", "postgres" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds SQL connection settings for "postgres" and "sqlite".
	// The driver is taken from StorageType. If nil, sqlite uses its default file.
	SQLConfig *relational.Config
	// CatalogPath overrides the embedded character catalog (optional)
	CatalogPath string
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// BattleConfig tunes the battle controller; zero fields use defaults
	BattleConfig battle.Config
	// JobsEnabled starts the background job scheduler
	JobsEnabled bool
	// JobsConfig sets job intervals; zero fields use defaults
	JobsConfig jobs.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	battleCfg := cfg.BattleConfig
	if battleCfg.AITurnDelay == 0 {
		battleCfg.AITurnDelay = battle.DefaultConfig().AITurnDelay
	}

	app, err := newWithDependencies(store, cat, clock.New(), random.New(), authCfg, battleCfg, logger)
	if err != nil {
		closeStorage(store)
		return nil, err
	}

	if cfg.JobsEnabled {
		scheduler, err := jobs.New(cfg.JobsConfig, jobs.Dependencies{
			Sessions:    app.AuthService,
			Battles:     app.BattleController,
			Streams:     app.HubManager,
			Leaderboard: app.ProfileService,
		}, logger)
		if err != nil {
			closeStorage(store)
			return nil, err
		}
		app.Jobs = scheduler
	}

	logger.Info("application wired",
		slog.String("storage", storageTypeOrDefault(cfg.StorageType)),
		slog.Int("characters", len(cat.All())),
		slog.Bool("jobs", cfg.JobsEnabled),
	)
	return app, nil
}

func storageTypeOrDefault(t string) string {
	if t == "" {
		return StorageTypeMemory
	}
	return t
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFromFile(path)
}

func newStorage(cfg Config) (storage.Storage, error) {
	switch storageTypeOrDefault(cfg.StorageType) {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypePostgres:
		if cfg.SQLConfig == nil || cfg.SQLConfig.DSN == "" {
			return nil, errors.New("SQLConfig with a DSN required when StorageType is postgres")
		}
		sqlCfg := *cfg.SQLConfig
		sqlCfg.Driver = relational.DriverPostgres
		return relational.Open(sqlCfg)
	case StorageTypeSQLite:
		sqlCfg := relational.DefaultConfig()
		if cfg.SQLConfig != nil && cfg.SQLConfig.DSN != "" {
			sqlCfg = *cfg.SQLConfig
		}
		sqlCfg.Driver = relational.DriverSQLite
		return relational.Open(sqlCfg)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be one of memory, redis, postgres, sqlite", cfg.StorageType)
	}
}

func closeStorage(store storage.Storage) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	cat *catalog.Catalog,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	battleCfg battle.Config,
	logger *slog.Logger,
) (*App, error) {
	calculator := combat.NewCalculator(rnd)
	botService := bot.NewService(bot.DefaultStrategies(rnd), calculator, logger)
	if battleCfg.Strategy != "" && !botService.HasStrategy(battleCfg.Strategy) {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownBotStrategy, battleCfg.Strategy)
	}

	authService := auth.New(store, clk, authCfg, logger)
	profileService := profile.New(store, clk, rnd, logger)
	hubManager := stream.NewHubManager(logger)
	battleController := battle.NewController(cat, botService, calculator, profileService, hubManager,
		clk, rnd, battleCfg, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		Random:           rnd,
		Catalog:          cat,
		Calculator:       calculator,
		BotService:       botService,
		AuthService:      authService,
		ProfileService:   profileService,
		BattleController: battleController,
		HubManager:       hubManager,
		logger:           logger,
	}, nil
}

// Start launches background jobs, if enabled
func (a *App) Start() {
	if a.Jobs != nil {
		a.Jobs.Start()
	}
}

// Close stops background work and releases storage connections
func (a *App) Close() error {
	var errs []error
	if a.Jobs != nil {
		if err := a.Jobs.Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	a.BattleController.Shutdown()
	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
