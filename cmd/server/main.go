package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"shift-tracker/internal/config"
	"shift-tracker/internal/domain/entities"
	"shift-tracker/internal/domain/services"
	"shift-tracker/internal/infrastructure/cache"
	"shift-tracker/internal/infrastructure/database"
	"shift-tracker/internal/infrastructure/messaging"
	"shift-tracker/internal/infrastructure/metrics"
	"shift-tracker/internal/infrastructure/storage"
	httpServer "shift-tracker/internal/interfaces/http"
	httpHandlers "shift-tracker/internal/interfaces/http/handlers"
	"shift-tracker/internal/interfaces/http/middleware"
	"shift-tracker/internal/repositories"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Application основная структура приложения
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	db       *database.DB
	redis    *redis.Client
	nats     *messaging.NATSPublisher
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Repositories
	eventRepo    repositories.EventRepository
	driverRepo   repositories.DriverRepository
	locationRepo repositories.LiveLocationRepository

	// Services
	shiftService    services.ShiftService
	clockService    services.ClockService
	driverService   services.DriverService
	locationService services.LocationService

	// Servers
	httpServer *httpServer.Server

	// Shutdown
	shutdown     chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		app.logger.Fatal("Application failed", zap.Error(err))
	}

	app.logger.Info("Application stopped gracefully")
}

// NewApplication создает новый экземпляр приложения
func NewApplication() (*Application, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := initLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Starting Shift Tracker",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.String("timezone", cfg.Shifts.Timezone),
	)

	db, err := database.NewPostgresDB(context.Background(), &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		// миграции могут быть уже выполнены
	}

	redisClient, err := cache.NewRedisClient(context.Background(), &cfg.Redis, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB.DB, cfg.Database.Database),
	)

	app := &Application{
		config:   cfg,
		logger:   logger,
		db:       db,
		redis:    redisClient,
		registry: registry,
		metrics:  metrics.New(registry),
		shutdown: make(chan struct{}),
	}

	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initServers(); err != nil {
		return nil, fmt.Errorf("failed to initialize servers: %w", err)
	}

	return app, nil
}

// initLogger инициализирует логгер
func initLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	var zapConfig zap.Config

	if cfg.Format == "json" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zapConfig.Level.SetLevel(level)

	if cfg.OutputPath != "" && cfg.OutputPath != "stdout" {
		zapConfig.OutputPaths = []string{cfg.OutputPath}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}

// initRepositories инициализирует репозитории
func (app *Application) initRepositories() error {
	app.eventRepo = repositories.NewResilientEventRepository(
		repositories.NewEventRepository(app.db, app.logger),
		app.config.Resilience,
		app.logger,
	)
	app.driverRepo = repositories.NewDriverRepository(app.db, app.logger)
	app.locationRepo = repositories.NewLiveLocationRepository(app.redis, app.logger)

	app.logger.Info("Repositories initialized")
	return nil
}

// initServices инициализирует сервисы
func (app *Application) initServices() error {
	var eventBus services.EventPublisher = messaging.NewLogPublisher(app.logger)
	if app.config.NATS.Enabled {
		publisher, err := messaging.NewNATSPublisher(&app.config.NATS, app.logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		app.nats = publisher
		eventBus = publisher
	}

	location, err := app.config.Shifts.Location()
	if err != nil {
		return err
	}

	app.shiftService = services.NewShiftService(
		app.eventRepo,
		app.driverRepo,
		storage.NewPhotoResolver(&app.config.Storage),
		app.metrics,
		services.ShiftSettings{
			Location:         location,
			MaxShiftDuration: app.config.Shifts.MaxShiftDuration,
			StatusLookback:   app.config.Shifts.StatusLookback,
		},
		app.logger,
	)

	app.clockService = services.NewClockService(
		app.eventRepo,
		app.locationRepo,
		app.shiftService,
		eventBus,
		app.metrics,
		entities.Geofence{
			Center: entities.GeoPoint{
				Latitude:  app.config.Geofence.Latitude,
				Longitude: app.config.Geofence.Longitude,
			},
			RadiusKm: app.config.Geofence.RadiusKm,
		},
		app.logger,
	)

	app.driverService = services.NewDriverService(app.driverRepo, eventBus, app.logger)

	app.locationService = services.NewLocationService(
		app.locationRepo,
		app.driverRepo,
		app.config.LiveMap.LocationTTL,
		app.logger,
	)

	app.logger.Info("Services initialized")
	return nil
}

// initServers инициализирует серверы
func (app *Application) initServers() error {
	if app.config.Auth.JWTSecret == "" {
		app.logger.Warn("Auth JWT secret is empty, all API requests will be rejected")
	}
	verifier := middleware.NewTokenVerifier(app.config.Auth.JWTSecret, app.config.Auth.Issuer)

	var limiter middleware.RateLimiter
	if app.config.RateLimit.Enabled {
		limiter = cache.NewRateLimiter(app.redis, "ratelimit:clock",
			app.config.RateLimit.ClockRequests, app.config.RateLimit.Window)
	}

	app.httpServer = httpServer.NewServer(
		app.config,
		app.logger,
		&httpServer.Handlers{
			Clock:    httpHandlers.NewClockHandler(app.clockService, app.logger),
			Shift:    httpHandlers.NewShiftHandler(app.shiftService, app.logger),
			Driver:   httpHandlers.NewDriverHandler(app.driverService, app.logger),
			Location: httpHandlers.NewLocationHandler(app.locationService, app.config.LiveMap.PollInterval, app.logger),
		},
		verifier,
		limiter,
		app.metrics,
		app.registry,
		app.db,
	)

	app.logger.Info("Servers initialized")
	return nil
}

// Run запускает HTTP сервер и фоновые задачи, блокируется до сигнала остановки
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.wg.Add(1)
	go app.runBackgroundTasks()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		if err := app.httpServer.Start(); err != nil {
			app.logger.Error("HTTP server failed", zap.Error(err))
			app.requestShutdown()
		}
	}()

	select {
	case <-ctx.Done():
		app.logger.Info("Received shutdown signal")
	case <-app.shutdown:
		app.logger.Info("Received shutdown from internal source")
	}

	return app.gracefulShutdown()
}

// runBackgroundTasks удаляет устаревшие точки живой карты
func (app *Application) runBackgroundTasks() {
	defer app.wg.Done()

	interval := app.config.LiveMap.LocationTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	cleanupTicker := time.NewTicker(interval)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-cleanupTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			removed, err := app.locationService.CleanupStaleLocations(ctx)
			if err != nil {
				app.logger.Error("Failed to cleanup stale locations", zap.Error(err))
			} else if removed > 0 {
				app.logger.Info("Stale locations removed", zap.Int("count", removed))
			}
			cancel()

		case <-app.shutdown:
			app.logger.Info("Stopping background tasks")
			return
		}
	}
}

func (app *Application) requestShutdown() {
	app.shutdownOnce.Do(func() { close(app.shutdown) })
}

// gracefulShutdown выполняет graceful shutdown
func (app *Application) gracefulShutdown() error {
	app.logger.Info("Starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	app.requestShutdown()

	if err := app.httpServer.Stop(ctx); err != nil {
		app.logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All goroutines stopped")
	case <-ctx.Done():
		app.logger.Error("Shutdown timeout exceeded")
	}

	if app.nats != nil {
		if err := app.nats.Close(); err != nil {
			app.logger.Error("Failed to drain NATS connection", zap.Error(err))
		}
	}

	if err := app.redis.Close(); err != nil {
		app.logger.Error("Failed to close redis connection", zap.Error(err))
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database connection", zap.Error(err))
	}

	app.logger.Info("Graceful shutdown completed")
	_ = app.logger.Sync()
	return nil
}
