package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shift-tracker/internal/config"
	"shift-tracker/internal/infrastructure/metrics"
	"shift-tracker/internal/interfaces/http/handlers"
	"shift-tracker/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker проверка зависимостей для /health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers набор обработчиков API
type Handlers struct {
	Clock    *handlers.ClockHandler
	Shift    *handlers.ShiftHandler
	Driver   *handlers.DriverHandler
	Location *handlers.LocationHandler
}

// Server HTTP сервер
type Server struct {
	config     *config.Config
	logger     *zap.Logger
	httpServer *http.Server
	router     *gin.Engine
}

// NewServer создает новый HTTP сервер
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	h *Handlers,
	verifier *middleware.TokenVerifier,
	limiter middleware.RateLimiter,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	health HealthChecker,
) *Server {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Timeout(cfg.Server.Timeout))

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"service":   "shift-tracker",
			"timestamp": time.Now().UTC(),
		}
		if health != nil {
			if err := health.Health(c.Request.Context()); err != nil {
				logger.Warn("Health check failed", zap.Error(err))
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["error"] = err.Error()
			}
		}
		c.JSON(status, body)
	})

	if cfg.Metrics.Enabled && gatherer != nil {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(verifier, logger))

	// Отметки текущего пользователя
	clock := api.Group("/clock")
	if limiter != nil {
		clock.Use(middleware.RateLimit(limiter, logger))
	}
	{
		clock.POST("/in", h.Clock.ClockIn)
		clock.POST("/out", h.Clock.ClockOut)
	}
	api.POST("/geofence/validate", h.Clock.ValidateLocation)

	drivers := api.Group("/drivers")
	{
		drivers.GET("", middleware.RequireAdmin(), h.Driver.ListDrivers)
		drivers.POST("", middleware.RequireAdmin(), h.Driver.RegisterDriver)

		self := drivers.Group("/:id", middleware.RequireSelfOrAdmin("id"))
		self.GET("", h.Driver.GetDriver)
		self.GET("/status", h.Shift.GetStatus)
		self.GET("/days/:date", h.Shift.GetDaySummary)
		self.GET("/calendar", h.Shift.GetCalendar)
		self.GET("/location", h.Location.GetLocation)
		self.POST("/location", h.Location.UpdateLocation)
	}

	admin := api.Group("", middleware.RequireAdmin())
	{
		admin.GET("/reports/monthly", h.Shift.GetMonthlyReport)
		admin.GET("/locations/live", h.Location.ListLiveLocations)
		admin.GET("/locations/live/stream", h.Location.StreamLiveLocations)
	}

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: cfg.Server.Timeout,
			IdleTimeout:       2 * cfg.Server.Timeout,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
	}

	return server
}

// Start запускает HTTP сервер
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		zap.Int("port", s.config.Server.HTTPPort),
		zap.String("environment", s.config.Server.Environment),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop останавливает HTTP сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")

	return s.httpServer.Shutdown(ctx)
}

// GetRouter возвращает router для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
