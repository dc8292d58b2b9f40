package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config структура конфигурации приложения
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Geofence   GeofenceConfig   `mapstructure:"geofence"`
	Shifts     ShiftsConfig     `mapstructure:"shifts"`
	LiveMap    LiveMapConfig    `mapstructure:"live_map"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	HTTPPort       int           `mapstructure:"http_port"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig конфигурация PostgreSQL
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RedisConfig конфигурация Redis
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	Database    int           `mapstructure:"database"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// NATSConfig конфигурация NATS
type NATSConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	ClientID       string        `mapstructure:"client_id"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	MaxReconnect   int           `mapstructure:"max_reconnect"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	MaxPingsOut    int           `mapstructure:"max_pings_out"`
}

// LoggerConfig конфигурация логгера
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// MetricsConfig конфигурация метрик
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// AuthConfig проверка токенов провайдера идентификации
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// GeofenceConfig зона, в которой разрешены отметки
type GeofenceConfig struct {
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	RadiusKm  float64 `mapstructure:"radius_km"`
}

// ShiftsConfig параметры восстановления смен
type ShiftsConfig struct {
	Timezone         string        `mapstructure:"timezone"`
	MaxShiftDuration time.Duration `mapstructure:"max_shift_duration"`
	StatusLookback   int           `mapstructure:"status_lookback"`
}

// LiveMapConfig параметры карты водителей
type LiveMapConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	LocationTTL  time.Duration `mapstructure:"location_ttl"`
}

// StorageConfig хранилище фотографий талонов
type StorageConfig struct {
	Bucket        string `mapstructure:"bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// ResilienceConfig повторные попытки и circuit breaker для чтения событий
type ResilienceConfig struct {
	MaxRetries          uint64        `mapstructure:"max_retries"`
	InitialInterval     time.Duration `mapstructure:"initial_interval"`
	MaxInterval         time.Duration `mapstructure:"max_interval"`
	BreakerMaxRequests  uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval     time.Duration `mapstructure:"breaker_interval"`
	BreakerTimeout      time.Duration `mapstructure:"breaker_timeout"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
}

// RateLimitConfig ограничение частоты отметок на водителя
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	ClockRequests int           `mapstructure:"clock_requests"`
	Window        time.Duration `mapstructure:"window"`
}

// LoadConfig загружает конфигурацию из переменных окружения и файлов
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// Установка значений по умолчанию
	setDefaults(v)

	// Настройка чтения переменных окружения
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("SHIFT_TRACKER")

	// Чтение конфигурационного файла
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Файл конфигурации не найден, используем переменные окружения и значения по умолчанию
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.http_port", 8001)
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.database", "shift_tracker")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "internal/infrastructure/database/migrations")

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.idle_timeout", "5m")

	// NATS
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.client_id", "shift-tracker")
	v.SetDefault("nats.subject_prefix", "shifttracker")
	v.SetDefault("nats.connect_timeout", "30s")
	v.SetDefault("nats.reconnect_delay", "2s")
	v.SetDefault("nats.max_reconnect", -1)
	v.SetDefault("nats.ping_interval", "20s")
	v.SetDefault("nats.max_pings_out", 2)

	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output_path", "stdout")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Auth
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	// Geofence: центр Эдмонтона, 20 км
	v.SetDefault("geofence.latitude", 53.5461)
	v.SetDefault("geofence.longitude", -113.4938)
	v.SetDefault("geofence.radius_km", 20.0)

	// Shifts
	v.SetDefault("shifts.timezone", "America/Edmonton")
	v.SetDefault("shifts.max_shift_duration", "24h")
	v.SetDefault("shifts.status_lookback", 20)

	// Live map
	v.SetDefault("live_map.poll_interval", "10s")
	v.SetDefault("live_map.location_ttl", "12h")

	// Storage
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.public_base_url", "https://firebasestorage.googleapis.com/v0/b")

	// Resilience
	v.SetDefault("resilience.max_retries", 3)
	v.SetDefault("resilience.initial_interval", "100ms")
	v.SetDefault("resilience.max_interval", "2s")
	v.SetDefault("resilience.breaker_max_requests", 1)
	v.SetDefault("resilience.breaker_interval", "60s")
	v.SetDefault("resilience.breaker_timeout", "30s")
	v.SetDefault("resilience.breaker_failure_ratio", 0.6)
	v.SetDefault("resilience.breaker_min_requests", 5)

	// Rate limit
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.clock_requests", 10)
	v.SetDefault("rate_limit.window", "1m")
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetRedisAddr возвращает адрес Redis
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Location загружает часовой пояс, в котором считаются календарные дни
func (c *ShiftsConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid shifts timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}

	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return fmt.Errorf("NATS URL is required")
	}

	if c.Auth.JWTSecret == "" && c.Server.Environment == "production" {
		return fmt.Errorf("auth JWT secret is required in production")
	}

	if c.Geofence.RadiusKm <= 0 {
		return fmt.Errorf("geofence radius must be positive: %v", c.Geofence.RadiusKm)
	}

	if c.Geofence.Latitude < -90 || c.Geofence.Latitude > 90 ||
		c.Geofence.Longitude < -180 || c.Geofence.Longitude > 180 {
		return fmt.Errorf("invalid geofence center: %v,%v", c.Geofence.Latitude, c.Geofence.Longitude)
	}

	if _, err := c.Shifts.Location(); err != nil {
		return err
	}

	if c.Shifts.MaxShiftDuration <= 0 {
		return fmt.Errorf("max shift duration must be positive: %v", c.Shifts.MaxShiftDuration)
	}

	if c.Shifts.StatusLookback <= 0 {
		return fmt.Errorf("status lookback must be positive: %d", c.Shifts.StatusLookback)
	}

	if c.LiveMap.PollInterval <= 0 {
		return fmt.Errorf("live map poll interval must be positive: %v", c.LiveMap.PollInterval)
	}

	if c.RateLimit.Enabled && (c.RateLimit.ClockRequests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit: %d per %v", c.RateLimit.ClockRequests, c.RateLimit.Window)
	}

	return nil
}
