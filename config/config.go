package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultDailyEventLimit = 5
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Events    EventsConfig
	CORS      CORSConfig
	Kafka     KafkaConfig
	Blacklist BlacklistConfig
	LogLevel  string
}

type ServerConfig struct {
	Port            string
	GinMode         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string
	MaxOpenConns int
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type EventsConfig struct {
	DailyLimit int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// BlacklistConfig controls pruning of expired blacklist rows. An empty
// schedule leaves the table untouched.
type BlacklistConfig struct {
	PruneSchedule string
}

// LoadConfig reads the environment. Malformed numbers and durations are
// reported rather than replaced by their defaults.
func LoadConfig() (*Config, error) {
	var errs []error
	intEnv := func(key string, defaultValue int) int {
		v, err := getIntEnv(key, defaultValue)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	durationEnv := func(key string, defaultValue time.Duration) time.Duration {
		v, err := getDurationEnv(key, defaultValue)
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			GinMode:         getEnv("GIN_MODE", "release"),
			ReadTimeout:     durationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    durationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     os.Getenv("DB_PASSWORD"),
			Name:         getEnv("DB_NAME", "eventboard"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			Path:         getEnv("DB_PATH", "eventboard.db"),
			MaxOpenConns: intEnv("DB_MAX_OPEN_CONNS", 10),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			TTL:    durationEnv("JWT_TTL", time.Hour),
		},
		Events: EventsConfig{
			DailyLimit: intEnv("DAILY_EVENT_LIMIT", DefaultDailyEventLimit),
		},
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Kafka: KafkaConfig{
			Brokers: getStringSliceEnv("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "eventboard.activity"),
		},
		Blacklist: BlacklistConfig{
			PruneSchedule: os.Getenv("BLACKLIST_PRUNE_SCHEDULE"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if len(errs) == 0 {
		errs = append(errs, cfg.Validate())
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.TTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	if c.Events.DailyLimit <= 0 {
		return errors.New("DAILY_EVENT_LIMIT must be positive")
	}
	switch c.Server.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return fmt.Errorf("unsupported GIN_MODE %q", c.Server.GinMode)
	}
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

func (c *Config) KafkaEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return intValue, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	duration, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	return duration, nil
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var parts []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return defaultValue
	}
	return parts
}
