package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Game      GameConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port      string
	Host      string
	Env       string // "development" or "production"
	PublicURL string // base for invite links; derived from the request when empty
}

// GameConfig holds game-related configuration
type GameConfig struct {
	RoomCapacity       int
	MaxTurns           int
	DealSize           int
	LockTimeout        time.Duration
	PetitionMinLength  int
	RoomCodeLength     int
	SessionIdleTimeout time.Duration
	CatalogDir         string // overrides the embedded catalog when set
}

// StorageConfig holds room storage configuration
type StorageConfig struct {
	Driver      string // "memory" or "postgres"
	DatabaseURL string
}

// RateLimitConfig holds per-client request throttling
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load loads configuration from environment variables with defaults. A .env
// file in the working directory is read first if present; variables already
// set in the environment win.
func Load() *Config {
	if err := loadDotEnv(".env"); err != nil {
		slog.Warn("ignoring unreadable .env file", "error", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			Host:      getEnv("HOST", "0.0.0.0"),
			Env:       getEnv("ENV", "development"),
			PublicURL: getEnv("PUBLIC_URL", ""),
		},
		Game: GameConfig{
			RoomCapacity:       getEnvInt("ROOM_CAPACITY", 4),
			MaxTurns:           getEnvInt("MAX_TURNS", 10),
			DealSize:           getEnvInt("DEAL_SIZE", 3),
			LockTimeout:        getEnvDuration("LOCK_TIMEOUT", 2*time.Second),
			PetitionMinLength:  getEnvInt("PETITION_MIN_LENGTH", 5),
			RoomCodeLength:     getEnvInt("ROOM_CODE_LENGTH", 6),
			SessionIdleTimeout: getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
			CatalogDir:         getEnv("CATALOG_DIR", ""),
		},
		Storage: StorageConfig{
			Driver:      getEnv("STORAGE_DRIVER", "memory"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Validate reports settings the server cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.Game.RoomCapacity < 1 {
		errs = append(errs, fmt.Errorf("ROOM_CAPACITY must be at least 1, got %d", c.Game.RoomCapacity))
	}
	if c.Game.MaxTurns < 1 {
		errs = append(errs, fmt.Errorf("MAX_TURNS must be at least 1, got %d", c.Game.MaxTurns))
	}
	if c.Game.DealSize < 1 {
		errs = append(errs, fmt.Errorf("DEAL_SIZE must be at least 1, got %d", c.Game.DealSize))
	}
	if c.Game.LockTimeout <= 0 {
		errs = append(errs, errors.New("LOCK_TIMEOUT must be positive"))
	}
	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres storage driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// loadDotEnv reads path into the environment. A missing file is not an
// error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("1500ms", "2h")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
