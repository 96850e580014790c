// Package config provides environment-variable driven configuration for
// the executive host shell.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full host-shell configuration.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Library  LibraryConfig
	Resource ResourceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Timer    TimerConfig
}

// ServerConfig configures the optional debug introspection console (§4.14).
type ServerConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level           string
	Format          string
	DebugCategories map[string]bool
}

// LibraryConfig configures the library-node loader's search path (§6).
type LibraryConfig struct {
	SearchPath []string
}

// ResourceConfig configures the command resource arbiter (§4.7).
type ResourceConfig struct {
	HierarchyFile string
}

// DatabaseConfig configures the optional Postgres library store (§4.11).
type DatabaseConfig struct {
	DSN string
}

// RedisConfig configures the optional Redis lookup broker (§4.12).
type RedisConfig struct {
	URL string
}

// TimerConfig configures the dedicated timer task (§4.13).
type TimerConfig struct {
	TickSchedule string
}

// Load reads configuration from the environment, applying defaults for any
// unset variable.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Enabled: getEnvAsBool("PLEXIL_DEBUG_SERVER_ENABLED", false),
			Host:    getEnv("PLEXIL_DEBUG_SERVER_HOST", "127.0.0.1"),
			Port:    getEnvAsInt("PLEXIL_DEBUG_SERVER_PORT", 9090),
		},
		Logging: LoggingConfig{
			Level:           getEnv("PLEXIL_LOG_LEVEL", "info"),
			Format:          getEnv("PLEXIL_LOG_FORMAT", "json"),
			DebugCategories: parseDebugCategories(getEnv("PLEXIL_DEBUG_CATEGORIES", "")),
		},
		Library: LibraryConfig{
			SearchPath: getEnvAsSlice("PLEXIL_LIBRARY_PATH", nil),
		},
		Resource: ResourceConfig{
			HierarchyFile: getEnv("PLEXIL_RESOURCE_HIERARCHY_FILE", ""),
		},
		Database: DatabaseConfig{
			DSN: getEnv("PLEXIL_DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("PLEXIL_REDIS_URL", ""),
		},
		Timer: TimerConfig{
			TickSchedule: getEnv("PLEXIL_TIMER_SCHEDULE", "@every 1s"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate performs basic sanity checks on the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("debug server port must be positive when enabled")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	return nil
}

func parseDebugCategories(raw string) map[string]bool {
	cats := make(map[string]bool)
	if raw == "" {
		return cats
	}
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			cats[name] = true
		}
	}
	return cats
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsSlice(key string, fallback []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return fallback
}

// DurationOrDefault parses a duration string, returning fallback on error.
func DurationOrDefault(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
