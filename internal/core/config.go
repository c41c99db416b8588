package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config represents the main configuration for the reader service
type Config struct {
	Server   ServerConfig   `json:"server" toml:"server"`
	Database DatabaseConfig `json:"database" toml:"database"`
	Log      LogConfig      `json:"log" toml:"log"`
	Auth     AuthConfig     `json:"auth" toml:"auth"`
	Features FeatureConfig  `json:"features" toml:"features"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port int    `json:"port" toml:"port"`
	Host string `json:"host" toml:"host"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path         string   `json:"path" toml:"path"`
	QueryTimeout Duration `json:"query_timeout" toml:"query_timeout"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level  string `json:"level" toml:"level"`
	Format string `json:"format" toml:"format"`
}

// AuthConfig contains authentication-related configuration
type AuthConfig struct {
	AdminEmail    string   `json:"admin_email" toml:"admin_email"`
	AdminPassword string   `json:"admin_password" toml:"admin_password"`
	TokenTTL      Duration `json:"token_ttl" toml:"token_ttl"`
}

// FeatureConfig contains feature-specific configuration
type FeatureConfig struct {
	Reader ReaderConfig `json:"reader" toml:"reader"`
}

// ReaderConfig contains entry reader configuration
type ReaderConfig struct {
	Enabled            bool `json:"enabled" toml:"enabled"`
	ParallelPartitions bool `json:"parallel_partitions" toml:"parallel_partitions"`
}

// Duration lets TOML files carry values such as "30s" or "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// LoadConfig loads configuration from the environment (and .env), then applies the
// optional TOML file at path on top.
func LoadConfig(path string) (*Config, error) {
	// A missing .env is fine
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnvAsInt("READER_PORT", 4000),
			Host: getEnvOrDefault("READER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Path:         getEnvOrDefault("READER_DB_PATH", "./reader.db"),
			QueryTimeout: Duration{getEnvAsDuration("READER_DB_QUERY_TIMEOUT", 30*time.Second)},
		},
		Log: LogConfig{
			Level:  getEnvOrDefault("READER_LOG_LEVEL", "info"),
			Format: getEnvOrDefault("READER_LOG_FORMAT", "text"),
		},
		Auth: AuthConfig{
			AdminEmail:    getEnvOrDefault("READER_ADMIN_EMAIL", ""),
			AdminPassword: getEnvOrDefault("READER_ADMIN_PASSWORD", ""),
			TokenTTL:      Duration{getEnvAsDuration("READER_TOKEN_TTL", 24*time.Hour)},
		},
		Features: FeatureConfig{
			Reader: ReaderConfig{
				Enabled:            getEnvAsBool("READER_ENABLE_READER", true),
				ParallelPartitions: getEnvAsBool("READER_PARALLEL_PARTITIONS", true),
			},
		},
	}

	if path == "" {
		path = os.Getenv("READER_CONFIG")
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, NewConfigurationError(fmt.Sprintf("failed to parse config file %s", path), err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigurationError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Database.Path == "" {
		return NewConfigurationError("database path is required", nil)
	}

	if c.Database.QueryTimeout.Duration <= 0 {
		return NewConfigurationError("database query timeout must be positive", nil)
	}

	if c.Auth.TokenTTL.Duration < time.Minute {
		return NewConfigurationError("token ttl must be at least one minute", nil)
	}

	// Admin bootstrap is optional, but both halves must be present
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return NewConfigurationError("admin email and admin password must be set together", nil)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return NewConfigurationError(fmt.Sprintf("invalid log format: %s", c.Log.Format), nil)
	}

	return nil
}

// IsFeatureEnabled checks if a feature is enabled
func (c *Config) IsFeatureEnabled(featureName string) bool {
	switch strings.ToLower(featureName) {
	case "reader":
		return c.Features.Reader.Enabled
	default:
		return false
	}
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
