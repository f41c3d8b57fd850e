package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the service reads
const EnvPrefix = "COMMUNITY_ADMIN_"

// Database type constants
const (
	SqliteDbType   = "sqlite"
	PostgresDbType = "postgres"
)

// ServerSettings holds the HTTP listener configuration
type ServerSettings struct {
	Address string `yaml:"address" env:"ADDRESS" validate:"required"`

	// PublicBaseURL prefixes public storage URLs handed to the admin UI
	PublicBaseURL string `yaml:"public_base_url" env:"PUBLIC_BASE_URL" validate:"required,url"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
}

// DatabaseSettings selects the row store backend
type DatabaseSettings struct {
	Type string `yaml:"type" env:"TYPE" validate:"required,oneof=sqlite postgres"`
	DSN  string `yaml:"dsn" env:"DSN" validate:"required"`
}

// AuthSettings toggles HTTP basic auth against admin accounts
type AuthSettings struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Realm   string `yaml:"realm" env:"REALM" validate:"required"`
}

// CORSSettings lists the origins the admin UI is served from
type CORSSettings struct {
	AllowOrigins []string `yaml:"allow_origins" env:"ALLOW_ORIGINS" envSeparator:","`
}

// Config holds the application configuration
type Config struct {
	Server   ServerSettings   `yaml:"server" envPrefix:"SERVER_"`
	Database DatabaseSettings `yaml:"database" envPrefix:"DATABASE_"`
	Logger   LoggerSettings   `yaml:"logger" envPrefix:"LOGGER_"`
	Auth     AuthSettings     `yaml:"auth" envPrefix:"AUTH_"`
	CORS     CORSSettings     `yaml:"cors" envPrefix:"CORS_"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	config := &Config{}

	config.Server.Address = ":8080"
	config.Server.PublicBaseURL = "http://localhost:8080"
	config.Server.ShutdownTimeout = 5 * time.Second

	config.Database.Type = SqliteDbType
	config.Database.DSN = "app.db"

	config.Logger.LogLevel = LogLevelInfo
	config.Logger.LogType = LogTypeConsole

	config.Auth.Realm = "community-admin"

	config.CORS.AllowOrigins = []string{"http://localhost:5173"}

	return config
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment, in that order.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every settings block
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed for Config: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	return nil
}
