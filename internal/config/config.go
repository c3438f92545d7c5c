package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Security  SecurityConfig
	Predictor PredictorConfig
	Cascade   CascadeConfig
	Locator   LocatorConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds token verification configuration
type AuthConfig struct {
	JWTSecret string
}

// SecurityConfig holds field encryption configuration. EncryptionKey is a
// 32-byte key; leave empty to store medical text in plaintext.
type SecurityConfig struct {
	EncryptionKey string
}

// PredictorConfig holds the external symptom-analysis service configuration
type PredictorConfig struct {
	BaseURL string
	Timeout time.Duration
}

// CascadeConfig bounds cascade execution
type CascadeConfig struct {
	Timeout time.Duration
}

// LocatorConfig holds facility search defaults
type LocatorConfig struct {
	DefaultRadiusMeters float64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	v.SetDefault("database.maxconns", 25)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)

	v.SetDefault("predictor.timeout", 30*time.Second)

	v.SetDefault("cascade.timeout", 10*time.Second)

	v.SetDefault("locator.defaultradiusmeters", 10000.0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("auth.jwtsecret", "JWT_SECRET")

	v.BindEnv("security.encryptionkey", "ENCRYPTION_KEY")

	v.BindEnv("predictor.baseurl", "PREDICTOR_BASE_URL")
	v.BindEnv("predictor.timeout", "PREDICTOR_TIMEOUT")

	v.BindEnv("cascade.timeout", "CASCADE_TIMEOUT")

	v.BindEnv("locator.defaultradiusmeters", "LOCATOR_DEFAULT_RADIUS_METERS")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtsecret is required")
	}
	if c.Security.EncryptionKey != "" && len(c.Security.EncryptionKey) != 32 {
		return fmt.Errorf("security.encryptionkey must be exactly 32 bytes")
	}
	if c.Predictor.BaseURL == "" {
		return fmt.Errorf("predictor.baseurl is required")
	}
	if c.Locator.DefaultRadiusMeters <= 0 {
		return fmt.Errorf("locator.defaultradiusmeters must be positive")
	}
	return nil
}
