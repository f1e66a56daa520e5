// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           string `mapstructure:"PORT"`
	Env            string `mapstructure:"APP_ENV"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`

	// CredentialMasterKey is the secret the AES key for stored platform
	// tokens is derived from. Must be overridden outside development.
	CredentialMasterKey string `mapstructure:"CREDENTIAL_MASTER_KEY"`

	// Publisher knobs.
	PublishWorkers       int `mapstructure:"PUBLISH_WORKERS"`
	PublishTimeoutSec    int `mapstructure:"PUBLISH_TIMEOUT_SECONDS"`
	PublishRetryAttempts int `mapstructure:"PUBLISH_RETRY_ATTEMPTS"`
	PublishRetryBaseMS   int `mapstructure:"PUBLISH_RETRY_BASE_MS"`
	PublishStaleLockMin  int `mapstructure:"PUBLISH_STALE_LOCK_MINUTES"`

	// Outbound per-(owner, platform) publish throttle, fixed window.
	PlatformRateLimit     int `mapstructure:"PLATFORM_RATE_LIMIT"`
	PlatformRateWindowSec int `mapstructure:"PLATFORM_RATE_WINDOW_SECONDS"`

	// Tracing.
	TracingEnabled      bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter     string  `mapstructure:"TRACING_EXPORTER"`
	TracingOTLPEndpoint string  `mapstructure:"TRACING_OTLP_ENDPOINT"`
	TracingSamplerRatio float64 `mapstructure:"TRACING_SAMPLER_RATIO"`
}

// PublishTimeout returns the per-call platform API timeout.
func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.PublishTimeoutSec) * time.Second
}

// PublishRetryBase returns the base delay for publish retry backoff.
func (c *Config) PublishRetryBase() time.Duration {
	return time.Duration(c.PublishRetryBaseMS) * time.Millisecond
}

// PublishStaleLock returns how long a publisher claim may be held before a
// later run considers it abandoned.
func (c *Config) PublishStaleLock() time.Duration {
	return time.Duration(c.PublishStaleLockMin) * time.Minute
}

// PlatformRateWindow returns the fixed-window length for the outbound
// publish throttle.
func (c *Config) PlatformRateWindow() time.Duration {
	return time.Duration(c.PlatformRateWindowSec) * time.Second
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// Initial read to get APP_ENV if set in base config
	// We intentionally ignore this error as the config file may not exist yet
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// Set default values for development
	viper.SetDefault("PORT", "8460")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "ampcast")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("CREDENTIAL_MASTER_KEY", "dev-only-master-key-change-me")
	viper.SetDefault("PUBLISH_WORKERS", 4)
	viper.SetDefault("PUBLISH_TIMEOUT_SECONDS", 15)
	viper.SetDefault("PUBLISH_RETRY_ATTEMPTS", 3)
	viper.SetDefault("PUBLISH_RETRY_BASE_MS", 250)
	viper.SetDefault("PUBLISH_STALE_LOCK_MINUTES", 10)
	viper.SetDefault("PLATFORM_RATE_LIMIT", 30)
	viper.SetDefault("PLATFORM_RATE_WINDOW_SECONDS", 60)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.CredentialMasterKey == "" {
		return errors.New("CREDENTIAL_MASTER_KEY is required")
	}
	if c.PublishWorkers < 1 {
		return errors.New("PUBLISH_WORKERS must be at least 1")
	}
	if c.PublishTimeoutSec < 1 {
		return errors.New("PUBLISH_TIMEOUT_SECONDS must be at least 1")
	}
	if c.PublishRetryAttempts < 1 {
		return errors.New("PUBLISH_RETRY_ATTEMPTS must be at least 1")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction {
		if c.JWTSecret == "your-secret-key-change-in-production" {
			return errors.New("JWT_SECRET must be changed from the default value in production")
		}
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.CredentialMasterKey == "dev-only-master-key-change-me" {
			return errors.New("CREDENTIAL_MASTER_KEY must be changed from the default value in production")
		}
		if len(c.CredentialMasterKey) < 32 {
			return errors.New("CREDENTIAL_MASTER_KEY must be at least 32 characters in production")
		}
		if c.DBPassword == "password" || c.DBPassword == "" {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DBSSLMode == "disable" || c.DBSSLMode == "" {
			log.Println("WARNING: DB_SSLMODE is 'disable' in production. It is highly recommended to use SSL for database connections.")
		}
	}

	return nil
}
