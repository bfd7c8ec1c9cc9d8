package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr        string        `envconfig:"STOREFRONT_HTTP_ADDR" default:":5000"`
	ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
	GinMode         string        `envconfig:"GIN_MODE" default:"debug"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL   string `envconfig:"DATABASE_URL"`
	MigrateOnBoot bool   `envconfig:"MIGRATE_ON_BOOT" default:"true"`

	StripeSecretKey      string `envconfig:"STRIPE_SECRET_KEY"`
	StripePublishableKey string `envconfig:"STRIPE_PUBLISHABLE_KEY"`
	StripeWebhookSecret  string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	StripeAPIURL         string `envconfig:"STRIPE_API_URL"`
	StripeMaxRetries     int64  `envconfig:"STRIPE_MAX_NETWORK_RETRIES" default:"2"`

	JWTSecret     string        `envconfig:"JWT_SECRET"`
	AdminTokenTTL time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"12h"`

	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`

	ConsulAddr  string `envconfig:"CONSUL_HTTP_ADDR"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"storefront"`
	ServiceHost string `envconfig:"SERVICE_HOST" default:"localhost"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Environment  string `envconfig:"ENV" default:"dev"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("failed to process env: %w", err)
	}
	return c, nil
}

const (
	KeyDatabaseURL     = "DATABASE_URL"
	KeyStripeSecretKey = "STRIPE_SECRET_KEY"
	KeyJWTSecret       = "JWT_SECRET"
)

// Require fails when any of the named settings is empty. Commands call it
// with the keys they depend on.
func (c Config) Require(keys ...string) error {
	values := map[string]string{
		KeyDatabaseURL:     c.DatabaseURL,
		KeyStripeSecretKey: c.StripeSecretKey,
		KeyJWTSecret:       c.JWTSecret,
	}
	var missing []string
	for _, k := range keys {
		if values[k] == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required key %s missing value", strings.Join(missing, ", "))
	}
	return nil
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
