package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Logging  LoggingConfig
	Pricing  PricingConfig
	Checkout CheckoutConfig
}

// AppConfig contains HTTP server configuration.
type AppConfig struct {
	Port string
}

// DatabaseConfig selects the GORM dialector and its DSN.
type DatabaseConfig struct {
	Driver string // postgres or sqlite
	DSN    string
}

// RabbitMQConfig configures order event publishing. An empty URL disables it.
type RabbitMQConfig struct {
	URL      string
	Exchange string
}

// RedisConfig configures the checkout lock. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig contains the shared secret used to validate identity tokens.
type JWTConfig struct {
	Secret string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
}

// PricingConfig feeds the delivery fee and promo policies.
type PricingConfig struct {
	DeliveryFlatFee       int64
	DeliveryFreeThreshold int64 // subtotals at or above this ship free; 0 disables
	PromoCodes            map[string]int
}

// CheckoutConfig tunes the checkout coordinator.
type CheckoutConfig struct {
	Parallelism     int
	LockTTL         time.Duration
	ReconcileWindow time.Duration
}

// Load reads configuration from the environment on top of defaults.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file::memory:?cache=shared")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "orders")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", "dev_secret_change_me")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DELIVERY_FLAT_FEE", 1500)
	v.SetDefault("DELIVERY_FREE_THRESHOLD", 50000)
	v.SetDefault("PROMO_CODES", "")
	v.SetDefault("CHECKOUT_PARALLELISM", 1)
	v.SetDefault("CHECKOUT_LOCK_TTL", 15*time.Second)
	v.SetDefault("RECONCILE_WINDOW", 15*time.Minute)
}

// FromViper builds a validated Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	promos, err := ParsePromoCodes(v.GetString("PROMO_CODES"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Port: v.GetString("APP_PORT"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("DB_DRIVER")),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:      v.GetString("RABBITMQ_URL"),
			Exchange: v.GetString("RABBITMQ_EXCHANGE"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Pricing: PricingConfig{
			DeliveryFlatFee:       v.GetInt64("DELIVERY_FLAT_FEE"),
			DeliveryFreeThreshold: v.GetInt64("DELIVERY_FREE_THRESHOLD"),
			PromoCodes:            promos,
		},
		Checkout: CheckoutConfig{
			Parallelism:     v.GetInt("CHECKOUT_PARALLELISM"),
			LockTTL:         v.GetDuration("CHECKOUT_LOCK_TTL"),
			ReconcileWindow: v.GetDuration("RECONCILE_WINDOW"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Pricing.DeliveryFlatFee < 0 || c.Pricing.DeliveryFreeThreshold < 0 {
		return fmt.Errorf("delivery fee settings must not be negative")
	}
	if c.Checkout.Parallelism < 1 {
		return fmt.Errorf("CHECKOUT_PARALLELISM must be at least 1")
	}
	if c.Checkout.ReconcileWindow <= 0 {
		return fmt.Errorf("RECONCILE_WINDOW must be positive")
	}
	return nil
}

// ParsePromoCodes parses "CODE=percent,CODE2=percent" into a map keyed by
// upper-cased code.
func ParsePromoCodes(raw string) (map[string]int, error) {
	codes := make(map[string]int)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, pct, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("PROMO_CODES entry %q must be CODE=percent", pair)
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return nil, fmt.Errorf("PROMO_CODES entry %q has an empty code", pair)
		}
		n, err := strconv.Atoi(strings.TrimSpace(pct))
		if err != nil || n <= 0 || n > 100 {
			return nil, fmt.Errorf("PROMO_CODES entry %q must have a percent in 1..100", pair)
		}
		codes[strings.ToUpper(code)] = n
	}
	return codes, nil
}
