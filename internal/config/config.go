package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	ShopID            int64
	ShopName          string
	CurrencyISO       string
	CurrencyPrecision int32
	TaxState          string
	ShippingMethodID  int64
	PaymentMethodID   int64
	CountryID         int64

	CartName      string
	CartTTL       time.Duration
	CartRetention time.Duration
	CartStrict    bool
	CartStore     string

	RateLimitPerMinute int
	OTLPEndpoint       string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		ShopID:            parseInt64(k.String("SHOP_ID"), 1),
		ShopName:          valueOrDefault(k.String("SHOP_NAME"), "storefront"),
		CurrencyISO:       valueOrDefault(k.String("CURRENCY_ISO"), "EUR"),
		CurrencyPrecision: int32(parseInt64(k.String("CURRENCY_PRECISION"), 2)),
		TaxState:          valueOrDefault(strings.ToLower(k.String("TAX_STATE")), "gross"),
		ShippingMethodID:  parseInt64(k.String("SHIPPING_METHOD_ID"), 1),
		PaymentMethodID:   parseInt64(k.String("PAYMENT_METHOD_ID"), 1),
		CountryID:         parseInt64(k.String("COUNTRY_ID"), 1),

		CartName:      valueOrDefault(k.String("CART_NAME"), "shop"),
		CartTTL:       parseDuration(k.String("CART_TTL"), "168h"),
		CartRetention: parseDuration(k.String("CART_RETENTION"), "720h"),
		CartStrict:    parseBool(k.String("CART_STRICT")),
		CartStore:     valueOrDefault(strings.ToLower(k.String("CART_STORE")), "sql"),

		RateLimitPerMinute: int(parseInt64(k.String("RATE_LIMIT_PER_MINUTE"), 120)),
		OTLPEndpoint:       k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.TaxState != "gross" && cfg.TaxState != "net" {
		return nil, fmt.Errorf("TAX_STATE must be gross or net, got %q", cfg.TaxState)
	}
	if cfg.CartStore != "sql" && cfg.CartStore != "redis" {
		return nil, fmt.Errorf("CART_STORE must be sql or redis, got %q", cfg.CartStore)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	base := strings.TrimSpace(value)
	if base == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
