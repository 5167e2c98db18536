package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-cart/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/cart",
		"REDIS_URL":    "redis://localhost:6379",
	})

	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "gross", cfg.TaxState)
	require.Equal(t, "sql", cfg.CartStore)
	require.Equal(t, "shop", cfg.CartName)
	require.Equal(t, int32(2), cfg.CurrencyPrecision)
	require.Equal(t, int64(1), cfg.ShippingMethodID)
	require.Equal(t, int64(1), cfg.PaymentMethodID)
	require.Equal(t, int64(1), cfg.CountryID)
	require.Equal(t, 7*24*time.Hour, cfg.CartTTL)
}

func TestLoadRequiresDatabase(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379",
	})

	require.Error(t, err)
}

func TestLoadRejectsUnknownTaxState(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/cart",
		"REDIS_URL":    "redis://localhost:6379",
		"TAX_STATE":    "mixed",
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "TAX_STATE")
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DATABASE_URL": "postgres://localhost/cart",
		"REDIS_URL":    "redis://localhost:6379",
		"CART_STORE":   "memcache",
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "CART_STORE")
}
