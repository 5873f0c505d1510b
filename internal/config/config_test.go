package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DECIMAL_PLACES", "")
	t.Setenv("DEFAULT_TAX_POLICY", "")
	t.Setenv("APP_PORT", "")

	cfg := Load()

	assert.Equal(t, 2, cfg.DecimalPlaces)
	assert.Equal(t, TaxPolicyZero, cfg.DefaultTaxPolicy)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DECIMAL_PLACES", "4")
	t.Setenv("DEFAULT_TAX_POLICY", " STRICT ")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("CATALOG_CACHE_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, 4, cfg.DecimalPlaces)
	assert.Equal(t, TaxPolicyStrict, cfg.DefaultTaxPolicy)
	assert.Equal(t, int32(7), cfg.DBMaxConns)
	assert.False(t, cfg.MetricsEnabled)
	assert.True(t, cfg.AutoMigrate)
	assert.False(t, cfg.CatalogCache)
}

func TestLoad_MalformedFallsBack(t *testing.T) {
	t.Setenv("DECIMAL_PLACES", "two")
	t.Setenv("DEFAULT_TAX_POLICY", "lenient")

	cfg := Load()

	assert.Equal(t, 2, cfg.DecimalPlaces)
	assert.Equal(t, TaxPolicyZero, cfg.DefaultTaxPolicy)
}
