package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/impact")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/impact", cfg.DatabaseURL)
	assert.Equal(t, 30, cfg.AnalyticsWindowDays)
	assert.Equal(t, time.Hour, cfg.RollupInterval)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.Equal(t, "", cfg.RedisAddr())
	assert.Equal(t, 12.0, cfg.ReachMultiplier)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("ROLLUP_INTERVAL", "15m")
	t.Setenv("ANALYTICS_WINDOW_DAYS", "7")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.1,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
	assert.Equal(t, 15*time.Minute, cfg.RollupInterval)
	assert.Equal(t, 7, cfg.AnalyticsWindowDays)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.1"}, cfg.TrustedProxies)
}
