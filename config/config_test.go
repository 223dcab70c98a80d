package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, int64(10485760), cfg.MaxFileSize)
	assert.Equal(t, 5.0, cfg.PlatformFeePercentage)
	assert.Equal(t, 10000.0, cfg.MaxWalletBalance)
	assert.Equal(t, 20.0, cfg.MinPayoutAmount)
	assert.Equal(t, 2.5, cfg.PayoutFeePercentage)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Same(t, cfg, App)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "another")
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("PLATFORM_FEE_PERCENTAGE", "7.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7.5, cfg.PlatformFeePercentage)
}

func TestLoadRejectsInvertedWalletBounds(t *testing.T) {
	t.Setenv("MIN_WALLET_BALANCE", "500")
	t.Setenv("MAX_WALLET_BALANCE", "100")

	_, err := Load()
	assert.Error(t, err)
}

func TestAllowedDomains(t *testing.T) {
	cfg := &Config{GoogleAllowedDomains: " Example.com, ,pets.io"}
	assert.Equal(t, []string{"example.com", "pets.io"}, cfg.AllowedDomains())

	cfg.GoogleAllowedDomains = ""
	assert.Empty(t, cfg.AllowedDomains())
}

func TestGoogleEnabled(t *testing.T) {
	cfg := &Config{GoogleClientID: "id", GoogleClientSecret: "secret"}
	assert.False(t, cfg.GoogleEnabled())
	cfg.GoogleRedirectURI = "http://localhost/cb"
	assert.True(t, cfg.GoogleEnabled())
}
