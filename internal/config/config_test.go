package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"WALLET_ENC_KEY", "SESSION_TTL", "MAX_SESSIONS_PER_USER", "RATE_LIMIT_RPS",
		"RATE_LIMIT_BURST", "RATE_LIMIT_MAX_ENTRIES", "RATE_LIMIT_ENTRY_TTL",
		"NONCE_RECONCILE_INTERVAL", "LISTEN_ADDR", "LOG_LEVEL", "BCRYPT_COST",
		"DATABASE_URL", "CORS_ALLOW_ORIGIN", "TRUST_PROXY_HEADERS", "WALLETD_MOCK_CHAIN",
		"ADMIN_TOKEN", "SESSION_JWT_SECRET",
	}
	for _, k := range keys {
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadFailsWithoutSessionSecret(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, time.Hour, cfg.SessionTTL)
	require.Equal(t, 5, cfg.MaxSessionsPerUser)
	require.Equal(t, 12, cfg.BCryptCost)
	require.Equal(t, ":8080", cfg.ListenAddr)
	require.False(t, cfg.TrustProxyHeaders)
	require.False(t, cfg.MockChain)
}

func TestLoadRejectsWeakBcryptCost(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_JWT_SECRET", "test-secret")
	t.Setenv("BCRYPT_COST", "4")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_JWT_SECRET", "test-secret")
	t.Setenv("TRUST_PROXY_HEADERS", "true")
	t.Setenv("WALLETD_MOCK_CHAIN", "1")
	t.Setenv("RATE_LIMIT_RPS", "12.5")
	t.Setenv("SESSION_TTL", "15m")

	cfg, err := Load()
	require.NoError(t, err)
	require.True(t, cfg.TrustProxyHeaders)
	require.True(t, cfg.MockChain)
	require.InDelta(t, 12.5, cfg.RateLimitRPS, 0.0001)
	require.Equal(t, 15*time.Minute, cfg.SessionTTL)
}
