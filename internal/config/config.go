// Package config loads walletd's environment-variable-driven configuration
// into one immutable Config struct, read once at startup by cmd/walletd.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the fully-resolved, immutable process configuration.
type Config struct {
	WalletEncKey string // base64, 32 raw bytes; validated by kek.NewEnvProvider

	SessionTTL         time.Duration
	MaxSessionsPerUser int
	SessionSecret       []byte // HMAC secret for session.TokenMinter

	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitMaxEntries int
	RateLimitEntryTTL   time.Duration

	NonceReconcileInterval time.Duration

	ListenAddr  string
	LogLevel    string
	BCryptCost  int
	DatabaseURL string

	CORSAllowOrigin   string
	TrustProxyHeaders bool

	MockChain bool // WALLETD_MOCK_CHAIN=1: wire chainclient.MockClient instead of live RPC clients

	AdminToken string // gates POST /api/wallets/{name}/kek-rotate; empty disables the endpoint

	// RPCURLs maps a derivation.Network.Name to its RPC endpoint, e.g.
	// ETHEREUM_RPC_URL -> RPCURLs["ethereum"]. A network with no URL set
	// is simply not wired into the chain-client registry at startup.
	RPCURLs map[string]string
}

// rpcEnvVars maps each known network name to the environment variable
// that carries its RPC endpoint.
var rpcEnvVars = map[string]string{
	"ethereum":        "ETHEREUM_RPC_URL",
	"polygon":         "POLYGON_RPC_URL",
	"bsc":             "BSC_RPC_URL",
	"bitcoin-legacy":  "BITCOIN_LEGACY_RPC_URL",
	"bitcoin-segwit":  "BITCOIN_SEGWIT_RPC_URL",
	"bitcoin-taproot": "BITCOIN_TAPROOT_RPC_URL",
}

// Load reads every recognized environment variable and applies the
// defaults below for anything unset. It does not validate WalletEncKey's
// shape or
// reject an all-zero key — kek.NewEnvProviderFromEnv does that, since it
// alone knows the "allow zero for test builds" exception.
func Load() (Config, error) {
	cfg := Config{
		WalletEncKey: os.Getenv("WALLET_ENC_KEY"),

		SessionTTL:         durationEnv("SESSION_TTL", time.Hour),
		MaxSessionsPerUser: intEnv("MAX_SESSIONS_PER_USER", 5),

		RateLimitRPS:        floatEnv("RATE_LIMIT_RPS", 5),
		RateLimitBurst:      intEnv("RATE_LIMIT_BURST", 10),
		RateLimitMaxEntries: intEnv("RATE_LIMIT_MAX_ENTRIES", 5000),
		RateLimitEntryTTL:   durationEnv("RATE_LIMIT_ENTRY_TTL", time.Hour),

		NonceReconcileInterval: durationEnv("NONCE_RECONCILE_INTERVAL", time.Minute),

		ListenAddr:  stringEnv("LISTEN_ADDR", ":8080"),
		LogLevel:    stringEnv("LOG_LEVEL", "info"),
		BCryptCost:  intEnv("BCRYPT_COST", 12),
		DatabaseURL: stringEnv("DATABASE_URL", "local.db"),

		CORSAllowOrigin:   os.Getenv("CORS_ALLOW_ORIGIN"),
		TrustProxyHeaders: boolEnv("TRUST_PROXY_HEADERS", false),

		MockChain: boolEnv("WALLETD_MOCK_CHAIN", false),

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}
	cfg.SessionSecret = []byte(stringEnv("SESSION_JWT_SECRET", ""))

	cfg.RPCURLs = make(map[string]string, len(rpcEnvVars))
	for network, envVar := range rpcEnvVars {
		if v := os.Getenv(envVar); v != "" {
			cfg.RPCURLs[network] = v
		}
	}

	if cfg.BCryptCost < 10 {
		return Config{}, fmt.Errorf("config: BCRYPT_COST must be >= 10, got %d", cfg.BCryptCost)
	}
	if len(cfg.SessionSecret) == 0 {
		return Config{}, fmt.Errorf("config: SESSION_JWT_SECRET is required")
	}
	return cfg, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func boolEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return def
	}
	return v == "1" || v == "true"
}

func intEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func floatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
