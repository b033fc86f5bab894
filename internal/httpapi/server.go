// Package httpapi implements the HTTP frontend: a thin httprouter layer
// whose handlers decode JSON, call exactly one core method, and
// translate the result through errors.go. No business logic lives here
// — it belongs to internal/signing, internal/authstore, internal/bridge
// and internal/session.
package httpapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/defisafe/walletd/internal/authstore"
	"github.com/defisafe/walletd/internal/bridge"
	"github.com/defisafe/walletd/internal/logging"
	"github.com/defisafe/walletd/internal/ratelimit"
	"github.com/defisafe/walletd/internal/session"
	"github.com/defisafe/walletd/internal/signing"
)

// Default and submit-specific request deadlines.
const (
	defaultDeadline = 30 * time.Second
	submitDeadline  = 10 * time.Second

	accessTokenTTL  = time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

// Config carries every dependency the HTTP frontend wires together.
type Config struct {
	Pipeline   *signing.Pipeline
	Auth       *authstore.Store
	Sessions   *session.Registry
	Tokens     *session.TokenMinter
	Limiter    *ratelimit.Limiter
	Bridge     *bridge.Ledger
	AdminToken string
	CORSOrigin string
}

// Server wires the core components into the HTTP surface.
type Server struct {
	pipeline   *signing.Pipeline
	auth       *authstore.Store
	sessions   *session.Registry
	tokens     *session.TokenMinter
	limiter    *ratelimit.Limiter
	bridge     *bridge.Ledger
	adminToken string
	corsOrigin string
	log        *logrus.Entry
}

// New builds a Server. It does not start listening; pass Router's result
// to an http.Server.
func New(cfg Config) *Server {
	return &Server{
		pipeline:   cfg.Pipeline,
		auth:       cfg.Auth,
		sessions:   cfg.Sessions,
		tokens:     cfg.Tokens,
		limiter:    cfg.Limiter,
		bridge:     cfg.Bridge,
		adminToken: cfg.AdminToken,
		corsOrigin: cfg.CORSOrigin,
		log:        logging.For("httpapi"),
	}
}

// Router builds the full HTTP surface, wrapped in CORS. Same-origin
// only unless CORSOrigin is set (CORS_ALLOW_ORIGIN).
func (s *Server) Router() http.Handler {
	r := httprouter.New()

	r.POST("/api/auth/register", s.chain(s.handleRegister, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit))
	r.POST("/api/auth/login", s.chain(s.handleLogin, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit))
	r.GET("/api/auth/me", s.chain(s.handleMe, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.POST("/api/auth/logout", s.chain(s.handleLogout, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.POST("/api/auth/refresh", s.chain(s.handleRefresh, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit))

	r.POST("/api/wallets", s.chain(s.handleCreateWallet, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.GET("/api/wallets", s.chain(s.handleListWallets, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.DELETE("/api/wallets/:name", s.chain(s.handleDeleteWallet, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.GET("/api/wallets/:name/balance", s.chain(s.handleBalance, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.POST("/api/wallets/:name/send", s.chain(s.handleSend, s.withRequestID, s.withDeadline(submitDeadline), s.withRateLimit, s.withAuth))
	r.GET("/api/wallets/:name/history", s.chain(s.handleHistory, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.POST("/api/wallets/:name/rotate-key", s.chain(s.handleRotateKey, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.POST("/api/wallets/:name/kek-rotate", s.chain(s.handleKEKRotate, s.withRequestID, s.withDeadline(defaultDeadline), s.withAdmin))
	r.GET("/api/wallets/:name/stream", s.handleStream)

	r.POST("/api/bridge", s.chain(s.handleInitiateBridge, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))
	r.GET("/api/bridge/:id", s.chain(s.handleGetBridge, s.withRequestID, s.withDeadline(defaultDeadline), s.withRateLimit, s.withAuth))

	r.GET("/api/health", s.handleHealth)

	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins(s.corsOrigin),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Admin-Token"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

// corsOrigins returns an empty allowed-origins list (same-origin only)
// when origin is unset.
func corsOrigins(origin string) []string {
	if origin == "" {
		return nil
	}
	return []string{origin}
}
