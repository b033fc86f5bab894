// Command walletd runs the custodial hot-wallet HTTP API server:
// register/login, wallet create/list/delete, balance/send/history, key
// rotation, bridge initiation and the admin/stream endpoints, all behind
// the HTTP frontend in internal/httpapi.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/defisafe/walletd/internal/authstore"
	"github.com/defisafe/walletd/internal/bridge"
	"github.com/defisafe/walletd/internal/chainclient"
	"github.com/defisafe/walletd/internal/config"
	"github.com/defisafe/walletd/internal/httpapi"
	"github.com/defisafe/walletd/internal/kek"
	"github.com/defisafe/walletd/internal/logging"
	"github.com/defisafe/walletd/internal/noncecoord"
	"github.com/defisafe/walletd/internal/ratelimit"
	"github.com/defisafe/walletd/internal/session"
	"github.com/defisafe/walletd/internal/signing"
	"github.com/defisafe/walletd/internal/walletstore"
)

const idempotencyCacheBytes = 32 << 20 // 32MiB, sized for a single node's in-flight send volume

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "walletd:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.LogLevel)
	log := logging.For("main")

	kekProvider, err := kek.NewEnvProviderFromEnv("env-1", false)
	if err != nil {
		return err
	}

	walletStore, err := walletstore.Open(filepath.Join(cfg.DatabaseURL, "wallets"))
	if err != nil {
		return err
	}
	defer walletStore.Close()

	authStore, err := authstore.Open(filepath.Join(cfg.DatabaseURL, "auth"), cfg.BCryptCost)
	if err != nil {
		return err
	}
	defer authStore.Close()

	bridgeLedger, err := bridge.Open(filepath.Join(cfg.DatabaseURL, "bridge"))
	if err != nil {
		return err
	}
	defer bridgeLedger.Close()

	clients, err := buildChainClients(cfg)
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		log.Warn("no chain clients configured; send/balance calls will fail with UNSUPPORTED_NETWORK")
	}

	nonceSource := make(noncecoord.MultiChainSource, len(clients))
	for name, c := range clients {
		nonceSource[name] = c
	}
	nonces := noncecoord.New(nonceSource)

	pipeline := signing.New(walletStore, kekProvider, nonces, clients, idempotencyCacheBytes)

	sessions := session.New(session.Config{
		SessionTTL:         cfg.SessionTTL,
		MaxSessionsPerUser: cfg.MaxSessionsPerUser,
	})
	tokens := session.NewTokenMinter(cfg.SessionSecret)

	limiter := ratelimit.New(ratelimit.Config{
		RatePerSecond:     cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
		MaxEntries:        cfg.RateLimitMaxEntries,
		EntryTTL:          cfg.RateLimitEntryTTL,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
	})

	server := httpapi.New(httpapi.Config{
		Pipeline:   pipeline,
		Auth:       authStore,
		Sessions:   sessions,
		Tokens:     tokens,
		Limiter:    limiter,
		Bridge:     bridgeLedger,
		AdminToken: cfg.AdminToken,
		CORSOrigin: cfg.CORSAllowOrigin,
	})

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(),
	}

	stop := make(chan struct{})
	go sessions.RunSweep(stop)
	go limiter.RunCleanup(stop)
	go runNonceReconciliation(stop, nonces, clients, cfg.NonceReconcileInterval)

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		close(stop)
		return err
	case <-sig:
		log.Info("shutting down")
		close(stop)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			return err
		}
		return <-serveErr
	}
}

// runNonceReconciliation periodically re-derives last_confirmed for every
// address this process has bootstrapped, catching reorgs that would
// otherwise only surface the next time that address sends. Purely
// corrective: a failed reconcile on one address just waits for the next
// tick.
func runNonceReconciliation(stop <-chan struct{}, nonces *noncecoord.Coordinator, clients map[string]chainclient.ChainClient, interval time.Duration) {
	log := logging.For("nonce-reconcile")
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			for _, ac := range nonces.Tracked() {
				if _, ok := clients[ac.Chain]; !ok {
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				err := nonces.Reconcile(ctx, ac.Address, ac.Chain)
				cancel()
				if err != nil {
					log.WithError(err).WithField("chain", ac.Chain).Warn("nonce reconcile failed")
				}
			}
		}
	}
}
