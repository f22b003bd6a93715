package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/factorchain/compliance-node/internal/api"
	"github.com/factorchain/compliance-node/internal/cache"
	"github.com/factorchain/compliance-node/internal/config"
	"github.com/factorchain/compliance-node/internal/core/ports"
	"github.com/factorchain/compliance-node/internal/core/services"
	"github.com/factorchain/compliance-node/internal/db"
	"github.com/factorchain/compliance-node/internal/gateways"
	"github.com/factorchain/compliance-node/internal/health"
	"github.com/factorchain/compliance-node/internal/log"
	"github.com/factorchain/compliance-node/internal/providers"
	"github.com/factorchain/compliance-node/internal/redis"
	"github.com/factorchain/compliance-node/internal/repositories"
	"github.com/factorchain/compliance-node/internal/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Error(context.Background(), "cannot load config", "err", err)
		return
	}
	if err := cfg.Sanitize(); err != nil {
		log.Error(context.Background(), "there are errors in the configuration", "err", err)
		return
	}

	// Context with log
	ctx, cancel := signal.NotifyContext(
		log.NewContext(context.Background(), cfg.Log.Level, cfg.Log.Mode, os.Stdout),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	conn, err := db.NewStorage(cfg.Database.URL)
	if err != nil {
		log.Error(ctx, "cannot connect to database", "err", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Error(ctx, "closing database connection", "err", err)
		}
	}()

	pingers := []health.Ping{conn.Pgx}
	var cacheCli cache.Cache
	if cfg.Cache.Provider == config.CacheProviderRedis {
		rdb, err := redis.Open(ctx, cfg.Cache.URL)
		if err != nil {
			log.Error(ctx, "cannot connect to redis", "err", err, "host", cfg.Cache.URL)
			return
		}
		cacheCli = cache.NewRedisCache(rdb)
		pingers = append(pingers, redis.Wrapper{Client: rdb})
	} else {
		cacheCli, err = cache.NewCacheClient(ctx, *cfg)
		if err != nil {
			log.Error(ctx, "cannot connect to the cache server", "err", err)
			return
		}
	}

	backend, err := selectBackend(ctx, cfg, cacheCli)
	if err != nil {
		log.Error(ctx, "cannot select a storage backend", "err", err)
		return
	}
	ledger, err := gateways.NewLedgerGateway(ctx, cfg.Ledger)
	if err != nil {
		log.Error(ctx, "cannot connect to the ledger", "err", err)
		return
	}

	dossierRepo := repositories.NewDossier(*conn)
	verificationRepo := repositories.NewVerification(*conn)

	documentService := services.NewDocumentService(backend, dossierRepo, cfg.Storage.MaxInFlight)
	verificationService := services.NewVerificationService(verificationRepo, ledger)

	healthStatus := health.New(pingers...)

	mux := chi.NewRouter()
	api.NewServer(cfg, documentService, verificationService, dossierRepo, ledger, healthStatus).Routes(ctx, mux)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(ctx, "server started", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "starting http server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "shutting down http server", "err", err)
	}
}

// selectBackend wires the remote pinning backend when a node is configured and
// its credential resolves, and the local fallback otherwise. Falling back is
// logged, not fatal, unless the cache provider is the null one: a local backend
// over a null cache would acknowledge writes while storing nothing.
func selectBackend(ctx context.Context, cfg *config.Configuration, cacheCli cache.Cache) (ports.StorageBackend, error) {
	if cfg.StorageProvider() == config.StorageProviderLocal {
		log.Info(ctx, "using local document storage backend")
		return storage.NewLocalBackend(cacheCli), nil
	}
	token, err := providers.ResolveSecret(ctx, *cfg, cfg.Storage.IPFSAuthSecret)
	if err != nil {
		if cfg.Cache.Provider == config.CacheProviderNone {
			return nil, fmt.Errorf("cannot resolve pinning credential and cache provider <none> cannot back local storage: %w", err)
		}
		log.Warn(ctx, "cannot resolve pinning credential, falling back to local storage", "err", err)
		return storage.NewLocalBackend(cacheCli), nil
	}
	log.Info(ctx, "using ipfs document storage backend", "node", cfg.Storage.IPFSNodeURL)
	return storage.NewIPFSBackend(cfg.Storage.IPFSNodeURL, cfg.Storage.IPFSGatewayURL, cfg.Storage.MFSRoot, token, cfg.Storage.Timeout), nil
}
