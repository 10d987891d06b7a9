package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/agentvault/agentvault/internal/agents"
	"github.com/agentvault/agentvault/internal/asset"
	"github.com/agentvault/agentvault/internal/config"
	"github.com/agentvault/agentvault/internal/events"
	"github.com/agentvault/agentvault/internal/infra"
	"github.com/agentvault/agentvault/internal/logging"
	"github.com/agentvault/agentvault/internal/reconcile"
	"github.com/agentvault/agentvault/internal/recorder"
	"github.com/agentvault/agentvault/internal/routes"
	"github.com/agentvault/agentvault/internal/server"
	"github.com/agentvault/agentvault/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.AppName, cfg.LogLevel)

	ctx := context.Background()

	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
		if err != nil {
			logger.Error("connect postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	} else {
		logger.Warn("no DATABASE_URL, running with in-memory state")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = infra.NewRedisClient(ctx, cfg.RedisURL, cfg.AppName)
		if err != nil {
			logger.Error("connect redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	} else {
		logger.Warn("no REDIS_URL, idempotency and event publishing disabled")
	}

	// Settlement backend. The simulator stands in for the real asset
	// service; it is seeded lazily through deposits.
	assets := asset.NewInMemory()

	sink := events.Multi{events.NewLoggerSink(logger)}
	if cache != nil {
		sink = append(sink, events.NewRedisSink(cache, logger))
	}

	opts := vault.Options{
		Asset:    assets,
		Sink:     sink,
		Custody:  cfg.Custody,
		Admin:    cfg.Admin,
		Treasury: cfg.Treasury,
		FeeBps:   cfg.FeeBps,
	}

	var custodyVault vault.Vault
	if db != nil {
		pg, err := vault.NewPostgres(db, opts)
		if err != nil {
			logger.Error("build vault", "error", err)
			os.Exit(1)
		}
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("migrate vault schema", "error", err)
			os.Exit(1)
		}
		custodyVault = pg
	} else {
		mem, err := vault.NewMemory(opts)
		if err != nil {
			logger.Error("build vault", "error", err)
			os.Exit(1)
		}
		custodyVault = mem
	}

	var agentsRepo agents.Repository
	if db != nil {
		pgRepo := agents.NewPostgresRepository(db)
		if err := pgRepo.Migrate(ctx); err != nil {
			logger.Error("migrate agents schema", "error", err)
			os.Exit(1)
		}
		agentsRepo = pgRepo
	} else {
		agentsRepo = agents.NewMemoryRepository()
	}
	agentsSvc := agents.NewService(agentsRepo)
	if cfg.IsDev() {
		if n, err := agentsSvc.Seed(ctx); err != nil {
			logger.Warn("seed agents", "error", err)
		} else if n > 0 {
			logger.Info("seeded sample agents", "count", n)
		}
	}

	var rec recorder.Recorder = recorder.Noop{}
	if cfg.ReconcileDB != "" {
		sqliteRec, err := recorder.NewSQLiteRecorder(cfg.ReconcileDB)
		if err != nil {
			logger.Error("open reconcile recorder", "error", err)
			os.Exit(1)
		}
		defer sqliteRec.Close()
		rec = sqliteRec
		logger.Info("reconcile recorder opened", "path", cfg.ReconcileDB)
	}

	var auditor *reconcile.Reconciler
	if cfg.ReconcileCron != "" {
		auditor = reconcile.New(custodyVault, assets, cfg.Custody, rec, logger)
		if err := auditor.Start(cfg.ReconcileCron); err != nil {
			logger.Error("start reconciler", "error", err)
			os.Exit(1)
		}
		defer auditor.Stop()
	}

	srv, err := server.New(routes.Deps{
		Cfg:    cfg,
		DB:     db,
		Cache:  cache,
		Logger: logger,
		Vault:  custodyVault,
		Agents: agentsSvc,
	})
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
