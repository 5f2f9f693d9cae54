package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/expense-pilot/expense_pilot/internal/config"
	"github.com/expense-pilot/expense_pilot/internal/infra"
	"github.com/expense-pilot/expense_pilot/internal/logging"
	"github.com/expense-pilot/expense_pilot/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDevelopment())

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if cfg.DatabaseURL != "" && cfg.MigrateOnStart {
		if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
			logger.Error("run migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Postgres and Redis are both optional in development; each constructor
	// returns nil when its URL is unset.
	var (
		db    *pgxpool.Pool
		cache *redis.Client
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pool, err := infra.NewPostgresPool(gctx, cfg.DatabaseURL, infra.PoolOptions{
			MaxConns:        int32(cfg.DBMaxConns),
			MinConns:        int32(cfg.DBMinConns),
			MaxConnIdleTime: cfg.DBMaxConnIdle,
		})
		db = pool
		return err
	})
	g.Go(func() error {
		client, err := infra.NewRedisClient(gctx, cfg.RedisURL)
		cache = client
		return err
	})
	connectErr := g.Wait()
	if db != nil {
		defer db.Close()
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}
	if connectErr != nil {
		logger.Error("connect backing services", "error", connectErr)
		os.Exit(1)
	}

	srv, err := server.New(cfg, db, cache, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Address(), "env", cfg.AppEnv)
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}
