package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/siteway/siteway/internal/config"
	"github.com/siteway/siteway/internal/logging"
	"github.com/siteway/siteway/internal/metrics"
	"github.com/siteway/siteway/internal/origin"
	"github.com/siteway/siteway/internal/session"
	"github.com/siteway/siteway/internal/site/postgres"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/origin.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("siteway origin %s\n", version)
		os.Exit(0)
	}

	loader := config.NewLoader()
	cfg, err := loader.LoadOrigin(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := connectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Error("failed to connect to site store", zap.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	repo := postgres.NewRepository(pool)
	authClient := session.NewClient(cfg.Auth)
	server := origin.New(cfg, repo, authClient)

	logging.Info("starting origin server",
		zap.String("version", version),
		zap.String("listen", cfg.Listen),
		zap.String("base_domain", cfg.BaseDomain),
	)

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: server,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	if cfg.Metrics.Listen != "" {
		metricsServer := &http.Server{Addr: cfg.Metrics.Listen, Handler: metrics.Handler()}
		g.Go(func() error {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logging.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logging.Info("origin server stopped")
}

// connectDB opens the pgx pool, retrying with exponential backoff so a
// briefly unavailable database at boot does not kill the process.
func connectDB(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	operation := func() error {
		var err error
		pool, err = pgxpool.New(ctx, databaseURL)
		if err != nil {
			return err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	notify := func(err error, next time.Duration) {
		logging.Warn("site store not ready, retrying",
			zap.Error(err),
			zap.Duration("next_attempt_in", next),
		)
	}
	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		return nil, err
	}
	return pool, nil
}
