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

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/siteway/siteway/internal/cache"
	"github.com/siteway/siteway/internal/config"
	"github.com/siteway/siteway/internal/edge"
	"github.com/siteway/siteway/internal/logging"
	"github.com/siteway/siteway/internal/metrics"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/edge.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("siteway edge %s\n", version)
		os.Exit(0)
	}

	loader := config.NewLoader()
	cfg, err := loader.LoadEdge(*configPath)
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

	store := newStore(cfg)
	gateway, err := edge.New(cfg, store)
	if err != nil {
		logging.Error("failed to create gateway", zap.Error(err))
		os.Exit(1)
	}

	watcher, err := config.NewEdgeWatcher(*configPath)
	if err != nil {
		logging.Error("failed to create config watcher", zap.Error(err))
		os.Exit(1)
	}
	watcher.OnChange(func(next *config.EdgeConfig) {
		gateway.SetPolicy(&edge.Policy{
			TTL:            next.Cache.TTL(),
			BypassPrefixes: next.BypassPrefixes,
		})
	})
	if err := watcher.Start(); err != nil {
		logging.Warn("config watcher disabled", zap.Error(err))
	}
	defer watcher.Stop()

	logging.Info("starting edge gateway",
		zap.String("version", version),
		zap.String("listen", cfg.Listen),
		zap.String("origin", cfg.OriginURL),
		zap.String("base_domain", cfg.BaseDomain),
		zap.Duration("cache_ttl", cfg.Cache.TTL()),
		zap.Strings("bypass_prefixes", cfg.BypassPrefixes),
	)

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: gateway,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Listener is closed; let in-flight cache writes finish.
		gateway.Drain()
		return nil
	})

	if err := g.Wait(); err != nil {
		logging.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logging.Info("edge gateway stopped")
}

func newStore(cfg *config.EdgeConfig) cache.Store {
	if cfg.Cache.Mode == "distributed" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return cache.NewRedisStore(client, "edge:cache:", cfg.Cache.TTL())
	}
	return cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.TTL())
}
