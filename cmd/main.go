package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/peercheck/peercheck/config"
	"github.com/peercheck/peercheck/internal/engine"
	"github.com/peercheck/peercheck/internal/httpserver"
	"github.com/peercheck/peercheck/internal/metrics"
	"github.com/peercheck/peercheck/internal/pairing"
	"github.com/peercheck/peercheck/internal/probe"
	"github.com/peercheck/peercheck/internal/store"
	"github.com/peercheck/peercheck/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Server.Environment)
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engineCfg, err := buildEngineConfig(cfg.Healthcheck)
	if err != nil {
		log.Error("invalid healthcheck configuration", zap.Error(err))
		os.Exit(1)
	}

	topo := pairing.Topology{
		Rank:           cfg.Node.Rank,
		WorldSize:      cfg.Node.WorldSize,
		LocalWorldSize: cfg.Node.LocalWorldSize,
	}

	prober, err := probe.NewCollective(topo, buildStore(cfg.Store), engineCfg.Timeout, log)
	if err != nil {
		log.Error("invalid topology", zap.Error(err))
		os.Exit(1)
	}

	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)

	eng := engine.New(engineCfg, prober, log, engine.WithCollector(collector))

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(collector, eng))
	if err != nil {
		log.Error("failed to create status server", zap.Error(err))
		eng.Shutdown()
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully...")
		eng.Shutdown()
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("error during shutdown", zap.Error(err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("status server failed", zap.Error(err))
			eng.Shutdown()
			os.Exit(1)
		}
	}
}

func buildEngineConfig(hc config.HealthcheckConfig) (engine.Config, error) {
	interval, err := time.ParseDuration(hc.Interval)
	if err != nil {
		return engine.Config{}, fmt.Errorf("parse interval: %w", err)
	}

	timeout, err := time.ParseDuration(hc.Timeout)
	if err != nil {
		return engine.Config{}, fmt.Errorf("parse timeout: %w", err)
	}

	var setupTimeout time.Duration
	if hc.SetupTimeout != "" {
		setupTimeout, err = time.ParseDuration(hc.SetupTimeout)
		if err != nil {
			return engine.Config{}, fmt.Errorf("parse setup timeout: %w", err)
		}
	}

	return engine.Config{
		AbortOnError:        hc.AbortOnError,
		Interval:            interval,
		Timeout:             timeout,
		SetupTimeout:        setupTimeout,
		SingleChannelRounds: hc.SingleChannelRounds,
	}, nil
}

func buildStore(sc config.StoreConfig) store.Store {
	if sc.Backend == config.StoreMemory {
		return store.NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     sc.Address,
		Password: sc.Password,
		DB:       sc.DB,
	})
	return store.NewRedis(client)
}
