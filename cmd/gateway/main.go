package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"venuegw/internal/api/rest"
	"venuegw/internal/cache"
	"venuegw/internal/config"
	"venuegw/internal/exchange"
	"venuegw/internal/exchange/common"
	"venuegw/internal/infra/health"
	"venuegw/internal/infra/log"
	"venuegw/internal/infra/metrics"
	"venuegw/internal/infra/runner"
	"venuegw/internal/sink"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := log.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("gateway exited")
		stop()
		os.Exit(1)
	}
}

// run owns every resource it opens; all of them are released before it
// returns, on error paths included.
func run(ctx context.Context, cfg config.Config, logger log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	registry := metrics.Init(logger)

	var store cache.Store = cache.NewMemory()
	if cfg.Cache.Path != "" {
		disk, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		store = disk
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("identity store close failed")
		}
	}()

	latest := sink.NewLatest(cfg.Gateway.Exchange)
	pubs := sink.Fanout{sink.NewLog(logger), sink.NewMetrics(cfg.Gateway.Exchange), latest}
	if len(cfg.Sink.Kafka.Brokers) > 0 {
		k := sink.NewKafka(cfg.Sink.Kafka.Brokers, cfg.Sink.Kafka.Topic, cfg.Gateway.Exchange, logger)
		defer func() {
			if err := k.Close(); err != nil {
				logger.Error().Err(err).Msg("kafka flush failed")
			}
		}()
		pubs = append(pubs, k)
	}

	gw, err := exchange.New(cfg.Gateway.Exchange, cfg, exchange.Deps{Publisher: pubs, Store: store, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if err := gw.Close(); err != nil {
			logger.Error().Err(err).Msg("gateway close failed")
		}
	}()

	api := rest.New(cfg, registry, latest, logger)
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}
	g := &runner.Group{}
	serverErrCh := g.Go(ctx, func(ctx context.Context) error {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	defer func() {
		health.Set(false, "shutting down")
		cancel()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown failed")
		}
		g.Wait()
		logger.Info().Msg("shutdown complete")
	}()

	logger.Info().
		Str("pair", cfg.Gateway.Base+"/"+cfg.Gateway.Quote).
		Str("addr", cfg.Server.Addr).
		Msg("venue gateway starting")

	hsCtx, hsCancel := context.WithTimeout(ctx, time.Duration(cfg.Gateway.BootstrapTimeoutSeconds)*time.Second)
	res, err := gw.Handshake(hsCtx, !cfg.Gateway.NoCache)
	hsCancel()
	if err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	api.SetHandshake(res)

	if !gw.Ready(ctx) {
		logger.Warn().Msg("push transport unavailable; serving handshake data only")
		latest.PublishConnectivity(common.Disconnected)
	}

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	return nil
}
