// Package cli provides common CLI initialization utilities.
// This package consolidates the bootstrap shared by the powerpulse
// subcommands: configuration, logging, event publishers and shutdown.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"powerpulse/internal/amqp"
	"powerpulse/internal/analytics"
	"powerpulse/internal/cache"
	"powerpulse/internal/config"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
	"powerpulse/internal/mqtt"
	"powerpulse/internal/notify"
)

// SetupLogger initializes structured logging at the given level.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := log.DefaultConfig()
	cfg.Level = lvl
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger, nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bootstrap loads the configuration and sets up logging from it.
func Bootstrap() (*config.Config, *log.Logger, error) {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := SetupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// NewPublisher connects the configured event backend.
func NewPublisher(cfg *config.Config, logger *log.Logger) (notify.Publisher, error) {
	switch cfg.NotifyBackend {
	case notify.BackendNone, "":
		return notify.Noop{}, nil
	case notify.BackendAMQP:
		c, err := amqp.NewClient(amqp.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
			Queue:      cfg.AMQPQueue,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case notify.BackendMQTT:
		p, err := mqtt.New(mqtt.Config{
			Broker:   cfg.MQTTBroker,
			Topic:    cfg.MQTTTopic,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown notify backend %q", cfg.NotifyBackend)
}

// NewReportCache builds the per-month report cache and exports its counters
// on m. When entries expire a manager sweeps them every ttl; the returned stop
// func is a no-op otherwise.
func NewReportCache(cfg *config.Config, m *metrics.Metrics, logger *log.Logger) (*cache.LRU[int, analytics.Report], func()) {
	reports := cache.NewLRU[int, analytics.Report](cfg.ReportCacheSize, cfg.ReportCacheTTL)
	m.WatchCache("reports", reports)
	if cfg.ReportCacheTTL <= 0 {
		return reports, func() {}
	}
	mgr := cache.NewManager(logger)
	mgr.Register(reports)
	mgr.StartCleanup(cfg.ReportCacheTTL)
	return reports, mgr.Stop
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		cancel()

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
