package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"powerpulse/internal/cli"
	"powerpulse/internal/dataset"
	apphttp "powerpulse/internal/http"
	"powerpulse/internal/log"
	"powerpulse/internal/metrics"
	"powerpulse/internal/model"
	"powerpulse/internal/services"
	"powerpulse/internal/storage"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	Long: `Loads the energy table once, then serves the summary, dashboard and
prediction pages together with a JSON API, health checks and metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	m := metrics.New()
	handle := dataset.New(
		storage.NewLoader(cfg.Storage(), logger),
		dataset.WithLogger(logger),
		dataset.WithLoadObserver(m.DatasetLoaded),
	)

	// The table is loaded before the listener opens; a failed load is fatal.
	lease, err := handle.Acquire(ctx)
	if err != nil {
		logger.Error("Failed to load energy data", log.FieldDriver, cfg.DBDriver, log.FieldError, err)
		return fmt.Errorf("load energy data: %w", err)
	}
	rows := lease.Table().Len()
	lease.Release()

	publisher, err := cli.NewPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect %s publisher: %w", cfg.NotifyBackend, err)
	}

	reports, stopCache := cli.NewReportCache(cfg, m, logger)
	dashboard := services.NewDashboardService(handle, reports, m, logger)
	predictions := services.NewPredictionService(model.NewPredictor(cfg.ModelPath, logger), publisher, m, logger)

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:        ":" + cfg.Port,
		Dashboard:   dashboard,
		Predictions: predictions,
		Ready:       handle.Loaded,
		Metrics:     m,
		Logger:      logger,
	})
	if err != nil {
		_ = predictions.Close()
		stopCache()
		return err
	}

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		stopCache()
		if err := predictions.Close(); err != nil {
			logger.Error("Publisher close error", log.FieldError, err)
		}
		if err := handle.Close(); err != nil {
			logger.Error("Dataset close error", log.FieldError, err)
		}
	})

	logger.Info("Starting powerpulse server",
		log.FieldAddr, srv.Addr,
		log.FieldRows, rows,
		log.FieldDriver, cfg.DBDriver,
		log.FieldModel, cfg.ModelPath,
		log.FieldBackend, publisher.Backend())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, log.FieldAddr, srv.Addr)
		return err
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
	return nil
}
