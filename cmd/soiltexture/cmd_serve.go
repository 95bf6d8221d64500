package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mimir-aip/soil-texture/pkg/api"
	"github.com/mimir-aip/soil-texture/pkg/metadatastore"
	"github.com/mimir-aip/soil-texture/pkg/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Train the classifier and serve it over HTTP",
	Long: `Trains the classifier once at startup and serves predictions and
recommendations on PORT. When HISTORY_DB_PATH is set, predictions are
recorded and old entries are pruned on HISTORY_RETENTION_SCHEDULE.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := trainService()
	if err != nil {
		return err
	}

	sqliteStore, err := openHistory()
	if err != nil {
		return err
	}
	// Keep the interface nil, not a typed nil, when history is disabled.
	var store metadatastore.MetadataStore
	if sqliteStore != nil {
		defer sqliteStore.Close()
		store = sqliteStore
		if err := store.SaveTrainingRun(svc.TrainingRun()); err != nil {
			return err
		}

		retention, err := scheduler.NewService(store, cfg.HistoryRetentionDays, cfg.HistoryRetentionSchedule, logger)
		if err != nil {
			return err
		}
		if err := retention.Start(); err != nil {
			return err
		}
		defer retention.Stop()
	}

	server := api.NewServer(svc, store, cfg.Port, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
