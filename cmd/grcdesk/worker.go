package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/grcdesk/grcdesk/internal/metrics"
	"github.com/grcdesk/grcdesk/internal/source"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:         "worker",
	Short:       "Run scheduled bulk exports into EXPORT_DIR without the HTTP server.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWorker()
	},
}

func runWorker() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.WorkerEnabled() {
		return errors.New("EXPORT_INTERVAL must be set to a positive duration to run the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	orch := newOrchestrator(cfg, newAssembler(source.NewStoreSource(store.New(pool))))

	_, metricsErr := metrics.StartServer(ctx, cfg.MetricsAddr)

	slog.Info("export worker started",
		"interval", cfg.ExportInterval.String(),
		"format", string(cfg.ExportFormat),
		"reports", len(cfg.ExportReports),
		"dir", cfg.ExportDir,
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scheduler := bulk.Scheduler{Runner: newDirJob(cfg, orch), Interval: cfg.ExportInterval}
		scheduler.Run(ctx)
	}()

	select {
	case <-done:
		return nil
	case err := <-metricsErr:
		stop()
		<-done
		return err
	}
}
