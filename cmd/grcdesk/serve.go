package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/pgxstore"
	"github.com/alexedwards/scs/v2"
	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/config"
	httpapp "github.com/grcdesk/grcdesk/internal/http"
	"github.com/grcdesk/grcdesk/internal/metrics"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/grcdesk/grcdesk/internal/source"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

const progressLogInterval = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the HTTP server and, when EXPORT_INTERVAL is set, the scheduled export loop.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	queries := store.New(pool)
	assembler := newAssembler(source.NewStoreSource(queries))
	orch := newOrchestrator(cfg, assembler)

	if _, metricsErr := metrics.StartServer(ctx, cfg.MetricsAddr); metricsErr != nil {
		go func() {
			if err, ok := <-metricsErr; ok && err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	if cfg.WorkerEnabled() {
		scheduler := bulk.Scheduler{Runner: newDirJob(cfg, orch), Interval: cfg.ExportInterval}
		go scheduler.Run(ctx)
	}

	srv, err := httpapp.NewEchoServer(cfg, queries, newSessionManager(cfg, pool), assembler, orch)
	if err != nil {
		return err
	}

	slog.Info("listening", "addr", cfg.HTTPAddr)
	return srv.ListenAndServe(ctx, cfg.HTTPAddr)
}

func newSessionManager(cfg config.Config, pool *pgxpool.Pool) *scs.SessionManager {
	sessions := scs.New()
	sessions.Store = pgxstore.New(pool)
	sessions.Lifetime = cfg.SessionLifetime
	sessions.Cookie.Name = source.SessionCookieName
	sessions.Cookie.HttpOnly = true
	sessions.Cookie.SameSite = http.SameSiteLaxMode
	sessions.Cookie.Secure = cfg.AuthCookieSecure
	return sessions
}

func newAssembler(src source.Source) *report.Assembler {
	return report.NewAssembler(source.Instrument(src, slog.Default()))
}

func newOrchestrator(cfg config.Config, a bulk.Assembler) *bulk.Orchestrator {
	orch := bulk.NewOrchestrator(a)
	orch.SetPacing(cfg.ExportPacing)
	orch.SetLogger(slog.Default())
	orch.SetReporter(&bulk.LogReporter{Logger: slog.Default(), ProgressInterval: progressLogInterval})
	return orch
}

func newDirJob(cfg config.Config, orch *bulk.Orchestrator) *bulk.DirJob {
	return &bulk.DirJob{
		Orchestrator: orch,
		Request: bulk.Request{
			Types:  cfg.ExportReports,
			Format: cfg.ExportFormat,
		},
		Dir: cfg.ExportDir,
	}
}
