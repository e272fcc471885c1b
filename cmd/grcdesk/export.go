package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/grc"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/grcdesk/grcdesk/internal/source"
	"github.com/grcdesk/grcdesk/internal/store"
	"github.com/grcdesk/grcdesk/internal/ui"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// exportProfile is the optional YAML file passed with --profile.
type exportProfile struct {
	Format  string               `yaml:"format"`
	Reports []string             `yaml:"reports"`
	Output  string               `yaml:"output"`
	Pacing  string               `yaml:"pacing"`
	APIURL  string               `yaml:"apiUrl"`
	Filter  grc.GovernanceFilter `yaml:"filter"`
}

type exportFlags struct {
	Reports []string
	Format  string
	Output  string
	APIURL  string
	Session string
	Profile string
	Pacing  string
}

type exportOptions struct {
	Request bulk.Request
	Output  string
	Pacing  time.Duration
	APIURL  string
	Session string
}

var exportArgs exportFlags

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export reports to a directory with live progress.",
	Example: `  grcdesk export --reports audit,risk --format excel --output ./out
  grcdesk export --profile quarterly.yaml --api-url https://grc.example.com --session $TOKEN`,
	Args:        cobra.NoArgs,
	Annotations: structuredLogAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd.Context(), exportArgs)
	},
}

func runExport(ctx context.Context, flags exportFlags) error {
	cfg, err := config.LoadOptionalDB()
	if err != nil {
		return err
	}

	var profile exportProfile
	if strings.TrimSpace(flags.Profile) != "" {
		profile, err = loadExportProfile(flags.Profile)
		if err != nil {
			return err
		}
	}

	opts, err := resolveExportOptions(cfg, profile, flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, closeSource, err := openExportSource(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer closeSource()

	orch := bulk.NewOrchestrator(newAssembler(src))
	orch.SetPacing(opts.Pacing)
	orch.SetLogger(slog.Default())
	orch.SetReporter(ui.NewProgress())

	sink := &bulk.DirSink{Dir: opts.Output}
	summary, err := orch.Run(ctx, opts.Request, sink)
	if err != nil {
		return err
	}
	if err := sink.WriteSummary(summary); err != nil {
		return err
	}

	ui.PrintSummary(summary, opts.Output)
	if err := ctx.Err(); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return silentExit(exitCodeFailure, summary.Err())
	}
	return nil
}

func loadExportProfile(path string) (exportProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return exportProfile{}, fmt.Errorf("reading export profile: %w", err)
	}
	var profile exportProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return exportProfile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return profile, nil
}

// resolveExportOptions layers flags over the profile over the environment.
func resolveExportOptions(cfg config.Config, profile exportProfile, flags exportFlags) (exportOptions, error) {
	opts := exportOptions{
		Request: bulk.Request{
			Types:  cfg.ExportReports,
			Format: cfg.ExportFormat,
			Filter: profile.Filter,
		},
		Output:  cfg.ExportDir,
		Pacing:  cfg.ExportPacing,
		APIURL:  strings.TrimSpace(firstNonEmpty(flags.APIURL, profile.APIURL)),
		Session: strings.TrimSpace(flags.Session),
	}

	var errs []error
	if raw := firstNonEmptyList(flags.Reports, profile.Reports); raw != nil {
		types, err := report.ParseTypes(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("reports: %w", err))
		}
		opts.Request.Types = types
	}
	if raw := firstNonEmpty(flags.Format, profile.Format); raw != "" {
		format, err := export.ParseFormat(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("format: %w", err))
		}
		opts.Request.Format = format
	}
	if raw := firstNonEmpty(flags.Output, profile.Output); raw != "" {
		opts.Output = raw
	}
	if raw := firstNonEmpty(flags.Pacing, profile.Pacing); raw != "" {
		d, err := time.ParseDuration(raw)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("pacing: %w", err))
		case d < 0:
			errs = append(errs, errors.New("pacing: must not be negative"))
		default:
			opts.Pacing = d
		}
	}
	if opts.APIURL == "" && cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("either DATABASE_URL or --api-url is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return exportOptions{}, err
	}
	if err := opts.Request.Validate(); err != nil {
		return exportOptions{}, err
	}
	return opts, nil
}

// openExportSource reads from the remote API when one is configured and from
// the database otherwise.
func openExportSource(ctx context.Context, cfg config.Config, opts exportOptions) (source.Source, func(), error) {
	if opts.APIURL != "" {
		src := source.NewHTTPSource(opts.APIURL)
		src.Timeout = cfg.FetchTimeout
		src.SessionToken = opts.Session
		return src, func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return source.NewStoreSource(store.New(pool)), pool.Close, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptyList(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}

func init() {
	flags := exportCmd.Flags()
	flags.StringSliceVar(&exportArgs.Reports, "reports", nil, "Comma separated report types (governance, audit, compliance, risk, management)")
	flags.StringVar(&exportArgs.Format, "format", "", "Export format: pdf, excel or csv")
	flags.StringVarP(&exportArgs.Output, "output", "o", "", "Output directory (default EXPORT_DIR)")
	flags.StringVar(&exportArgs.APIURL, "api-url", "", "Read collections from a remote grcdesk API instead of the database")
	flags.StringVar(&exportArgs.Session, "session", "", "Session token sent to --api-url")
	flags.StringVar(&exportArgs.Profile, "profile", "", "YAML export profile")
	flags.StringVar(&exportArgs.Pacing, "pacing", "", "Pause between reports, e.g. 250ms (default EXPORT_PACING)")
}
