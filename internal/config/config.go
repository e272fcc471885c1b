package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/grcdesk/grcdesk/internal/bulk"
	"github.com/grcdesk/grcdesk/internal/export"
	"github.com/grcdesk/grcdesk/internal/report"
	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr        = ":8080"
	defaultSessionLifetime = 12 * time.Hour
	defaultExportDir       = "exports"
	defaultExportFormat    = export.FormatExcel
	defaultFetchTimeout    = 30 * time.Second
)

type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	MetricsAddr      string
	AuthCookieSecure bool
	SessionLifetime  time.Duration

	// ExportPacing is the pause between bulk export items; zero disables it.
	ExportPacing   time.Duration
	ExportDir      string
	ExportInterval time.Duration
	ExportReports  []report.Type
	ExportFormat   export.Format

	FetchTimeout time.Duration
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		HTTPAddr:         getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:      strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		AuthCookieSecure: getenvBoolDefault("AUTH_COOKIE_SECURE", false),
		SessionLifetime:  getenvDurationDefault("SESSION_LIFETIME", defaultSessionLifetime),
		ExportPacing:     bulk.DefaultPacing,
		ExportDir:        getenvDefault("EXPORT_DIR", defaultExportDir),
		ExportReports:    report.Types(),
		ExportFormat:     defaultExportFormat,
		FetchTimeout:     getenvDurationDefault("FETCH_TIMEOUT", defaultFetchTimeout),
	}

	if v := strings.TrimSpace(os.Getenv("EXPORT_PACING")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ExportPacing = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("EXPORT_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ExportInterval = d
		}
	}

	var errs []error
	if v := strings.TrimSpace(os.Getenv("EXPORT_REPORTS")); v != "" {
		types, err := report.ParseTypes(strings.Split(v, ","))
		if err != nil {
			errs = append(errs, fmt.Errorf("EXPORT_REPORTS: %w", err))
		}
		cfg.ExportReports = types
	}
	if v := strings.TrimSpace(os.Getenv("EXPORT_FORMAT")); v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("EXPORT_FORMAT: %w", err))
		} else {
			cfg.ExportFormat = f
		}
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}

	return cfg, errors.Join(errs...)
}

// WorkerEnabled reports whether the scheduled export worker has an interval.
func (c Config) WorkerEnabled() bool {
	return c.ExportInterval > 0
}

func getenvDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
