package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/grcdesk/grcdesk/internal/config"
	"github.com/spf13/cobra"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Apply the GRC collection and auth schema migrations.",
	Args:        cobra.NoArgs,
	Annotations: structuredLogAnnotations,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		m, err := migrate.New(migrationsSourceURL(migrationsPath), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer func() {
			srcErr, dbErr := m.Close()
			if err := errors.Join(srcErr, dbErr); err != nil {
				slog.Warn("closing migrator", "err", err)
			}
		}()

		if err := m.Up(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				slog.Info("no changes to apply")
				return nil
			}
			return err
		}

		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		slog.Info("migrations applied successfully", "version", version, "dirty", dirty)
		return nil
	},
}

func migrationsSourceURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "db/migrations"
	}
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "db/migrations", "Directory (or source URL) holding the migration files")
}
