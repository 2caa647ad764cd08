package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"gestmais/internal/config"
	"gestmais/internal/storage"
)

func (a *app) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.config()
			var dialect, dsn string
			switch cfg.DataBackend {
			case config.BackendSQLite:
				if err := os.MkdirAll(filepath.Dir(cfg.SQLiteDBPath), 0755); err != nil {
					return fmt.Errorf("create db directory: %w", err)
				}
				dialect, dsn = storage.DialectSQLite, storage.SQLiteDSN(cfg.SQLiteDBPath)
			case config.BackendPostgres:
				if cfg.DatabaseURL == "" {
					return fmt.Errorf("DATABASE_URL is required for the postgres backend")
				}
				dialect, dsn = storage.DialectPostgres, cfg.DatabaseURL
			default:
				return fmt.Errorf("backend %q has no migrations", cfg.DataBackend)
			}

			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return err
			}
			a.logger.Info("Migrations applied", "dialect", dialect)
			fmt.Fprintf(out(cmd), "Migrations applied (%s)\n", dialect)
			return nil
		},
	}
}
