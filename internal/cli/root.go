package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"gestmais/internal/backend"
	"gestmais/internal/config"
	"gestmais/internal/log"
	"gestmais/internal/services"
)

var version = "0.1.0"

// app carries what every subcommand needs. Flags are bound to its fields.
type app struct {
	cfg    *config.Config
	logger *log.Logger

	backendFlag string
	asOf        string
}

// NewRootCommand builds the gestmaisctl command tree over cfg.
func NewRootCommand(cfg *config.Config, logger *log.Logger) *cobra.Command {
	if logger == nil {
		logger = log.Discard()
	}
	a := &app{cfg: cfg, logger: logger.WithComponent(log.ComponentCLI)}

	root := &cobra.Command{
		Use:   "gestmaisctl",
		Short: "Condominium payment status from the command line",
		Long: `gestmaisctl reads and updates condominium payment data.

It uses the same configuration as the server (DATA_BACKEND, SQLITE_DB_PATH,
DATABASE_URL, TIMEZONE, EXTRAORDINARY_DUE_RULE, ...), loaded from the
environment or a .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.backendFlag, "backend", "",
		"override DATA_BACKEND ("+strings.Join(backend.GetBackendTypeStrings(), ", ")+")")
	root.PersistentFlags().StringVar(&a.asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD) instead of today")

	root.AddCommand(
		a.statusCommand(),
		a.payCommand(),
		a.seedCommand(),
		a.migrateCommand(),
	)
	return root
}

// Execute runs gestmaisctl and exits non-zero on failure.
func Execute(ctx context.Context, cfg *config.Config, logger *log.Logger) {
	root := NewRootCommand(cfg, logger)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// config returns cfg with command-line overrides applied.
func (a *app) config() *config.Config {
	c := *a.cfg
	if a.backendFlag != "" {
		c.DataBackend = a.backendFlag
	}
	return &c
}

// open creates the backend and the payment service. The caller must close the result.
func (a *app) open(ctx context.Context) (*backend.BackendResult, *services.PaymentStatusService, error) {
	cfg := a.config()
	res, err := OpenBackend(ctx, cfg, a.logger)
	if err != nil {
		return nil, nil, err
	}

	var extra []services.Option
	if a.asOf != "" {
		day, err := time.ParseInLocation("2006-01-02", a.asOf, cfg.Location())
		if err != nil {
			res.Close()
			return nil, nil, fmt.Errorf("invalid --as-of %q: expected YYYY-MM-DD", a.asOf)
		}
		// Noon keeps the calendar date stable in any configured zone.
		at := day.Add(12 * time.Hour)
		extra = append(extra, services.WithClock(func() time.Time { return at }))
	}
	return res, NewPaymentService(cfg, res, a.logger, extra...), nil
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
