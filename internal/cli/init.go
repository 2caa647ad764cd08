// Package cli provides the gestmaisctl commands and the bootstrap helpers
// shared by cmd/gestmais, cmd/statement-worker and cmd/gestmaisctl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"gestmais/internal/backend"
	"gestmais/internal/config"
	"gestmais/internal/log"
	"gestmais/internal/services"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the logger described by cfg and makes it the default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	logger := cfg.Logger(component)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exit logs err and terminates the process with status 1.
func Exit(logger *log.Logger, msg string, err error) {
	logger.Error(msg, log.FieldError, err)
	os.Exit(1)
}

// ShutdownContext returns a context cancelled on SIGINT or SIGTERM.
func ShutdownContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// OpenBackend creates the configured store and optional publisher.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return res, nil
}

// NewPaymentService wires the payment status engine to a backend using the
// thresholds, time zone and due rule from cfg.
func NewPaymentService(cfg *config.Config, res *backend.BackendResult, logger *log.Logger, extra ...services.Option) *services.PaymentStatusService {
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithPolicy(cfg.StatusPolicy()),
		services.WithLocation(cfg.Location()),
		services.WithDueRule(cfg.DueRule()),
	}
	if res.Publisher != nil {
		opts = append(opts, services.WithPublisher(res.Publisher))
	}
	opts = append(opts, extra...)
	return services.NewPaymentStatusService(res.Store, opts...)
}
