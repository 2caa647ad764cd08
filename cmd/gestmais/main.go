package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gestmais/internal/cli"
	apphttp "gestmais/internal/http"
	"gestmais/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Exit(log.New(log.DefaultConfig()), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		cli.Exit(logger, "Failed to initialize backend", err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	svc := cli.NewPaymentService(cfg, res, logger)
	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RequestTimeout: cfg.RequestTimeout,
		WriteRateLimit: cfg.RateLimitPerMinute,
		Logger:         logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting gestmais server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"timezone", cfg.Timezone,
			"events", res.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
