package main

import (
	"context"

	"gestmais/internal/cli"
	"gestmais/internal/config"
	"gestmais/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	ctx, stop := cli.ShutdownContext(context.Background())
	defer stop()

	cli.Execute(ctx, cfg, logger)
}
