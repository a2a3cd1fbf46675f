package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/nathantilsley/chart-render/internal/platform/config"
	"github.com/nathantilsley/chart-render/internal/platform/logger"
	"github.com/nathantilsley/chart-render/internal/platform/telemetry"
)

func main() {
	cmd := &cli.Command{
		Name:  "chart-render",
		Usage: "incrementally render Helm chart releases declared in .chart-render.yaml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Value:   ".",
				Usage:   "root directory holding the manifest, value files, and output",
				Sources: cli.EnvVars("CHART_RENDER_ROOT"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd.String("root"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rootDir string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)

	// Initialize telemetry (noop unless OTEL_ENABLED=true)
	tel, err := telemetry.New(ctx, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	// Build dependency container
	container, err := NewContainer(cfg, log, tel)
	if err != nil {
		return fmt.Errorf("building container: %w", err)
	}

	return container.RenderService.Execute(ctx, rootDir)
}
