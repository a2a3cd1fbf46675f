// Package main provides the chart-render CLI for incrementally rendering
// Helm chart releases.
package main

import (
	"fmt"
	"log/slog"

	"github.com/nathantilsley/chart-render/internal/platform/config"
	"github.com/nathantilsley/chart-render/internal/platform/telemetry"
	actorenv "github.com/nathantilsley/chart-render/internal/render/adapters/actor_env"
	helmcli "github.com/nathantilsley/chart-render/internal/render/adapters/helm_cli"
	linediff "github.com/nathantilsley/chart-render/internal/render/adapters/line_diff"
	manifestfile "github.com/nathantilsley/chart-render/internal/render/adapters/manifest_file"
	statefile "github.com/nathantilsley/chart-render/internal/render/adapters/state_file"
	"github.com/nathantilsley/chart-render/internal/render/app"
	"github.com/nathantilsley/chart-render/internal/render/domain"
	"github.com/nathantilsley/chart-render/internal/render/ports"
)

// Container holds all application dependencies.
type Container struct {
	Config        config.Config
	Logger        *slog.Logger
	RenderService ports.RenderUseCase
}

// NewContainer builds and wires all dependencies.
func NewContainer(cfg config.Config, log *slog.Logger, tel *telemetry.Telemetry) (*Container, error) {
	// Adapters
	helmRenderer, err := helmcli.New(cfg.HelmBin, cfg.RenderTimeout, log)
	if err != nil {
		return nil, fmt.Errorf("creating helm adapter: %w", err)
	}
	stateStore := statefile.New(log)
	releaseSource := manifestfile.New()
	actor := actorenv.New()
	unifiedDiff := linediff.New()

	// Pipeline and domain service
	pipeline := app.NewPipeline(helmRenderer, unifiedDiff, log)
	renderService := app.NewRenderService(
		releaseSource,
		stateStore,
		pipeline,
		actor,
		domain.NewChecksumEngine(log),
		log,
		tel.Meter,
		tel.Tracer,
	)

	return &Container{
		Config:        cfg,
		Logger:        log,
		RenderService: renderService,
	}, nil
}
