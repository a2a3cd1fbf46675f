package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/nathantilsley/chart-render/internal/render/domain"
	"github.com/nathantilsley/chart-render/internal/render/ports"
)

// planItem is one release the current run must re-render, with the reason
// and the input checksums computed at plan time.
type planItem struct {
	envName string
	release domain.HelmRelease
	reason  domain.Reason
	sums    checksums
}

// RenderService implements ports.RenderUseCase by orchestrating the full
// incremental render workflow: load declared releases and persisted state,
// plan which releases changed, render each planned release through the
// pipeline, and write the updated state back exactly once.
type RenderService struct {
	source    ports.ReleaseSourcePort
	store     ports.StateStorePort
	pipeline  *Pipeline
	actor     ports.ActorPort
	checksums *domain.ChecksumEngine
	logger    *slog.Logger
	tracer    trace.Tracer

	renders  metric.Int64Counter
	failures metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRenderService creates a RenderService wired with all driven ports.
func NewRenderService(
	source ports.ReleaseSourcePort,
	store ports.StateStorePort,
	pipeline *Pipeline,
	actor ports.ActorPort,
	engine *domain.ChecksumEngine,
	logger *slog.Logger,
	meter metric.Meter,
	tracer trace.Tracer,
) *RenderService {
	renders, _ := meter.Int64Counter("chart_render.renders_total",
		metric.WithDescription("Releases rendered, by reason"))
	failures, _ := meter.Int64Counter("chart_render.failures_total",
		metric.WithDescription("Releases that failed to plan or render"))
	duration, _ := meter.Float64Histogram("chart_render.render_duration_seconds",
		metric.WithDescription("Wall time of one release render"),
		metric.WithUnit("s"))

	return &RenderService{
		source:    source,
		store:     store,
		pipeline:  pipeline,
		actor:     actor,
		checksums: engine,
		logger:    logger,
		tracer:    tracer,
		renders:   renders,
		failures:  failures,
		duration:  duration,
	}
}

// Execute runs one incremental render pass: plan, apply, persist.
// Per-release failures in either phase are logged and isolated; the run
// only fails on errors that affect the whole run (unreadable manifest,
// unwritable state file).
func (s *RenderService) Execute(ctx context.Context, rootDir string) error {
	ctx, span := s.tracer.Start(ctx, "render.run")
	defer span.End()

	envs, err := s.source.LoadEnvironments(ctx, rootDir)
	if err != nil {
		return fmt.Errorf("loading environments: %w", err)
	}

	state := s.store.Load(rootDir)
	s.warnDuplicateNames(envs)

	plan, planFailed, skipped := s.plan(rootDir, envs, &state)
	s.logger.Info("render plan built",
		"planned", len(plan), "skipped", skipped, "failed", planFailed)

	renderedBy := ciActorName
	if !s.actor.IsCI() {
		renderedBy = s.actor.Name()
	}

	rendered, applyFailed := 0, 0
	for _, item := range plan {
		attrs := metric.WithAttributes(
			attribute.String("release", item.release.Name),
			attribute.String("reason", string(item.reason)),
		)

		start := time.Now()
		relCtx, relSpan := s.tracer.Start(ctx, "render.release", trace.WithAttributes(
			attribute.String("release", item.release.Name),
			attribute.String("env", item.envName),
			attribute.String("reason", string(item.reason)),
		))
		err := s.pipeline.Render(relCtx, item.release, item.envName, rootDir)
		relSpan.End()
		s.duration.Record(ctx, time.Since(start).Seconds(), attrs)

		if err != nil {
			s.failures.Add(ctx, 1, attrs)
			s.logger.Error("render failed",
				"release", item.release.Name, "env", item.envName,
				"reason", item.reason, "error", err)
			applyFailed++
			continue
		}

		s.renders.Add(ctx, 1, attrs)
		state.Upsert(domain.RenderedRelease{
			ReleaseName:    item.release.Name,
			SourceChecksum: item.sums.source,
			TargetChecksum: item.sums.target,
			ValuesChecksum: item.sums.values,
			RenderedBy:     renderedBy,
		})
		rendered++
		s.logger.Info("rendered release",
			"release", item.release.Name, "env", item.envName,
			"reason", item.reason, "renderedBy", renderedBy)
	}

	if err := s.store.Save(rootDir, state); err != nil {
		return fmt.Errorf("saving rendered state: %w", err)
	}

	s.logger.Info("render run complete",
		"rendered", rendered,
		"failed", planFailed+applyFailed,
		"unchanged", skipped)
	return nil
}

// plan evaluates every declared release against the loaded state. Failures
// here (invalid release, unreadable checksum inputs) are isolated to the
// release, mirroring how render failures are isolated during apply.
func (s *RenderService) plan(
	rootDir string,
	envs []domain.Environment,
	state *domain.RenderedState,
) (items []planItem, failed, skipped int) {
	for _, env := range envs {
		for _, rel := range env.Releases {
			if err := rel.Validate(); err != nil {
				s.logger.Error("skipping invalid release", "env", env.Name, "error", err)
				failed++
				continue
			}

			source, err := s.checksums.Source(rel, rootDir)
			if err != nil {
				s.logger.Error("skipping release: source checksum failed",
					"release", rel.Name, "env", env.Name, "error", err)
				failed++
				continue
			}
			values, err := s.checksums.Values(rel, rootDir)
			if err != nil {
				s.logger.Error("skipping release: values checksum failed",
					"release", rel.Name, "env", env.Name, "error", err)
				failed++
				continue
			}
			sums := checksums{
				source: source,
				target: s.checksums.Target(rel),
				values: values,
			}

			prior := state.Lookup(rel.Name)
			decision := s.decide(rel, rootDir, env.Name, prior, sums)
			s.logger.Info("change detection",
				"release", rel.Name, "env", env.Name,
				"reason", decision.Reason, "needsRender", decision.NeedsRender)

			if !decision.NeedsRender {
				skipped++
				continue
			}
			items = append(items, planItem{
				envName: env.Name,
				release: rel,
				reason:  decision.Reason,
				sums:    sums,
			})
		}
	}
	return items, failed, skipped
}

// warnDuplicateNames flags release names declared in more than one
// environment: state records are keyed by name alone, so duplicates
// overwrite each other's records.
func (s *RenderService) warnDuplicateNames(envs []domain.Environment) {
	seen := make(map[string]string)
	for _, env := range envs {
		for _, rel := range env.Releases {
			if prevEnv, ok := seen[rel.Name]; ok && prevEnv != env.Name {
				s.logger.Warn("release name declared in multiple environments, state records will collide",
					"release", rel.Name, "environments", prevEnv+","+env.Name)
				continue
			}
			seen[rel.Name] = env.Name
		}
	}
}
