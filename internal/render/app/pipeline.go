package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nathantilsley/chart-render/internal/render/domain"
	"github.com/nathantilsley/chart-render/internal/render/ports"
)

// Pipeline executes one render: it expands a release's chart into an
// isolated temporary directory and atomically publishes the result to the
// release's output directory. A failed render never touches the previously
// published output.
type Pipeline struct {
	renderer ports.ChartRendererPort
	diff     ports.DiffPort
	logger   *slog.Logger
}

// NewPipeline creates a render pipeline wired with the templating tool
// adapter and a diff adapter used to report what changed between renders.
func NewPipeline(renderer ports.ChartRendererPort, diff ports.DiffPort, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		renderer: renderer,
		diff:     diff,
		logger:   logger,
	}
}

// Render renders the release and replaces its output directory. The
// temporary directory is created inside the output root so the final rename
// never crosses a filesystem boundary.
func (p *Pipeline) Render(ctx context.Context, rel domain.HelmRelease, envName, rootDir string) error {
	outputRoot := filepath.Join(rootDir, "output")
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return fmt.Errorf("creating output root: %w", err)
	}

	tmpDir, err := os.MkdirTemp(outputRoot, ".render-"+rel.Name+"-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}

	if err := p.renderer.Render(ctx, rel, rootDir, tmpDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("rendering release %q: %w", rel.Name, err)
	}

	finalDir := domain.OutputPath(rootDir, envName, rel.Name)
	previous := readManifests(finalDir)

	if err := p.publish(tmpDir, finalDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("publishing release %q: %w", rel.Name, err)
	}

	if len(previous) > 0 {
		current := readManifests(finalDir)
		baseName := fmt.Sprintf("%s/%s (previous)", envName, rel.Name)
		headName := fmt.Sprintf("%s/%s (rendered)", envName, rel.Name)
		if d := p.diff.ComputeDiff(baseName, headName, previous, current); d != "" {
			p.logger.Info("rendered output changed", "release", rel.Name, "env", envName)
			p.logger.Debug("render diff", "release", rel.Name, "diff", d)
		}
	}

	return nil
}

// publish replaces finalDir with tmpDir: delete, then rename. There is a
// brief window where the output path does not exist.
func (p *Pipeline) publish(tmpDir, finalDir string) error {
	if err := os.MkdirAll(filepath.Dir(finalDir), 0o755); err != nil {
		return fmt.Errorf("creating output parent: %w", err)
	}
	if err := os.RemoveAll(finalDir); err != nil {
		return fmt.Errorf("removing previous output: %w", err)
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return fmt.Errorf("moving rendered output into place: %w", err)
	}
	return nil
}

// readManifests concatenates every file under dir in lexical order. Returns
// nil when dir does not exist or cannot be read.
func readManifests(dir string) []byte {
	var out []byte
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		out = append(out, content...)
		return nil
	})
	return out
}
