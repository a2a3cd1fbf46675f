// Package helmcli implements ports.ChartRendererPort by shelling out to the
// helm CLI.
package helmcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/nathantilsley/chart-render/internal/render/domain"
)

// Adapter renders charts by invoking `helm template` into an output
// directory. Each invocation is bounded by the configured timeout.
type Adapter struct {
	helmBin string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a helm CLI adapter. It verifies the helm binary is available
// on PATH at construction time.
func New(helmBin string, timeout time.Duration, logger *slog.Logger) (*Adapter, error) {
	resolved, err := exec.LookPath(helmBin)
	if err != nil {
		return nil, fmt.Errorf("helm binary %q not found: %w", helmBin, err)
	}
	return &Adapter{helmBin: resolved, timeout: timeout, logger: logger}, nil
}

// Render runs `helm template` for the release, writing manifests under
// outDir. The subprocess runs with rootDir as its working directory so
// relative chart and value-file paths resolve against the root.
func (a *Adapter) Render(ctx context.Context, rel domain.HelmRelease, rootDir, outDir string) error {
	args, err := a.buildArgs(rel, rootDir, outDir)
	if err != nil {
		return err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	a.logger.Debug("running helm template", "release", rel.Name, "args", args)

	cmd := exec.CommandContext(ctx, a.helmBin, args...)
	cmd.Dir = rootDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("helm template failed: %w\nstderr: %s", err, stderr.String())
	}
	return nil
}

// buildArgs constructs the helm template argument list. Top-level values
// keys are emitted in sorted order so the command line is deterministic.
func (a *Adapter) buildArgs(rel domain.HelmRelease, rootDir, outDir string) ([]string, error) {
	chartRef := rel.Chart
	if rel.IsLocal() {
		chartRef = rel.LocalChartPath()
	}

	args := []string{"template", rel.Name, chartRef}
	if !rel.IsLocal() {
		args = append(args, "--version", rel.Version)
	}
	args = append(args, "--namespace", rel.Namespace, "--output-dir", outDir)

	keys := make([]string, 0, len(rel.Values))
	for k := range rel.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		encoded, err := json.Marshal(rel.Values[k])
		if err != nil {
			return nil, fmt.Errorf("serializing value %q: %w", k, err)
		}
		args = append(args, "--set-json", k+"="+string(encoded))
	}

	for _, vf := range rel.ValueFiles {
		path := vf
		if !filepath.IsAbs(path) {
			path = filepath.Join(rootDir, path)
		}
		args = append(args, "--values", path)
	}

	return args, nil
}
