// Package manifestfile loads the declared environments from the
// .chart-render.yaml manifest under the root directory.
package manifestfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/chart-render/api"
	"github.com/nathantilsley/chart-render/internal/render/domain"
)

// ManifestName is the fixed name of the releases manifest under rootDir.
const ManifestName = ".chart-render.yaml"

// Adapter implements ports.ReleaseSourcePort by parsing the YAML manifest.
type Adapter struct{}

// New creates a manifest file adapter.
func New() *Adapter {
	return &Adapter{}
}

// LoadEnvironments reads and parses the manifest. A missing or unparsable
// manifest is an error: without it there is nothing to render.
func (a *Adapter) LoadEnvironments(_ context.Context, rootDir string) ([]domain.Environment, error) {
	path := filepath.Join(rootDir, ManifestName)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var manifest api.Manifest
	if err := yaml.Unmarshal(content, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	envs := make([]domain.Environment, 0, len(manifest.Environments))
	for _, env := range manifest.Environments {
		releases := make([]domain.HelmRelease, 0, len(env.Releases))
		for _, rel := range env.Releases {
			releases = append(releases, domain.HelmRelease{
				Name:       rel.Name,
				Namespace:  rel.Namespace,
				Chart:      rel.Chart,
				Version:    rel.Version,
				Values:     rel.Values,
				ValueFiles: rel.ValueFiles,
			})
		}
		envs = append(envs, domain.Environment{Name: env.Name, Releases: releases})
	}
	return envs, nil
}
