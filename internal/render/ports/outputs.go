package ports

import (
	"context"

	"github.com/nathantilsley/chart-render/internal/render/domain"
)

// ReleaseSourcePort abstracts loading the declared environments and their
// releases for a root directory.
type ReleaseSourcePort interface {
	LoadEnvironments(ctx context.Context, rootDir string) ([]domain.Environment, error)
}

// StateStorePort persists rendered-release records between runs. Load never
// fails: a missing or unparsable state document yields an empty state.
type StateStorePort interface {
	Load(rootDir string) domain.RenderedState
	Save(rootDir string, state domain.RenderedState) error
}

// ChartRendererPort abstracts the external templating tool. Render expands
// the release's chart and values into manifest files under outDir.
type ChartRendererPort interface {
	Render(ctx context.Context, rel domain.HelmRelease, rootDir, outDir string) error
}

// ActorPort identifies who is running the render, so CI detection and the
// renderer identity can be substituted in tests.
type ActorPort interface {
	IsCI() bool
	Name() string
}

// DiffPort computes a human-readable diff between two rendered manifests.
type DiffPort interface {
	ComputeDiff(baseName, headName string, base, head []byte) string
}
