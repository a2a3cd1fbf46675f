package ports

import "context"

// RenderUseCase is the driving port for running one incremental render pass
// over the releases declared under rootDir.
type RenderUseCase interface {
	Execute(ctx context.Context, rootDir string) error
}
