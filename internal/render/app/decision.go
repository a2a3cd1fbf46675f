package app

import (
	"os"

	"github.com/nathantilsley/chart-render/internal/render/domain"
)

// ciActorName is the sentinel renderer identity recorded for CI runs.
const ciActorName = "CI"

// checksums carries the three input checksums computed once at plan time.
type checksums struct {
	source string
	target string
	values string
}

// Decision is the outcome of change detection for one release.
type Decision struct {
	Reason      domain.Reason
	NeedsRender bool
}

// decide classifies whether (and why) a release must be re-rendered. The
// checks run in strict priority order and the first match wins, so exactly
// one reason is reported per release per run. Checksum comparisons are only
// reached once a prior record and an existing output directory are
// confirmed.
func (s *RenderService) decide(
	rel domain.HelmRelease,
	rootDir, envName string,
	prior *domain.RenderedRelease,
	sums checksums,
) Decision {
	if prior == nil {
		return Decision{Reason: domain.ReasonNewRelease, NeedsRender: true}
	}
	if _, err := os.Stat(domain.OutputPath(rootDir, envName, rel.Name)); err != nil {
		return Decision{Reason: domain.ReasonTargetMissing, NeedsRender: true}
	}
	if sums.source != prior.SourceChecksum {
		return Decision{Reason: domain.ReasonSourceChanged, NeedsRender: true}
	}
	if sums.target != prior.TargetChecksum {
		return Decision{Reason: domain.ReasonTargetChanged, NeedsRender: true}
	}
	if sums.values != prior.ValuesChecksum {
		return Decision{Reason: domain.ReasonValuesChanged, NeedsRender: true}
	}
	if s.actor.IsCI() && prior.RenderedBy != ciActorName {
		return Decision{Reason: domain.ReasonCIUserMismatch, NeedsRender: true}
	}
	return Decision{Reason: domain.ReasonNoChange, NeedsRender: false}
}
