package app

import (
	"os"
	"testing"

	"github.com/nathantilsley/chart-render/internal/render/domain"
)

func TestDecide_PriorityOrder(t *testing.T) {
	rel := domain.HelmRelease{Name: "app", Namespace: "ns", Chart: "oci://x", Version: "1.0.0"}
	matching := checksums{source: "s1", target: "t1", values: "v1"}
	priorMatching := &domain.RenderedRelease{
		ReleaseName:    "app",
		SourceChecksum: "s1",
		TargetChecksum: "t1",
		ValuesChecksum: "v1",
		RenderedBy:     "alice",
	}

	tests := []struct {
		name       string
		prior      *domain.RenderedRelease
		sums       checksums
		outputDir  bool // whether the output directory exists
		ci         bool
		wantReason domain.Reason
		wantRender bool
	}{
		{
			name:       "no prior record",
			prior:      nil,
			sums:       matching,
			outputDir:  false,
			wantReason: domain.ReasonNewRelease,
			wantRender: true,
		},
		{
			name:       "prior record but output missing wins over checksum diff",
			prior:      &domain.RenderedRelease{ReleaseName: "app", SourceChecksum: "stale"},
			sums:       matching,
			outputDir:  false,
			wantReason: domain.ReasonTargetMissing,
			wantRender: true,
		},
		{
			name:       "source changed",
			prior:      priorMatching,
			sums:       checksums{source: "s2", target: "t1", values: "v1"},
			outputDir:  true,
			wantReason: domain.ReasonSourceChanged,
			wantRender: true,
		},
		{
			name:       "source change wins over target and values change",
			prior:      priorMatching,
			sums:       checksums{source: "s2", target: "t2", values: "v2"},
			outputDir:  true,
			wantReason: domain.ReasonSourceChanged,
			wantRender: true,
		},
		{
			name:       "target changed",
			prior:      priorMatching,
			sums:       checksums{source: "s1", target: "t2", values: "v1"},
			outputDir:  true,
			wantReason: domain.ReasonTargetChanged,
			wantRender: true,
		},
		{
			name:       "values changed",
			prior:      priorMatching,
			sums:       checksums{source: "s1", target: "t1", values: "v2"},
			outputDir:  true,
			wantReason: domain.ReasonValuesChanged,
			wantRender: true,
		},
		{
			name:       "CI actor with human prior record",
			prior:      priorMatching,
			sums:       matching,
			outputDir:  true,
			ci:         true,
			wantReason: domain.ReasonCIUserMismatch,
			wantRender: true,
		},
		{
			name: "CI actor with CI prior record",
			prior: &domain.RenderedRelease{
				ReleaseName:    "app",
				SourceChecksum: "s1",
				TargetChecksum: "t1",
				ValuesChecksum: "v1",
				RenderedBy:     "CI",
			},
			sums:       matching,
			outputDir:  true,
			ci:         true,
			wantReason: domain.ReasonNoChange,
			wantRender: false,
		},
		{
			name:       "no change",
			prior:      priorMatching,
			sums:       matching,
			outputDir:  true,
			wantReason: domain.ReasonNoChange,
			wantRender: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rootDir := t.TempDir()
			if tt.outputDir {
				if err := os.MkdirAll(domain.OutputPath(rootDir, "prod", rel.Name), 0o755); err != nil {
					t.Fatal(err)
				}
			}

			svc := newTestService(
				&mockReleaseSource{}, &mockStateStore{}, &mockRenderer{},
				&mockActor{ci: tt.ci, name: "alice"},
			)

			got := svc.decide(rel, rootDir, "prod", tt.prior, tt.sums)
			if got.Reason != tt.wantReason {
				t.Errorf("decide() reason = %s, want %s", got.Reason, tt.wantReason)
			}
			if got.NeedsRender != tt.wantRender {
				t.Errorf("decide() needsRender = %v, want %v", got.NeedsRender, tt.wantRender)
			}
		})
	}
}
