package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	noopmetric "go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/nathantilsley/chart-render/internal/platform/logger"
	"github.com/nathantilsley/chart-render/internal/render/domain"
)

// Mock adapters for testing

type mockReleaseSource struct {
	envs []domain.Environment
	err  error
}

func (m *mockReleaseSource) LoadEnvironments(_ context.Context, _ string) ([]domain.Environment, error) {
	return m.envs, m.err
}

type mockStateStore struct {
	state     domain.RenderedState
	saveCount int
	saveErr   error
}

func (m *mockStateStore) Load(_ string) domain.RenderedState {
	cp := make([]domain.RenderedRelease, len(m.state.Environments))
	copy(cp, m.state.Environments)
	return domain.RenderedState{Environments: cp}
}

func (m *mockStateStore) Save(_ string, state domain.RenderedState) error {
	m.saveCount++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state = state
	return nil
}

type mockRenderer struct {
	calls   int
	failFor map[string]bool
}

func (m *mockRenderer) Render(_ context.Context, rel domain.HelmRelease, _, outDir string) error {
	m.calls++
	if m.failFor[rel.Name] {
		return fmt.Errorf("helm template failed for %s", rel.Name)
	}
	manifest := fmt.Sprintf("release: %s\nvalues: %v\n", rel.Name, rel.Values)
	return os.WriteFile(filepath.Join(outDir, "manifest.yaml"), []byte(manifest), 0o644)
}

type mockActor struct {
	ci   bool
	name string
}

func (m *mockActor) IsCI() bool   { return m.ci }
func (m *mockActor) Name() string { return m.name }

type mockDiff struct{}

func (m *mockDiff) ComputeDiff(baseName, headName string, base, head []byte) string {
	if string(base) != string(head) {
		return fmt.Sprintf("--- %s\n+++ %s", baseName, headName)
	}
	return ""
}

func newTestService(source *mockReleaseSource, store *mockStateStore, renderer *mockRenderer, actor *mockActor) *RenderService {
	log := logger.New("error")
	pipeline := NewPipeline(renderer, &mockDiff{}, log)
	return NewRenderService(
		source, store, pipeline, actor,
		domain.NewChecksumEngine(log), log,
		noopmetric.NewMeterProvider().Meter("test"),
		nooptrace.NewTracerProvider().Tracer("test"),
	)
}

func remoteRelease(name string, values map[string]any) domain.HelmRelease {
	return domain.HelmRelease{
		Name:      name,
		Namespace: "ns",
		Chart:     "oci://registry/" + name,
		Version:   "1.0.0",
		Values:    values,
	}
}

func TestService_FirstRunRendersNewRelease(t *testing.T) {
	rootDir := t.TempDir()
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{remoteRelease("app", map[string]any{"a": 1})}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	svc := newTestService(source, store, renderer, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if renderer.calls != 1 {
		t.Errorf("expected 1 render invocation, got %d", renderer.calls)
	}
	if store.saveCount != 1 {
		t.Errorf("expected state saved exactly once, got %d", store.saveCount)
	}

	rec := store.state.Lookup("app")
	if rec == nil {
		t.Fatal("expected a rendered record for app")
	}
	if rec.RenderedBy != "tester" {
		t.Errorf("expected renderedBy tester, got %q", rec.RenderedBy)
	}
	if rec.SourceChecksum == "" || rec.TargetChecksum == "" || rec.ValuesChecksum == "" {
		t.Error("expected all three checksums recorded")
	}

	manifest := filepath.Join(domain.OutputPath(rootDir, "prod", "app"), "manifest.yaml")
	if _, err := os.Stat(manifest); err != nil {
		t.Errorf("expected published manifest at %s: %v", manifest, err)
	}
}

func TestService_SecondRunWithoutChangesRendersNothing(t *testing.T) {
	rootDir := t.TempDir()
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{remoteRelease("app", map[string]any{"a": 1})}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	svc := newTestService(source, store, renderer, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	first := *store.state.Lookup("app")

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if renderer.calls != 1 {
		t.Errorf("expected zero renders on unchanged second run, got %d total", renderer.calls)
	}
	second := *store.state.Lookup("app")
	if first != second {
		t.Errorf("expected byte-identical record after no-op run:\n first: %+v\nsecond: %+v", first, second)
	}
	if store.saveCount != 2 {
		t.Errorf("expected state saved once per run, got %d", store.saveCount)
	}
}

func TestService_ValuesChangeRerendersOnlyThatRelease(t *testing.T) {
	rootDir := t.TempDir()
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{
			remoteRelease("app", map[string]any{"foo": "bar"}),
			remoteRelease("other", nil),
		}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	svc := newTestService(source, store, renderer, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	otherBefore := *store.state.Lookup("other")

	source.envs[0].Releases[0].Values = map[string]any{"foo": "baz"}
	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}

	if renderer.calls != 3 {
		t.Errorf("expected exactly one re-render (3 total invocations), got %d", renderer.calls)
	}
	if otherAfter := *store.state.Lookup("other"); otherAfter != otherBefore {
		t.Error("unchanged release's record must not be touched")
	}
}

func TestService_CISignalForcesSingleRerender(t *testing.T) {
	rootDir := t.TempDir()
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{remoteRelease("app", nil)}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	actor := &mockActor{name: "alice"}
	svc := newTestService(source, store, renderer, actor)

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}

	actor.ci = true
	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("CI Execute failed: %v", err)
	}
	if renderer.calls != 2 {
		t.Fatalf("expected CI mismatch to force one re-render, got %d total invocations", renderer.calls)
	}
	if rec := store.state.Lookup("app"); rec.RenderedBy != "CI" {
		t.Errorf("expected renderedBy CI, got %q", rec.RenderedBy)
	}

	// CI is now the canonical renderer, a third run changes nothing.
	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("third Execute failed: %v", err)
	}
	if renderer.calls != 2 {
		t.Errorf("expected no render once CI owns the record, got %d total invocations", renderer.calls)
	}
}

func TestService_RenderFailureKeepsPriorRecord(t *testing.T) {
	rootDir := t.TempDir()
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{
			remoteRelease("app", map[string]any{"v": 1}),
			remoteRelease("other", nil),
		}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	svc := newTestService(source, store, renderer, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	appBefore := *store.state.Lookup("app")

	// Change app's values and make its render fail.
	source.envs[0].Releases[0].Values = map[string]any{"v": 2}
	renderer.failFor = map[string]bool{"app": true}

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("Execute must isolate per-release failures, got: %v", err)
	}

	if appAfter := *store.state.Lookup("app"); appAfter != appBefore {
		t.Error("failed re-render must not erase the last good record")
	}
	if store.saveCount != 2 {
		t.Errorf("expected state persisted after failures too, got %d saves", store.saveCount)
	}
}

func TestService_PlanFailureIsolatedPerRelease(t *testing.T) {
	rootDir := t.TempDir()
	broken := domain.HelmRelease{Name: "broken", Namespace: "ns", Chart: "oci://registry/broken"} // no version
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{broken, remoteRelease("app", nil)}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	svc := newTestService(source, store, renderer, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("Execute must isolate plan failures, got: %v", err)
	}

	if renderer.calls != 1 {
		t.Errorf("expected the valid release to render, got %d invocations", renderer.calls)
	}
	if store.state.Lookup("broken") != nil {
		t.Error("broken release must not gain a state record")
	}
	if store.state.Lookup("app") == nil {
		t.Error("valid release must gain a state record")
	}
}

func TestService_DeletedOutputTriggersRerender(t *testing.T) {
	rootDir := t.TempDir()
	source := &mockReleaseSource{envs: []domain.Environment{
		{Name: "prod", Releases: []domain.HelmRelease{remoteRelease("app", nil)}},
	}}
	store := &mockStateStore{}
	renderer := &mockRenderer{}
	svc := newTestService(source, store, renderer, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("first Execute failed: %v", err)
	}
	if err := os.RemoveAll(domain.OutputPath(rootDir, "prod", "app")); err != nil {
		t.Fatal(err)
	}

	if err := svc.Execute(context.Background(), rootDir); err != nil {
		t.Fatalf("second Execute failed: %v", err)
	}
	if renderer.calls != 2 {
		t.Errorf("expected re-render after output deletion, got %d total invocations", renderer.calls)
	}
}

func TestService_LoadEnvironmentsFailureIsFatal(t *testing.T) {
	source := &mockReleaseSource{err: fmt.Errorf("no manifest")}
	svc := newTestService(source, &mockStateStore{}, &mockRenderer{}, &mockActor{name: "tester"})

	if err := svc.Execute(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error when environments cannot be loaded")
	}
}
