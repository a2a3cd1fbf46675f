// Package domain holds the core model of the render engine: releases,
// rendered state, checksums, and re-render reasons.
package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LocalChartScheme marks a chart reference as a local directory. The
// remainder of the reference is a path resolved against the root directory.
const LocalChartScheme = "file://"

// Environment is a named grouping of releases. It is constructed by the
// caller and immutable during a run.
type Environment struct {
	Name     string
	Releases []HelmRelease
}

// HelmRelease is one deployable unit. The chart reference discriminates two
// variants: a reference with the file:// scheme is a local chart directory
// and must not carry a version; any other reference is remote and must.
type HelmRelease struct {
	Name       string
	Namespace  string
	Chart      string
	Version    string
	Values     map[string]any
	ValueFiles []string
}

// IsLocal reports whether the release points at a local chart directory.
func (r HelmRelease) IsLocal() bool {
	return strings.HasPrefix(r.Chart, LocalChartScheme)
}

// LocalChartPath returns the chart reference with the local scheme stripped.
// Meaningful only when IsLocal is true.
func (r HelmRelease) LocalChartPath() string {
	return strings.TrimPrefix(r.Chart, LocalChartScheme)
}

// Validate checks the release is well-formed: name, namespace, and chart are
// set, and exactly one of "is local" / "has version" holds.
func (r HelmRelease) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("release has no name")
	}
	if r.Namespace == "" {
		return fmt.Errorf("release %q has no namespace", r.Name)
	}
	if r.Chart == "" {
		return fmt.Errorf("release %q has no chart reference", r.Name)
	}
	if r.IsLocal() && r.Version != "" {
		return fmt.Errorf("release %q: local chart must not carry a version", r.Name)
	}
	if !r.IsLocal() && r.Version == "" {
		return fmt.Errorf("release %q: remote chart %q requires a version", r.Name, r.Chart)
	}
	return nil
}

// OutputPath returns the directory a release's rendered manifests are
// published to: <root>/output/<env>/<release>.
func OutputPath(rootDir, envName, releaseName string) string {
	return filepath.Join(rootDir, "output", envName, releaseName)
}
