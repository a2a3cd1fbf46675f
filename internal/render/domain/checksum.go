package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ChecksumEngine derives the content checksums change detection compares
// against persisted state. All checksums are SHA-256 hex strings.
type ChecksumEngine struct {
	logger *slog.Logger
}

// NewChecksumEngine creates a checksum engine. Unreadable inputs are skipped
// with a warning on the given logger rather than failing the computation.
func NewChecksumEngine(logger *slog.Logger) *ChecksumEngine {
	return &ChecksumEngine{logger: logger}
}

// Source returns the checksum identifying the release's chart source.
// Remote charts hash "<chart>:<version>"; a remote release without a version
// is an error. Local charts hash the chart manifest plus every file under
// templates/, visited in lexical order so the result is independent of
// filesystem enumeration order.
func (e *ChecksumEngine) Source(rel HelmRelease, rootDir string) (string, error) {
	if rel.IsLocal() {
		return e.localSource(rel, rootDir), nil
	}
	if rel.Version == "" {
		return "", fmt.Errorf("release %q: remote chart %q has no version", rel.Name, rel.Chart)
	}
	return hashString(rel.Chart + ":" + rel.Version), nil
}

// Target returns the checksum identifying the deployment target,
// independent of chart source and values.
func (e *ChecksumEngine) Target(rel HelmRelease) string {
	return hashString(rel.Namespace + ":" + rel.Name)
}

// Values returns the checksum over the release's inline values and the
// contents of its value files, in declared order. Inline values are
// serialized as JSON, which sorts map keys recursively, so key insertion
// order never changes the checksum. A missing value file is skipped.
func (e *ChecksumEngine) Values(rel HelmRelease, rootDir string) (string, error) {
	vals := rel.Values
	if vals == nil {
		vals = map[string]any{}
	}
	serialized, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("release %q: serializing values: %w", rel.Name, err)
	}

	var sb strings.Builder
	sb.Write(serialized)
	for _, vf := range rel.ValueFiles {
		resolved := resolvePath(rootDir, vf)
		content, err := os.ReadFile(resolved)
		if err != nil {
			e.logger.Warn("skipping unreadable value file", "release", rel.Name, "path", resolved, "error", err)
			continue
		}
		sb.WriteString(resolved)
		sb.WriteString(":")
		sb.Write(content)
	}
	return hashString(sb.String()), nil
}

// localSource hashes a local chart's content: Chart.yaml (if readable) and
// every file under templates/, concatenated as "<path>:<content>\n" with
// paths relative to the chart directory.
func (e *ChecksumEngine) localSource(rel HelmRelease, rootDir string) string {
	chartDir := resolvePath(rootDir, rel.LocalChartPath())

	var sb strings.Builder
	manifest := filepath.Join(chartDir, "Chart.yaml")
	if content, err := os.ReadFile(manifest); err != nil {
		e.logger.Warn("skipping unreadable chart manifest", "release", rel.Name, "path", manifest, "error", err)
	} else {
		sb.WriteString("Chart.yaml:")
		sb.Write(content)
		sb.WriteString("\n")
	}

	templatesDir := filepath.Join(chartDir, "templates")
	err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.logger.Warn("skipping unreadable template path", "release", rel.Name, "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			e.logger.Warn("skipping unreadable template file", "release", rel.Name, "path", path, "error", err)
			return nil
		}
		relPath, err := filepath.Rel(chartDir, path)
		if err != nil {
			relPath = path
		}
		sb.WriteString(filepath.ToSlash(relPath))
		sb.WriteString(":")
		sb.Write(content)
		sb.WriteString("\n")
		return nil
	})
	if err != nil {
		e.logger.Warn("skipping unreadable templates directory", "release", rel.Name, "path", templatesDir, "error", err)
	}

	return hashString(sb.String())
}

func resolvePath(rootDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
