// Package statefile persists rendered-release records as a single JSON
// document under the root directory.
package statefile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nathantilsley/chart-render/internal/render/domain"
)

// StateFileName is the fixed name of the state document under rootDir.
const StateFileName = ".rendered.json"

// Store implements ports.StateStorePort with a JSON file.
type Store struct {
	logger *slog.Logger
}

// New creates a file-backed state store.
func New(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Load reads the state document. Any read or parse failure yields an empty
// state: a missing or corrupt file means every release looks new, which is
// safe, so it is never surfaced as an error.
func (s *Store) Load(rootDir string) domain.RenderedState {
	path := filepath.Join(rootDir, StateFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		s.logger.Info("no rendered state found, starting empty", "path", path)
		return domain.RenderedState{}
	}

	var state domain.RenderedState
	if err := json.Unmarshal(content, &state); err != nil {
		s.logger.Warn("rendered state unparsable, starting empty", "path", path, "error", err)
		return domain.RenderedState{}
	}
	return state
}

// Save serializes the full state and replaces any existing document.
func (s *Store) Save(rootDir string, state domain.RenderedState) error {
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing rendered state: %w", err)
	}
	path := filepath.Join(rootDir, StateFileName)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing rendered state: %w", err)
	}
	return nil
}
