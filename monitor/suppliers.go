// Package monitor runs the Watchman, Analyst and Dispatcher over the
// dependency list, once or on a fixed interval.
//
// Information Hiding:
// - Dependency list file format
// - Per-dependency pipeline order and the broadened retry
// - Pacing between dependencies and the sleep between cycles
// - Scan statistics and Prometheus metrics
package monitor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/richinex/supplysentinel/internal/schema"
	"github.com/richinex/supplysentinel/model"
)

// ErrNoDependencyFile is returned when the dependency list does not exist.
var ErrNoDependencyFile = errors.New("dependency file not found")

// LoadDependencies reads and validates the dependency list at path.
func LoadDependencies(path string) ([]model.Dependency, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (run 'sentinel map' first)", ErrNoDependencyFile, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dependency file: %w", err)
	}

	deps, err := schema.Decode[[]model.Dependency](model.DependencyListSchema, string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid dependency file %s: %w", path, err)
	}
	return deps, nil
}

// SaveDependencies writes deps to path as an indented JSON array.
// Parent directories are created.
func SaveDependencies(path string, deps []model.Dependency) error {
	if deps == nil {
		deps = []model.Dependency{}
	}
	data, err := json.MarshalIndent(deps, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode dependencies: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write dependency file: %w", err)
	}
	return nil
}
