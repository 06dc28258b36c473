package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindConfigFile looks for fixturekit.yaml starting at dir and walking up.
// The walk stops after the first directory containing go.mod, so a module
// never picks up its parent's configuration. Returns "" when nothing is found.
func FindConfigFile(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	for {
		candidate := filepath.Join(current, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return "", nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			return "", nil
		}
		current = parent
	}
}

// FindModuleRoot returns the nearest directory at or above dir containing
// go.mod, or "" if there is none.
func FindModuleRoot(dir string) (string, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(current, "go.mod")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", nil
		}
		current = parent
	}
}
