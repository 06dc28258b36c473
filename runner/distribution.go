package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
)

// ErrToolVersionNotInstalled indicates a pinned tool version has no
// distribution under the invocation cache directory.
var ErrToolVersionNotInstalled = errors.New("tool version not installed")

// FindDistribution locates the launcher of a pinned tool version in the
// wrapper layout under cacheDir:
//
//	<cacheDir>/wrapper/dists/<tool>-<version>-{bin,all}/<hash>/<tool>-<version>/bin/<tool>
//
// When several hashes match, the lexically first is used.
func FindDistribution(cacheDir, tool, version string) (string, error) {
	if cacheDir == "" {
		return "", fmt.Errorf("%w: %s %s (no invocation cache directory)", ErrToolVersionNotInstalled, tool, version)
	}

	launcher := tool
	if runtime.GOOS == "windows" {
		launcher += ".bat"
	}

	distsDir := filepath.Join(cacheDir, "wrapper", "dists")
	var matches []string
	for _, flavor := range []string{"bin", "all"} {
		pattern := filepath.Join(distsDir, fmt.Sprintf("%s-%s-%s", tool, version, flavor), "*",
			fmt.Sprintf("%s-%s", tool, version), "bin", launcher)
		found, err := filepath.Glob(pattern)
		if err != nil {
			return "", fmt.Errorf("search distributions: %w", err)
		}
		matches = append(matches, found...)
	}

	sort.Strings(matches)
	for _, match := range matches {
		if info, err := os.Stat(match); err == nil && !info.IsDir() {
			return match, nil
		}
	}

	return "", fmt.Errorf("%w: %s %s (looked in %s)", ErrToolVersionNotInstalled, tool, version, distsDir)
}
