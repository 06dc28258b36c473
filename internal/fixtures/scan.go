// Package fixtures finds the fixture projects below a projects root.
//
// A fixture project is any directory holding one of the build-tool marker
// files. Hidden directories and generated-output directories are never
// searched. Non-fatal problems, such as an unreadable subdirectory, are
// collected in the result and the scan continues.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/fixturekit/internal/workdir"
)

// DefaultMarkers are the file names that make a directory a fixture project.
var DefaultMarkers = []string{
	"build.gradle",
	"build.gradle.kts",
	"settings.gradle",
	"settings.gradle.kts",
}

// ScanOptions configures Scan.
type ScanOptions struct {
	// Markers replaces DefaultMarkers when non-empty.
	Markers []string
	// ExcludeDirs are directory names never searched. Defaults to
	// workdir.DefaultCleanNames.
	ExcludeDirs []string
	// MaxDepth limits how far below the root projects are looked for
	// (0 = unlimited, 1 = direct children only).
	MaxDepth int
	// Nested also reports projects inside other projects, such as included
	// builds.
	Nested bool
}

// Project is one discovered fixture.
type Project struct {
	// Name is the slash-separated path relative to the projects root, the
	// value a test passes to testkit.Project.
	Name string
	// Dir is the absolute project directory.
	Dir string
	// Markers lists the marker files present.
	Markers []string
}

// ScanResult contains the projects found and any non-fatal errors.
type ScanResult struct {
	Projects []Project
	Errors   []error
}

// Names returns the project names in result order.
func (r *ScanResult) Names() []string {
	names := make([]string, len(r.Projects))
	for i, p := range r.Projects {
		names[i] = p.Name
	}
	return names
}

// Scan walks root and returns the fixture projects below it, sorted by name.
// root itself is never reported.
func Scan(root string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access projects root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("projects root is not a directory: %s", root)
	}

	markers := opts.Markers
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	excludeDirs := opts.ExcludeDirs
	if excludeDirs == nil {
		excludeDirs = workdir.DefaultCleanNames
	}
	exclude := make(map[string]bool, len(excludeDirs))
	for _, name := range excludeDirs {
		exclude[name] = true
	}

	result := &ScanResult{}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root || !d.IsDir() {
			return nil
		}
		if exclude[d.Name()] || strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to relativize %s: %w", path, err))
			return filepath.SkipDir
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1

		if found := presentMarkers(path, markers); len(found) > 0 {
			abs, err := filepath.Abs(path)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", path, err))
				return filepath.SkipDir
			}
			result.Projects = append(result.Projects, Project{
				Name:    filepath.ToSlash(rel),
				Dir:     abs,
				Markers: found,
			})
			if !opts.Nested {
				return filepath.SkipDir
			}
		}

		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk projects root: %w", err)
	}

	sort.Slice(result.Projects, func(i, j int) bool {
		return result.Projects[i].Name < result.Projects[j].Name
	})

	return result, nil
}

func presentMarkers(dir string, markers []string) []string {
	var found []string
	for _, marker := range markers {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err == nil && !info.IsDir() {
			found = append(found, marker)
		}
	}
	return found
}
