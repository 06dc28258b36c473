package testkit

import (
	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
)

// Configuration is a fragment of fixture configuration. Attach it to a Suite
// or a Case; unset fields fall through to outer scopes.
type Configuration = config.Configuration

// ClasspathMode controls plugin classpath injection into the runner.
type ClasspathMode = config.ClasspathMode

// DirectoryMode selects how the working root is isolated.
type DirectoryMode = config.DirectoryMode

const (
	WithClasspath = config.WithClasspath
	NoClasspath   = config.NoClasspath

	Pristine   = config.Pristine
	CleanBuild = config.CleanBuild
	DirtyBuild = config.DirtyBuild
)

// Overrides is the snapshot of environment and config-file settings an
// Extension resolves against.
type Overrides = config.Overrides

// LoadOverrides reads an Overrides snapshot from lookup (usually
// os.LookupEnv) and the discovered fixturekit.yaml.
func LoadOverrides(lookup func(string) (string, bool)) (Overrides, error) {
	return config.LoadOverrides(lookup)
}

// Logger receives lifecycle logging.
type Logger = logger.Logger

// String returns s as a *string for Configuration literals.
func String(s string) *string {
	return config.String(s)
}

// ProjectMarker selects the fixture project a test runs against. Only the
// test case itself may carry it.
type ProjectMarker struct {
	// Dir is relative to the projects root.
	Dir string
}

// Project selects the fixture directory dir under the projects root.
func Project(dir string) ProjectMarker {
	return ProjectMarker{Dir: dir}
}
