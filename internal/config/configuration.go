// Package config resolves the effective fixture configuration for a test.
//
// A Configuration is a record of optional fields. Fragments are collected from
// the test case outward through its enclosing suites, followed by the
// environment snapshot, the config file, the internal self-test flag and
// finally the hard defaults. Merging is first-specified-wins per field.
package config

import (
	"fmt"
	"path/filepath"
)

// Hard defaults applied when no fragment specifies a value.
const (
	DefaultProjectsRoot       = "testdata/projects"
	DefaultInvocationCacheDir = ".fixturekit/invocation-cache"
	DefaultClasspathMode      = WithClasspath
	DefaultDirectoryMode      = CleanBuild
)

// ClasspathMode controls whether the plugin-under-test classpath is attached
// to the invocation runner.
type ClasspathMode int

const (
	ClasspathUnset ClasspathMode = iota
	WithClasspath
	NoClasspath
)

var classpathModeNames = map[ClasspathMode]string{
	WithClasspath: "with-classpath",
	NoClasspath:   "no-classpath",
}

func (m ClasspathMode) String() string {
	if name, ok := classpathModeNames[m]; ok {
		return name
	}
	if m == ClasspathUnset {
		return "unset"
	}
	return fmt.Sprintf("ClasspathMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m ClasspathMode) MarshalText() ([]byte, error) {
	if m == ClasspathUnset {
		return []byte{}, nil
	}
	name, ok := classpathModeNames[m]
	if !ok {
		return nil, fmt.Errorf("invalid classpath mode %d", int(m))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value leaves the
// mode unset.
func (m *ClasspathMode) UnmarshalText(text []byte) error {
	parsed, err := ParseClasspathMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseClasspathMode parses a wire name. The empty string yields ClasspathUnset.
func ParseClasspathMode(s string) (ClasspathMode, error) {
	if s == "" {
		return ClasspathUnset, nil
	}
	for mode, name := range classpathModeNames {
		if name == s {
			return mode, nil
		}
	}
	return ClasspathUnset, fmt.Errorf("invalid classpath mode %q, must be one of: with-classpath, no-classpath", s)
}

// DirectoryMode selects the execution directory isolation strategy.
type DirectoryMode int

const (
	DirectoryModeUnset DirectoryMode = iota
	// Pristine copies the fixture into a fresh temporary directory.
	Pristine
	// CleanBuild works in place, purging build output before and after.
	CleanBuild
	// DirtyBuild works in place and leaves everything behind.
	DirtyBuild
)

var directoryModeNames = map[DirectoryMode]string{
	Pristine:   "pristine",
	CleanBuild: "clean-build",
	DirtyBuild: "dirty-build",
}

func (m DirectoryMode) String() string {
	if name, ok := directoryModeNames[m]; ok {
		return name
	}
	if m == DirectoryModeUnset {
		return "unset"
	}
	return fmt.Sprintf("DirectoryMode(%d)", int(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m DirectoryMode) MarshalText() ([]byte, error) {
	if m == DirectoryModeUnset {
		return []byte{}, nil
	}
	name, ok := directoryModeNames[m]
	if !ok {
		return nil, fmt.Errorf("invalid directory mode %d", int(m))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DirectoryMode) UnmarshalText(text []byte) error {
	parsed, err := ParseDirectoryMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseDirectoryMode parses a wire name. The empty string yields DirectoryModeUnset.
func ParseDirectoryMode(s string) (DirectoryMode, error) {
	if s == "" {
		return DirectoryModeUnset, nil
	}
	for mode, name := range directoryModeNames {
		if name == s {
			return mode, nil
		}
	}
	return DirectoryModeUnset, fmt.Errorf("invalid directory mode %q, must be one of: pristine, clean-build, dirty-build", s)
}

// Configuration is one fragment of fixture configuration. Nil pointers and
// zero enum values mean "not specified here".
type Configuration struct {
	// ProjectsRoot is the directory containing all fixture projects.
	ProjectsRoot *string `yaml:"projects_root,omitempty"`

	// InvocationCacheDir is the shared directory handed to the build tool as
	// its cache home so repeated runs avoid cold starts.
	InvocationCacheDir *string `yaml:"invocation_cache_dir,omitempty"`

	// ClasspathMode controls plugin classpath injection.
	ClasspathMode ClasspathMode `yaml:"classpath_mode,omitempty"`

	// ToolVersion pins the build tool version. Nil uses the tool's own default.
	ToolVersion *string `yaml:"tool_version,omitempty"`

	// DirectoryMode selects the execution directory strategy.
	DirectoryMode DirectoryMode `yaml:"directory_mode,omitempty"`
}

// String returns s as a *string, for building fragments inline.
func String(s string) *string {
	return &s
}

// Defaults returns the hard-coded defaults that close every merge chain.
func Defaults() Configuration {
	return Configuration{
		ProjectsRoot:       String(DefaultProjectsRoot),
		InvocationCacheDir: String(DefaultInvocationCacheDir),
		ClasspathMode:      DefaultClasspathMode,
		DirectoryMode:      DefaultDirectoryMode,
	}
}

// Merge returns a configuration where every field set in current is kept and
// every field unset in current is taken from next.
func Merge(current, next Configuration) Configuration {
	merged := current
	if merged.ProjectsRoot == nil {
		merged.ProjectsRoot = next.ProjectsRoot
	}
	if merged.InvocationCacheDir == nil {
		merged.InvocationCacheDir = next.InvocationCacheDir
	}
	if merged.ClasspathMode == ClasspathUnset {
		merged.ClasspathMode = next.ClasspathMode
	}
	if merged.ToolVersion == nil {
		merged.ToolVersion = next.ToolVersion
	}
	if merged.DirectoryMode == DirectoryModeUnset {
		merged.DirectoryMode = next.DirectoryMode
	}
	return merged
}

// Reduce folds fragments left to right with Merge. The earliest fragment
// specifying a field wins.
func Reduce(fragments ...Configuration) Configuration {
	var result Configuration
	for _, fragment := range fragments {
		result = Merge(result, fragment)
	}
	return result
}

// Equal reports whether two configurations specify the same values.
func (c Configuration) Equal(other Configuration) bool {
	return equalPtr(c.ProjectsRoot, other.ProjectsRoot) &&
		equalPtr(c.InvocationCacheDir, other.InvocationCacheDir) &&
		c.ClasspathMode == other.ClasspathMode &&
		equalPtr(c.ToolVersion, other.ToolVersion) &&
		c.DirectoryMode == other.DirectoryMode
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IsZero reports whether no field is specified.
func (c Configuration) IsZero() bool {
	return c.Equal(Configuration{})
}

// Validate checks that a fully merged configuration has no unset required
// field and no out-of-range enum.
func (c Configuration) Validate() error {
	if c.ProjectsRoot == nil || *c.ProjectsRoot == "" {
		return fmt.Errorf("projects_root cannot be empty")
	}
	if c.InvocationCacheDir == nil || *c.InvocationCacheDir == "" {
		return fmt.Errorf("invocation_cache_dir cannot be empty")
	}
	if _, ok := classpathModeNames[c.ClasspathMode]; !ok {
		return fmt.Errorf("classpath_mode must be set, got %s", c.ClasspathMode)
	}
	if _, ok := directoryModeNames[c.DirectoryMode]; !ok {
		return fmt.Errorf("directory_mode must be set, got %s", c.DirectoryMode)
	}
	if c.ToolVersion != nil && *c.ToolVersion == "" {
		return fmt.Errorf("tool_version cannot be empty when set")
	}
	return nil
}

// RelativeTo returns c with relative ProjectsRoot and InvocationCacheDir
// joined onto base. Absolute and unset paths are kept.
func (c Configuration) RelativeTo(base string) Configuration {
	c.ProjectsRoot = joinRelative(base, c.ProjectsRoot)
	c.InvocationCacheDir = joinRelative(base, c.InvocationCacheDir)
	return c
}

func joinRelative(base string, path *string) *string {
	if path == nil || *path == "" || filepath.IsAbs(*path) {
		return path
	}
	return String(filepath.Join(base, *path))
}

// EffectiveToolVersion returns the pinned tool version, or "" when the tool's
// bundled version should be used.
func (c Configuration) EffectiveToolVersion() string {
	if c.ToolVersion == nil {
		return ""
	}
	return *c.ToolVersion
}
