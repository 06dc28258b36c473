// Package workdir materializes the working root a build invocation runs
// against.
//
// Three strategies exist. Cleaned works in place and purges generated
// directories before and after the test. Dirty works in place and touches
// nothing. Pristine copies the fixture to a fresh temporary directory,
// cleans the copy, and deletes the copy on Close.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
)

// DefaultCleanNames are the directory names purged by a clean pass: build
// output and the tool's project-local cache.
var DefaultCleanNames = []string{"build", ".gradle"}

// Directory is a working root whose lifetime is one test invocation.
type Directory interface {
	// Root is the directory the build runs against.
	Root() string

	// Close releases the directory.
	Close() error
}

type options struct {
	names  []string
	logger logger.Logger
}

// Option configures a Directory constructor.
type Option func(*options)

// WithCleanNames replaces DefaultCleanNames.
func WithCleanNames(names ...string) Option {
	return func(o *options) {
		o.names = append([]string(nil), names...)
	}
}

// WithLogger sets where release problems are reported.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := options{
		names:  DefaultCleanNames,
		logger: logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.NewNoOpLogger()
	}
	return o
}

// resolveRoot follows symlinks in root so a walk starts at the real
// directory; filepath.WalkDir does not follow a symlinked root. Unresolvable
// roots are returned unchanged for the walk to report.
func resolveRoot(root string) string {
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return root
	}
	return resolved
}

// New creates the Directory for mode over root. An unset or unknown mode is
// a programming error and panics.
func New(mode config.DirectoryMode, root string, opts ...Option) (Directory, error) {
	switch mode {
	case config.Pristine:
		return NewPristine(root, opts...)
	case config.CleanBuild:
		return NewCleaned(root, opts...)
	case config.DirtyBuild:
		return NewDirty(root), nil
	default:
		panic(fmt.Sprintf("workdir: no directory strategy for mode %s", mode))
	}
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// Dirty uses its root as is. Nothing is cleaned, copied or removed.
type Dirty struct {
	root string
}

// NewDirty wraps root.
func NewDirty(root string) *Dirty {
	return &Dirty{root: root}
}

func (d *Dirty) Root() string { return d.root }

// Close does nothing; changes made during the test persist.
func (d *Dirty) Close() error { return nil }
