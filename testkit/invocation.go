package testkit

import (
	"fmt"
	"os"
	"sync"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
	"github.com/harrison/fixturekit/internal/workdir"
	"github.com/harrison/fixturekit/runner"
)

// Invocation is the state of one test between BeforeEach and AfterEach.
type Invocation struct {
	config       config.Configuration
	overrides    config.Overrides
	projectsRoot string
	projectDir   string
	cacheDir     string
	dir          workdir.Directory
	logger       logger.Logger
	newRunner    func() *runner.Runner

	runnerOnce sync.Once
	runner     *runner.Runner
	runnerErr  error

	mu       sync.Mutex
	released bool
}

// Configuration returns the effective configuration.
func (inv *Invocation) Configuration() config.Configuration { return inv.config }

// ProjectsRoot returns the directory holding all fixture projects.
func (inv *Invocation) ProjectsRoot() string { return inv.projectsRoot }

// ProjectDir returns the fixture source directory the test selected.
func (inv *Invocation) ProjectDir() string { return inv.projectDir }

// InvocationCacheDir returns the absolute shared cache directory.
func (inv *Invocation) InvocationCacheDir() string { return inv.cacheDir }

// Root returns the working root the build runs against. For Pristine it is a
// temporary copy; otherwise it is ProjectDir.
func (inv *Invocation) Root() string { return inv.dir.Root() }

// Runner returns the invocation runner, building it on first call. Every
// later call returns the same instance.
func (inv *Invocation) Runner() (*runner.Runner, error) {
	inv.runnerOnce.Do(func() {
		inv.runner, inv.runnerErr = inv.buildRunner()
	})
	return inv.runner, inv.runnerErr
}

func (inv *Invocation) buildRunner() (*runner.Runner, error) {
	newRunner := inv.newRunner
	if newRunner == nil {
		newRunner = runner.New
	}
	r := newRunner().WithProjectDir(inv.Root())

	if inv.config.ClasspathMode == config.WithClasspath {
		metadata := inv.overrides.EffectivePluginMetadata()
		classpath, err := runner.ReadPluginClasspath(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to attach plugin classpath (use %s to run without it): %w", config.NoClasspath, err)
		}
		inv.logger.LogDebug(fmt.Sprintf("attached %d plugin classpath entries from %s", len(classpath), metadata))
		r.WithPluginClasspath(classpath...)
	}
	if version := inv.config.EffectiveToolVersion(); version != "" {
		r.WithToolVersion(version)
	}
	r.WithInvocationCacheDir(inv.cacheDir)

	return r, nil
}

// Resolve produces the value for p. Unsupported capabilities and types yield
// an *UnsupportedParameterError.
func (inv *Invocation) Resolve(p Param) (any, error) {
	if inv == nil {
		return nil, &UnsupportedParameterError{Param: p, Reason: "test has no fixture project marker"}
	}
	if inv.isReleased() {
		return nil, &UnsupportedParameterError{Param: p, Reason: "invocation already released"}
	}
	if !Supports(p) {
		return nil, &UnsupportedParameterError{Param: p, Reason: "no provider for this capability and type"}
	}

	switch p.Capability {
	case CapabilityRoot:
		root := inv.Root()
		switch p.Type {
		case typeString:
			return root, nil
		case typeRoot:
			return Root(root), nil
		default:
			return os.DirFS(root), nil
		}
	case CapabilityRunner:
		return inv.Runner()
	}
	return nil, &UnsupportedParameterError{Param: p, Reason: "no provider for this capability and type"}
}

func (inv *Invocation) isReleased() bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.released
}

func (inv *Invocation) release() {
	inv.mu.Lock()
	if inv.released {
		inv.mu.Unlock()
		return
	}
	inv.released = true
	inv.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			inv.logger.LogWarn(fmt.Sprintf("panic while releasing %s: %v", inv.dir.Root(), r))
		}
	}()
	if err := inv.dir.Close(); err != nil {
		inv.logger.LogWarn(fmt.Sprintf("could not release working root %s: %v", inv.dir.Root(), err))
		return
	}
	inv.logger.LogDebug(fmt.Sprintf("released working root %s", inv.dir.Root()))
}
