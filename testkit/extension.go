package testkit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
	"github.com/harrison/fixturekit/internal/scope"
	"github.com/harrison/fixturekit/internal/workdir"
	"github.com/harrison/fixturekit/runner"
)

// DefaultLogLevel applies when neither FIXTUREKIT_LOG_LEVEL nor the config
// file sets one.
const DefaultLogLevel = "warn"

// Extension prepares an Invocation before each test and releases it after.
// It holds no per-test state and may be shared by parallel tests.
type Extension struct {
	loadOverrides func() (config.Overrides, error)
	logger        logger.Logger
	newRunner     func() *runner.Runner
	cleanNames    []string
}

// Option configures an Extension.
type Option func(*Extension)

// WithOverrides uses a fixed snapshot instead of reading the environment.
func WithOverrides(o config.Overrides) Option {
	return func(e *Extension) {
		e.loadOverrides = func() (config.Overrides, error) { return o, nil }
	}
}

// WithOverridesFunc computes the snapshot at every BeforeEach.
func WithOverridesFunc(f func() (config.Overrides, error)) Option {
	return func(e *Extension) {
		e.loadOverrides = f
	}
}

// WithLogger sends lifecycle logging to l.
func WithLogger(l logger.Logger) Option {
	return func(e *Extension) {
		e.logger = l
	}
}

// WithRunnerFactory replaces runner.New as the base of every injected
// runner.
func WithRunnerFactory(f func() *runner.Runner) Option {
	return func(e *Extension) {
		e.newRunner = f
	}
}

// WithCleanNames replaces the directory names purged by clean passes.
func WithCleanNames(names ...string) Option {
	return func(e *Extension) {
		e.cleanNames = append([]string(nil), names...)
	}
}

// NewExtension creates an Extension. Without options it loads overrides from
// the process environment and fixturekit.yaml at every BeforeEach.
func NewExtension(opts ...Option) *Extension {
	e := &Extension{
		loadOverrides: config.LoadOverridesFromEnv,
		newRunner:     runner.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	defaultExtensionOnce sync.Once
	defaultExt           *Extension
)

func defaultExtension() *Extension {
	defaultExtensionOnce.Do(func() {
		defaultExt = NewExtension()
	})
	return defaultExt
}

// BeforeEach prepares the invocation for ctx. It returns (nil, nil) when the
// test carries no ProjectMarker.
func (e *Extension) BeforeEach(ctx scope.Context) (*Invocation, error) {
	return e.beforeEach(ctx, nil)
}

func (e *Extension) beforeEach(ctx scope.Context, newLogger func(level string) logger.Logger) (*Invocation, error) {
	marker, ok := scope.Find[ProjectMarker](ctx.MethodAnnotations())
	if !ok {
		return nil, nil
	}

	overrides, err := e.loadOverrides()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration overrides: %w", err)
	}

	log := e.logger
	if log == nil {
		level := overrides.LogLevel
		if level == "" {
			level = DefaultLogLevel
		}
		if newLogger != nil {
			log = newLogger(level)
		} else {
			log = logger.NewConsoleLogger(os.Stderr, level)
		}
	}

	fragments := scope.Collect[config.Configuration](ctx)
	log.LogTrace(fmt.Sprintf("merging %d configuration fragments from %d scopes", len(fragments), scope.Depth(ctx)))
	cfg, err := config.Resolve(fragments, overrides)
	if err != nil {
		return nil, err
	}
	log.LogTrace(fmt.Sprintf("effective configuration: projects_root=%s invocation_cache_dir=%s classpath_mode=%s directory_mode=%s tool_version=%q",
		*cfg.ProjectsRoot, *cfg.InvocationCacheDir, cfg.ClasspathMode, cfg.DirectoryMode, cfg.EffectiveToolVersion()))

	projectsRoot := *cfg.ProjectsRoot
	if err := requireDirectory(projectsRoot, "fixture projects root directory does not exist or is not a directory"); err != nil {
		return nil, err
	}

	cacheDir, err := filepath.Abs(*cfg.InvocationCacheDir)
	if err != nil {
		return nil, &ValidationError{Path: *cfg.InvocationCacheDir, Reason: "invocation cache directory cannot be made absolute", Err: err}
	}
	if info, err := os.Stat(cacheDir); err == nil && !info.IsDir() {
		return nil, &ValidationError{Path: cacheDir, Reason: "invocation cache directory exists but is not a directory"}
	}

	if marker.Dir == "" {
		return nil, &ValidationError{Path: projectsRoot, Reason: "fixture project marker names no directory under"}
	}
	projectDir := filepath.Join(projectsRoot, marker.Dir)
	if err := requireDirectory(projectDir, "fixture project root directory does not exist or is not a directory"); err != nil {
		return nil, err
	}

	opts := []workdir.Option{workdir.WithLogger(log)}
	if e.cleanNames != nil {
		opts = append(opts, workdir.WithCleanNames(e.cleanNames...))
	}
	dir, err := workdir.New(cfg.DirectoryMode, projectDir, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize %s working root for %s: %w", cfg.DirectoryMode, projectDir, err)
	}
	log.LogDebug(fmt.Sprintf("materialized %s working root %s for %s", cfg.DirectoryMode, dir.Root(), projectDir))

	return &Invocation{
		config:       cfg,
		overrides:    overrides,
		projectsRoot: projectsRoot,
		projectDir:   projectDir,
		cacheDir:     cacheDir,
		dir:          dir,
		logger:       log,
		newRunner:    e.newRunner,
	}, nil
}

// AfterEach releases the working root of inv. Problems are logged, never
// returned. A nil inv is a no-op, as is a second call.
func (e *Extension) AfterEach(inv *Invocation) {
	if inv == nil {
		return
	}
	inv.release()
}

func requireDirectory(path, reason string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ValidationError{Path: path, Reason: reason}
		}
		return &ValidationError{Path: path, Reason: reason, Err: err}
	}
	if !info.IsDir() {
		return &ValidationError{Path: path, Reason: reason}
	}
	return nil
}
