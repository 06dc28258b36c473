package testkit

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
	"github.com/harrison/fixturekit/runner"
)

const (
	projectsRoot      = "testdata/projects"
	otherProjectsRoot = "testdata/other-projects"
	fixtureName       = "default-project-root"
)

// internalExtension behaves as a self-test run: no environment, no config
// file, and classpath injection off unless a test asks for it.
func internalExtension(opts ...Option) *Extension {
	base := []Option{
		WithOverrides(config.Overrides{IsInternal: true}),
		WithLogger(logger.NewNoOpLogger()),
	}
	return NewExtension(append(base, opts...)...)
}

func beforeEach(t *testing.T, e *Extension, c *Case) *Invocation {
	t.Helper()
	inv, err := e.BeforeEach(c)
	require.NoError(t, err)
	require.NotNil(t, inv)
	t.Cleanup(func() { e.AfterEach(inv) })
	return inv
}

// newFixture creates projectsRoot/name with a source file and generated
// build directories.
func newFixture(t *testing.T, name string) (string, string) {
	t.Helper()
	root := t.TempDir()
	project := filepath.Join(root, name)
	for _, path := range []string{
		"build.gradle.kts",
		"src/main.txt",
		"build/out.txt",
		"sub/build/out.txt",
	} {
		full := filepath.Join(project, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(path), 0644))
	}
	return root, project
}

func TestBeforeEachWithoutMarker(t *testing.T) {
	e := internalExtension()
	c := NewSuite("NoMarker", Configuration{ProjectsRoot: String("does-not-exist")}).Test("plain")

	inv, err := e.BeforeEach(c)
	require.NoError(t, err)
	assert.Nil(t, inv)

	e.AfterEach(inv)

	_, err = inv.Resolve(Param{Capability: CapabilityRoot, Type: typeString})
	var unsupported *UnsupportedParameterError
	require.ErrorAs(t, err, &unsupported)
	assert.ErrorIs(t, err, ErrUnsupportedParameter)
}

func TestDefaultProjectsRoot(t *testing.T) {
	e := internalExtension()
	c := NewSuite("Defaults", Configuration{DirectoryMode: DirtyBuild}).
		Test("root", Project(fixtureName))

	inv := beforeEach(t, e, c)

	assert.Equal(t, filepath.Join(projectsRoot, fixtureName), inv.Root())
	assert.Equal(t, projectsRoot, inv.ProjectsRoot())
	assert.FileExists(t, filepath.Join(inv.Root(), "projects-default-project-root.keep"))
}

func TestSuiteOverridesProjectsRoot(t *testing.T) {
	e := internalExtension()
	c := NewSuite("Other", Configuration{ProjectsRoot: String(otherProjectsRoot), DirectoryMode: DirtyBuild}).
		Test("root", Project(fixtureName))

	inv := beforeEach(t, e, c)

	assert.FileExists(t, filepath.Join(inv.Root(), "other-projects-default-project-root.keep"))
}

func TestNestedSuitePrecedence(t *testing.T) {
	e := internalExtension()
	outer := NewSuite("Outer", Configuration{ProjectsRoot: String(otherProjectsRoot), DirectoryMode: DirtyBuild})

	tests := []struct {
		name     string
		testCase *Case
		marker   string
	}{
		{
			name:     "inherits outer suite",
			testCase: outer.Nested("Inner").Test("inherit", Project(fixtureName)),
			marker:   "other-projects-default-project-root.keep",
		},
		{
			name:     "inner suite beats outer suite",
			testCase: outer.Nested("Inner", Configuration{ProjectsRoot: String(projectsRoot)}).Test("inner", Project(fixtureName)),
			marker:   "projects-default-project-root.keep",
		},
		{
			name: "case beats every suite",
			testCase: outer.Nested("Inner", Configuration{ProjectsRoot: String(otherProjectsRoot)}).
				Test("case", Project(fixtureName), Configuration{ProjectsRoot: String(projectsRoot)}),
			marker: "projects-default-project-root.keep",
		},
		{
			name: "three levels deep",
			testCase: outer.Nested("Middle").Nested("Inner").
				Test("deep", Project(fixtureName)),
			marker: "other-projects-default-project-root.keep",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := beforeEach(t, e, tt.testCase)
			assert.FileExists(t, filepath.Join(inv.Root(), tt.marker))
			assert.Equal(t, DirtyBuild, inv.Configuration().DirectoryMode)
		})
	}
}

func TestBeforeEachTracesScopes(t *testing.T) {
	var buf bytes.Buffer
	e := NewExtension(
		WithOverrides(config.Overrides{IsInternal: true}),
		WithLogger(logger.NewConsoleLogger(&buf, "trace")),
	)
	c := NewSuite("Outer", Configuration{ProjectsRoot: String(otherProjectsRoot), DirectoryMode: DirtyBuild}).
		Nested("Middle").
		Nested("Inner", Configuration{ProjectsRoot: String(projectsRoot)}).
		Test("deep", Project(fixtureName))

	beforeEach(t, e, c)

	assert.Contains(t, buf.String(), "merging 2 configuration fragments from 4 scopes")
}

func TestEnvironmentBetweenAnnotationsAndDefaults(t *testing.T) {
	e := NewExtension(
		WithOverrides(config.Overrides{
			IsInternal: true,
			Env:        Configuration{ProjectsRoot: String(otherProjectsRoot), DirectoryMode: DirtyBuild},
		}),
		WithLogger(logger.NewNoOpLogger()),
	)

	inv := beforeEach(t, e, Test("env", Project(fixtureName)))
	assert.FileExists(t, filepath.Join(inv.Root(), "other-projects-default-project-root.keep"))

	annotated := NewSuite("Annotated", Configuration{ProjectsRoot: String(projectsRoot)}).
		Test("annotation", Project(fixtureName))
	inv = beforeEach(t, e, annotated)
	assert.FileExists(t, filepath.Join(inv.Root(), "projects-default-project-root.keep"))
}

func TestInternalFlagForcesNoClasspath(t *testing.T) {
	e := internalExtension()

	inv := beforeEach(t, e, NewSuite("S", Configuration{DirectoryMode: DirtyBuild}).Test("c", Project(fixtureName)))
	assert.Equal(t, NoClasspath, inv.Configuration().ClasspathMode)

	explicit := NewSuite("S", Configuration{DirectoryMode: DirtyBuild, ClasspathMode: WithClasspath}).
		Test("c", Project(fixtureName))
	inv = beforeEach(t, e, explicit)
	assert.Equal(t, WithClasspath, inv.Configuration().ClasspathMode)
}

func TestDefaultsWithoutOverrides(t *testing.T) {
	e := NewExtension(WithOverrides(config.Overrides{}), WithLogger(logger.NewNoOpLogger()))

	inv := beforeEach(t, e, NewSuite("S", Configuration{DirectoryMode: DirtyBuild}).Test("c", Project(fixtureName)))

	cfg := inv.Configuration()
	assert.Equal(t, WithClasspath, cfg.ClasspathMode)
	assert.Nil(t, cfg.ToolVersion)
	abs, err := filepath.Abs(config.DefaultInvocationCacheDir)
	require.NoError(t, err)
	assert.Equal(t, abs, inv.InvocationCacheDir())
}

func TestValidationErrors(t *testing.T) {
	cacheFile := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.WriteFile(cacheFile, nil, 0644))
	e := internalExtension()

	tests := []struct {
		name     string
		testCase *Case
		path     string
	}{
		{
			name:     "missing projects root",
			testCase: NewSuite("S", Configuration{ProjectsRoot: String("testdata/missing")}).Test("c", Project(fixtureName)),
			path:     "testdata/missing",
		},
		{
			name:     "projects root is a file",
			testCase: NewSuite("S", Configuration{ProjectsRoot: String(filepath.Join(projectsRoot, fixtureName, "build.gradle.kts"))}).Test("c", Project(fixtureName)),
			path:     filepath.Join(projectsRoot, fixtureName, "build.gradle.kts"),
		},
		{
			name:     "missing fixture",
			testCase: Test("c", Project("no-such-project")),
			path:     filepath.Join(projectsRoot, "no-such-project"),
		},
		{
			name:     "cache dir is a file",
			testCase: Test("c", Project(fixtureName), Configuration{InvocationCacheDir: String(cacheFile)}),
			path:     cacheFile,
		},
		{
			name:     "empty marker",
			testCase: Test("c", Project("")),
			path:     projectsRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := e.BeforeEach(tt.testCase)
			assert.Nil(t, inv)

			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.path, validation.Path)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestOverridesErrorIsReported(t *testing.T) {
	e := NewExtension(WithOverridesFunc(func() (config.Overrides, error) {
		return config.Overrides{}, assert.AnError
	}))

	_, err := e.BeforeEach(Test("c", Project(fixtureName)))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestResolveRootForms(t *testing.T) {
	e := internalExtension()
	inv := beforeEach(t, e, Test("c", Project(fixtureName), Configuration{DirectoryMode: DirtyBuild}))

	value, err := inv.Resolve(Param{Capability: CapabilityRoot, Type: typeString})
	require.NoError(t, err)
	assert.Equal(t, inv.Root(), value)

	value, err = inv.Resolve(ParamFor(typeRoot))
	require.NoError(t, err)
	assert.Equal(t, Root(inv.Root()), value)

	for _, typ := range []reflect.Type{typeFS, typeRootFS} {
		value, err = inv.Resolve(Param{Capability: CapabilityRoot, Type: typ})
		require.NoError(t, err)
		fsys, ok := value.(fs.FS)
		require.True(t, ok)
		_, err = fs.Stat(fsys, "projects-default-project-root.keep")
		assert.NoError(t, err)
	}
}

func TestResolveUnsupported(t *testing.T) {
	e := internalExtension()
	inv := beforeEach(t, e, Test("c", Project(fixtureName), Configuration{DirectoryMode: DirtyBuild}))

	for _, p := range []Param{
		{Name: "count", Capability: CapabilityRoot, Type: reflect.TypeFor[int]()},
		{Name: "root", Capability: CapabilityRunner, Type: typeString},
		{Name: "plain", Capability: CapabilityNone, Type: typeString},
		ParamFor(reflect.TypeFor[*os.File]()),
	} {
		value, err := inv.Resolve(p)
		assert.Nil(t, value)
		var unsupported *UnsupportedParameterError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, p, unsupported.Param)
	}
}

func TestRunnerBuiltOnceAndConfigured(t *testing.T) {
	cache := filepath.Join(t.TempDir(), "cache")
	e := internalExtension()
	inv := beforeEach(t, e, Test("c", Project(fixtureName), Configuration{
		DirectoryMode:      DirtyBuild,
		ToolVersion:        String("8.5"),
		InvocationCacheDir: String(cache),
	}))

	first, err := inv.Resolve(ParamFor(typeRunner))
	require.NoError(t, err)
	second, err := inv.Resolve(ParamFor(typeRunner))
	require.NoError(t, err)
	assert.Same(t, first, second)

	r := first.(*runner.Runner)
	assert.Equal(t, inv.Root(), r.ProjectDir())
	assert.Equal(t, "8.5", r.ToolVersion())
	assert.Equal(t, cache, r.InvocationCacheDir())
	assert.Empty(t, r.PluginClasspath())

	r.WithArguments("touch")
	again, err := inv.Runner()
	require.NoError(t, err)
	assert.Equal(t, []string{"touch"}, again.Arguments())
}

func TestRunnerFactory(t *testing.T) {
	e := internalExtension(WithRunnerFactory(func() *runner.Runner {
		return runner.New().WithExecutable("/opt/tool/bin/gradle")
	}))
	inv := beforeEach(t, e, Test("c", Project(fixtureName), Configuration{DirectoryMode: DirtyBuild}))

	r, err := inv.Runner()
	require.NoError(t, err)
	assert.Equal(t, "/opt/tool/bin/gradle", r.Executable())
	assert.Equal(t, inv.Root(), r.ProjectDir())
}

func TestRunnerAttachesPluginClasspath(t *testing.T) {
	metadataDir := t.TempDir()
	metadata := filepath.Join(metadataDir, "plugin-under-test-metadata.properties")
	require.NoError(t, os.WriteFile(metadata,
		[]byte("implementation-classpath=classes"+string(os.PathListSeparator)+"/abs/lib.jar\n"), 0644))

	e := NewExtension(
		WithOverrides(config.Overrides{PluginMetadata: metadata}),
		WithLogger(logger.NewNoOpLogger()),
	)
	inv := beforeEach(t, e, Test("c", Project(fixtureName), Configuration{DirectoryMode: DirtyBuild}))

	r, err := inv.Runner()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(metadataDir, "classes"), "/abs/lib.jar"}, r.PluginClasspath())
}

func TestRunnerMissingPluginMetadata(t *testing.T) {
	e := NewExtension(
		WithOverrides(config.Overrides{PluginMetadata: filepath.Join(t.TempDir(), "missing.properties")}),
		WithLogger(logger.NewNoOpLogger()),
	)
	inv := beforeEach(t, e, Test("c", Project(fixtureName), Configuration{DirectoryMode: DirtyBuild}))

	first, err := inv.Runner()
	assert.Nil(t, first)
	assert.ErrorIs(t, err, runner.ErrPluginMetadataNotFound)

	_, again := inv.Resolve(ParamFor(typeRunner))
	assert.Equal(t, err, again)
}

func TestPristineLifecycle(t *testing.T) {
	root, project := newFixture(t, "app")
	e := internalExtension()
	c := Test("c", Project("app"), Configuration{ProjectsRoot: String(root), DirectoryMode: Pristine})

	inv, err := e.BeforeEach(c)
	require.NoError(t, err)

	work := inv.Root()
	assert.NotEqual(t, project, work)
	assert.FileExists(t, filepath.Join(work, "src/main.txt"))
	assert.NoDirExists(t, filepath.Join(work, "build"))
	assert.NoDirExists(t, filepath.Join(work, "sub/build"))
	assert.FileExists(t, filepath.Join(project, "build/out.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(work, "scratch.txt"), nil, 0644))

	e.AfterEach(inv)
	assert.NoDirExists(t, work)
	assert.NoFileExists(t, filepath.Join(project, "scratch.txt"))

	e.AfterEach(inv)
	_, err = inv.Resolve(ParamFor(typeRoot))
	assert.ErrorIs(t, err, ErrUnsupportedParameter)
}

func TestCleanBuildLifecycle(t *testing.T) {
	root, project := newFixture(t, "app")
	e := internalExtension()
	c := Test("c", Project("app"), Configuration{ProjectsRoot: String(root), DirectoryMode: CleanBuild})

	inv, err := e.BeforeEach(c)
	require.NoError(t, err)

	assert.Equal(t, project, inv.Root())
	assert.NoDirExists(t, filepath.Join(project, "build"))
	assert.NoDirExists(t, filepath.Join(project, "sub/build"))
	assert.FileExists(t, filepath.Join(project, "src/main.txt"))

	require.NoError(t, os.MkdirAll(filepath.Join(project, "build"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".gradle"), 0755))

	e.AfterEach(inv)
	assert.NoDirExists(t, filepath.Join(project, "build"))
	assert.NoDirExists(t, filepath.Join(project, ".gradle"))
	assert.DirExists(t, project)
}

func TestCleanNamesOption(t *testing.T) {
	root, project := newFixture(t, "app")
	e := internalExtension(WithCleanNames("src"))

	inv := beforeEach(t, e, Test("c", Project("app"), Configuration{ProjectsRoot: String(root), DirectoryMode: CleanBuild}))

	assert.Equal(t, project, inv.Root())
	assert.NoDirExists(t, filepath.Join(project, "src"))
	assert.DirExists(t, filepath.Join(project, "build"))
}

func TestDirtyBuildLifecycle(t *testing.T) {
	root, project := newFixture(t, "app")
	e := internalExtension()
	c := Test("c", Project("app"), Configuration{ProjectsRoot: String(root), DirectoryMode: DirtyBuild})

	inv, err := e.BeforeEach(c)
	require.NoError(t, err)
	assert.Equal(t, project, inv.Root())

	require.NoError(t, os.WriteFile(filepath.Join(project, "build/new.txt"), nil, 0644))
	e.AfterEach(inv)

	assert.FileExists(t, filepath.Join(project, "build/out.txt"))
	assert.FileExists(t, filepath.Join(project, "build/new.txt"))
}

func TestAfterEachLogsReleaseProblems(t *testing.T) {
	root, _ := newFixture(t, "app")
	var buf bytes.Buffer
	e := NewExtension(
		WithOverrides(config.Overrides{IsInternal: true}),
		WithLogger(logger.NewConsoleLogger(&buf, "debug")),
	)

	inv, err := e.BeforeEach(Test("c", Project("app"), Configuration{ProjectsRoot: String(root), DirectoryMode: Pristine}))
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(inv.Root()))

	assert.NotPanics(t, func() { e.AfterEach(inv) })
	assert.Contains(t, buf.String(), "[WARN]")
}
