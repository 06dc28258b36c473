// Package runner configures and executes one build-tool invocation against a
// fixture's working root and reports per-task outcomes.
//
// A Runner is a mutable builder: each With method updates the receiver and
// returns it, so a runner shared between several injected parameters of one
// test sees every configuration change. Runners are not safe for concurrent
// use.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultExecutable is the build tool invoked when none is configured.
const DefaultExecutable = "gradle"

// PluginClasspathEnv carries the plugin-under-test classpath to the invoked tool.
const PluginClasspathEnv = "FIXTUREKIT_PLUGIN_CLASSPATH"

var (
	// ErrNoProjectDir indicates Run was called before WithProjectDir.
	ErrNoProjectDir = errors.New("project directory not set")

	// ErrUnexpectedFailure indicates Build saw the tool fail.
	ErrUnexpectedFailure = errors.New("build failed unexpectedly")

	// ErrUnexpectedSuccess indicates BuildAndFail saw the tool succeed.
	ErrUnexpectedSuccess = errors.New("build succeeded unexpectedly")
)

// Runner is one configured invocation of the external build tool.
type Runner struct {
	executable      string
	projectDir      string
	args            []string
	env             []string
	pluginClasspath []string
	toolVersion     string
	cacheDir        string
	output          io.Writer
}

// New creates a Runner for DefaultExecutable with nothing else configured.
func New() *Runner {
	return &Runner{executable: DefaultExecutable}
}

// WithExecutable sets the build tool binary (name on PATH or path).
func (r *Runner) WithExecutable(executable string) *Runner {
	r.executable = executable
	return r
}

// WithProjectDir sets the directory the tool runs against.
func (r *Runner) WithProjectDir(dir string) *Runner {
	r.projectDir = dir
	return r
}

// WithArguments replaces the tool arguments (tasks and flags).
func (r *Runner) WithArguments(args ...string) *Runner {
	r.args = append([]string(nil), args...)
	return r
}

// WithEnvironment appends KEY=VALUE entries to the tool's environment, on top
// of the current process environment.
func (r *Runner) WithEnvironment(env ...string) *Runner {
	r.env = append(r.env, env...)
	return r
}

// WithPluginClasspath sets the plugin-under-test classpath exported to the
// tool. An empty call clears it.
func (r *Runner) WithPluginClasspath(paths ...string) *Runner {
	r.pluginClasspath = append([]string(nil), paths...)
	return r
}

// WithToolVersion pins the tool version. The matching distribution must be
// installed under the invocation cache directory; "" uses the executable as is.
func (r *Runner) WithToolVersion(version string) *Runner {
	r.toolVersion = version
	return r
}

// WithInvocationCacheDir sets the persistent directory the tool uses as its
// cache home. It is created on Run if missing.
func (r *Runner) WithInvocationCacheDir(dir string) *Runner {
	r.cacheDir = dir
	return r
}

// WithOutput tees the tool's combined output to w while it runs.
func (r *Runner) WithOutput(w io.Writer) *Runner {
	r.output = w
	return r
}

// Executable returns the configured build tool binary.
func (r *Runner) Executable() string { return r.executable }
func (r *Runner) ProjectDir() string { return r.projectDir }
func (r *Runner) Arguments() []string { return append([]string(nil), r.args...) }
func (r *Runner) PluginClasspath() []string { return append([]string(nil), r.pluginClasspath...) }
func (r *Runner) ToolVersion() string { return r.toolVersion }
func (r *Runner) InvocationCacheDir() string { return r.cacheDir }

// CommandArgs returns the full argument list passed to the tool.
func (r *Runner) CommandArgs() []string {
	args := []string{"--project-dir", r.projectDir}
	if r.cacheDir != "" {
		args = append(args, "--gradle-user-home", r.cacheDir)
	}
	args = append(args, "--console=plain")
	return append(args, r.args...)
}

func (r *Runner) environment() []string {
	env := os.Environ()
	if abs, err := filepath.Abs(r.projectDir); err == nil {
		env = append(env, "PWD="+abs)
	}
	env = append(env, r.env...)
	if len(r.pluginClasspath) > 0 {
		env = append(env, PluginClasspathEnv+"="+strings.Join(r.pluginClasspath, string(os.PathListSeparator)))
	}
	return env
}

// Run executes the tool and returns its result whether or not the build
// succeeded. An error is returned only when the tool could not be started.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if r.projectDir == "" {
		return nil, ErrNoProjectDir
	}

	executable, err := r.resolveExecutable()
	if err != nil {
		return nil, err
	}

	if r.cacheDir != "" {
		if err := os.MkdirAll(r.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("create invocation cache directory: %w", err)
		}
	}

	var buf bytes.Buffer
	var out io.Writer = &buf
	if r.output != nil {
		out = io.MultiWriter(&buf, r.output)
	}

	cmd := exec.CommandContext(ctx, executable, r.CommandArgs()...)
	cmd.Dir = r.projectDir
	cmd.Env = r.environment()
	cmd.Stdout = out
	cmd.Stderr = out

	startTime := time.Now()
	err = cmd.Run()

	result := &Result{
		Output:   buf.String(),
		Duration: time.Since(startTime),
	}
	result.Tasks = ParseTasks(result.Output)

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", executable, err)
		}
		result.ExitCode = exitErr.ExitCode()
	}

	return result, nil
}

// Build runs the tool and expects it to succeed.
func (r *Runner) Build(ctx context.Context) (*Result, error) {
	result, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	if !result.Succeeded() {
		return result, fmt.Errorf("%w in %s (exit code %d)\nOutput:\n%s",
			ErrUnexpectedFailure, r.projectDir, result.ExitCode, strings.TrimSpace(result.Output))
	}
	return result, nil
}

// BuildAndFail runs the tool and expects it to fail.
func (r *Runner) BuildAndFail(ctx context.Context) (*Result, error) {
	result, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	if result.Succeeded() {
		return result, fmt.Errorf("%w in %s\nOutput:\n%s",
			ErrUnexpectedSuccess, r.projectDir, strings.TrimSpace(result.Output))
	}
	return result, nil
}

func (r *Runner) resolveExecutable() (string, error) {
	if r.toolVersion == "" {
		return r.executable, nil
	}
	return FindDistribution(r.cacheDir, filepath.Base(r.executable), r.toolVersion)
}
