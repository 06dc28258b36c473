// Package buildassert provides testify-style assertions over a build result.
package buildassert

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/fixturekit/runner"
)

type tHelper interface {
	Helper()
}

// TaskAssert checks the outcome of one task. Failures are reported to t and
// the assertion methods return whether they passed.
type TaskAssert struct {
	t      assert.TestingT
	result *runner.Result
	path   string
	task   *runner.BuildTask
}

// Task looks up path in result. A task that did not run is reported at once.
func Task(t assert.TestingT, result *runner.Result, path string) *TaskAssert {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	a := &TaskAssert{t: t, result: result, path: path}
	if result == nil {
		assert.Fail(t, "no build result", "expected task %s", path)
		return a
	}
	a.task = result.Task(path)
	if a.task == nil {
		assert.Fail(t, fmt.Sprintf("task %s did not run", path), "executed tasks: %s", strings.Join(result.TaskPaths(), ", "))
	}
	return a
}

// Outcome returns the task outcome, or "" when it did not run.
func (a *TaskAssert) Outcome() runner.TaskOutcome {
	if a.task == nil {
		return ""
	}
	return a.task.Outcome
}

func (a *TaskAssert) is(outcomes ...runner.TaskOutcome) bool {
	if h, ok := a.t.(tHelper); ok {
		h.Helper()
	}
	if a.task == nil {
		return false
	}
	for _, outcome := range outcomes {
		if a.task.Outcome == outcome {
			return true
		}
	}
	return assert.Fail(a.t,
		fmt.Sprintf("task %s ended %s, expected %s", a.path, a.task.Outcome, joinOutcomes(outcomes)),
		"build output:\n%s", a.result.Output)
}

func (a *TaskAssert) IsSuccess() bool   { return a.is(runner.Success) }
func (a *TaskAssert) IsFailed() bool    { return a.is(runner.Failed) }
func (a *TaskAssert) IsUpToDate() bool  { return a.is(runner.UpToDate) }
func (a *TaskAssert) IsSkipped() bool   { return a.is(runner.Skipped) }
func (a *TaskAssert) IsNoSource() bool  { return a.is(runner.NoSource) }
func (a *TaskAssert) IsFromCache() bool { return a.is(runner.FromCache) }

// IsSuccessOrFromCache passes when the task ran or was restored from the
// build cache.
func (a *TaskAssert) IsSuccessOrFromCache() bool {
	return a.is(runner.Success, runner.FromCache)
}

func joinOutcomes(outcomes []runner.TaskOutcome) string {
	names := make([]string, len(outcomes))
	for i, outcome := range outcomes {
		names[i] = string(outcome)
	}
	return strings.Join(names, " or ")
}

// TaskDidNotRun asserts that path is absent from the executed tasks.
func TaskDidNotRun(t assert.TestingT, result *runner.Result, path string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if result == nil {
		return assert.Fail(t, "no build result")
	}
	if task := result.Task(path); task != nil {
		return assert.Fail(t, fmt.Sprintf("task %s ran with outcome %s", path, task.Outcome))
	}
	return true
}

// OutputContains asserts that the build output contains s.
func OutputContains(t assert.TestingT, result *runner.Result, s string) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if result == nil {
		return assert.Fail(t, "no build result")
	}
	return assert.Contains(t, result.Output, s)
}

// Succeeded asserts that the build exited with code 0.
func Succeeded(t assert.TestingT, result *runner.Result) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if result == nil {
		return assert.Fail(t, "no build result")
	}
	return assert.True(t, result.Succeeded(), "%s\nbuild output:\n%s", runner.FormatResult(result), result.Output)
}
