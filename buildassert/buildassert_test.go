package buildassert

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/fixturekit/runner"
)

// recorder collects failures instead of failing the enclosing test.
type recorder struct {
	errors []string
}

func (r *recorder) Errorf(format string, args ...interface{}) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *recorder) failed() bool { return len(r.errors) > 0 }

const output = `> Task :compile
> Task :processResources NO-SOURCE
> Task :test UP-TO-DATE
> Task :lint SKIPPED
> Task :jar FROM-CACHE
> Task :check FAILED
BUILD FAILED
`

func sampleResult() *runner.Result {
	return &runner.Result{Output: output, ExitCode: 1, Tasks: runner.ParseTasks(output)}
}

func TestTaskOutcomes(t *testing.T) {
	result := sampleResult()

	tests := []struct {
		path  string
		check func(*TaskAssert) bool
	}{
		{":compile", (*TaskAssert).IsSuccess},
		{":compile", (*TaskAssert).IsSuccessOrFromCache},
		{":jar", (*TaskAssert).IsSuccessOrFromCache},
		{":jar", (*TaskAssert).IsFromCache},
		{":processResources", (*TaskAssert).IsNoSource},
		{":test", (*TaskAssert).IsUpToDate},
		{":lint", (*TaskAssert).IsSkipped},
		{":check", (*TaskAssert).IsFailed},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := &recorder{}
			assert.True(t, tt.check(Task(rec, result, tt.path)))
			assert.False(t, rec.failed(), rec.errors)
		})
	}
}

func TestTaskWrongOutcome(t *testing.T) {
	rec := &recorder{}

	assert.False(t, Task(rec, sampleResult(), ":test").IsSuccess())
	assert.True(t, rec.failed())
	assert.Contains(t, rec.errors[0], "task :test ended UP_TO_DATE, expected SUCCESS")
}

func TestTaskNotRun(t *testing.T) {
	rec := &recorder{}

	a := Task(rec, sampleResult(), ":missing")
	assert.True(t, rec.failed())
	assert.Contains(t, rec.errors[0], ":compile")
	assert.Empty(t, a.Outcome())

	assert.False(t, a.IsSuccess())
	assert.Len(t, rec.errors, 1)
}

func TestTaskDidNotRun(t *testing.T) {
	rec := &recorder{}
	assert.True(t, TaskDidNotRun(rec, sampleResult(), ":missing"))
	assert.False(t, rec.failed())

	assert.False(t, TaskDidNotRun(rec, sampleResult(), ":compile"))
	assert.True(t, rec.failed())
}

func TestOutputContainsAndSucceeded(t *testing.T) {
	rec := &recorder{}
	assert.True(t, OutputContains(rec, sampleResult(), "BUILD FAILED"))
	assert.False(t, rec.failed())

	assert.False(t, Succeeded(rec, sampleResult()))
	if assert.Len(t, rec.errors, 1) {
		assert.Contains(t, rec.errors[0], "BUILD FAILED in")
		assert.Contains(t, rec.errors[0], "(exit code 1)")
		assert.Contains(t, rec.errors[0], ":check")
	}
}

func TestNilResult(t *testing.T) {
	rec := &recorder{}
	Task(rec, nil, ":compile")
	OutputContains(rec, nil, "x")
	assert.Len(t, rec.errors, 2)
}
