package runner

import (
	"regexp"
	"strings"
	"time"
)

// TaskOutcome is how a task ended in one build.
type TaskOutcome string

const (
	Success   TaskOutcome = "SUCCESS"
	Failed    TaskOutcome = "FAILED"
	UpToDate  TaskOutcome = "UP_TO_DATE"
	Skipped   TaskOutcome = "SKIPPED"
	NoSource  TaskOutcome = "NO_SOURCE"
	FromCache TaskOutcome = "FROM_CACHE"
)

// BuildTask is one task that executed in a build.
type BuildTask struct {
	Path    string
	Outcome TaskOutcome
}

// Result captures one invocation of the build tool.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
	Tasks    []BuildTask
}

// Succeeded reports whether the tool exited with status zero.
func (r *Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Task returns the task with the given path, or nil if it did not execute.
func (r *Result) Task(path string) *BuildTask {
	for i := range r.Tasks {
		if r.Tasks[i].Path == path {
			return &r.Tasks[i]
		}
	}
	return nil
}

// TaskPaths returns the paths of all executed tasks in execution order.
func (r *Result) TaskPaths() []string {
	paths := make([]string, 0, len(r.Tasks))
	for _, task := range r.Tasks {
		paths = append(paths, task.Path)
	}
	return paths
}

// TasksWithOutcome returns the executed tasks that ended with outcome.
func (r *Result) TasksWithOutcome(outcome TaskOutcome) []BuildTask {
	var tasks []BuildTask
	for _, task := range r.Tasks {
		if task.Outcome == outcome {
			tasks = append(tasks, task)
		}
	}
	return tasks
}

// taskLine matches plain console task headers: "> Task :path" optionally
// followed by an outcome label.
var taskLine = regexp.MustCompile(`^> Task (\S+)(?:\s+(\S.*))?$`)

var outcomeLabels = map[string]TaskOutcome{
	"":           Success,
	"FAILED":     Failed,
	"UP-TO-DATE": UpToDate,
	"SKIPPED":    Skipped,
	"NO-SOURCE":  NoSource,
	"FROM-CACHE": FromCache,
}

// ParseTasks extracts executed tasks from plain console output. A task seen
// twice keeps its first position and its last outcome.
func ParseTasks(output string) []BuildTask {
	var tasks []BuildTask
	index := make(map[string]int)

	for _, line := range strings.Split(output, "\n") {
		m := taskLine.FindStringSubmatch(strings.TrimRight(line, "\r "))
		if m == nil {
			continue
		}

		label := strings.TrimSpace(m[2])
		outcome, ok := outcomeLabels[label]
		if !ok {
			outcome = TaskOutcome(strings.ReplaceAll(label, "-", "_"))
		}

		if i, seen := index[m[1]]; seen {
			tasks[i].Outcome = outcome
			continue
		}
		index[m[1]] = len(tasks)
		tasks = append(tasks, BuildTask{Path: m[1], Outcome: outcome})
	}

	return tasks
}
