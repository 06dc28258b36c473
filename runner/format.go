package runner

import (
	"fmt"
	"strings"
	"time"
)

// FormatResult renders a result as a short report: one line per task and a
// status summary. Returns empty string for a nil result.
func FormatResult(result *Result) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	for _, task := range result.Tasks {
		sb.WriteString(fmt.Sprintf("%-40s %s\n", task.Path, task.Outcome))
	}

	if result.Succeeded() {
		sb.WriteString(fmt.Sprintf("BUILD SUCCESSFUL in %v (%d tasks)\n", result.Duration.Round(time.Millisecond), len(result.Tasks)))
	} else {
		sb.WriteString(fmt.Sprintf("BUILD FAILED in %v (exit code %d)\n", result.Duration.Round(time.Millisecond), result.ExitCode))
	}

	return sb.String()
}
