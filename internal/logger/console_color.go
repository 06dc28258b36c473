package logger

import (
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/fixturekit/runner"
)

// colorLevel colors a level tag.
func colorLevel(level string) string {
	switch strings.ToUpper(level) {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// colorOutcome colors a task outcome.
// Green: ran and succeeded
// Red: failed
// Yellow: did not run (up to date, skipped, no source)
// Cyan: restored from cache
func colorOutcome(outcome runner.TaskOutcome) string {
	text := string(outcome)
	switch outcome {
	case runner.Success:
		return color.New(color.FgGreen).Sprint(text)
	case runner.Failed:
		return color.New(color.FgRed).Sprint(text)
	case runner.UpToDate, runner.Skipped, runner.NoSource:
		return color.New(color.FgYellow).Sprint(text)
	case runner.FromCache:
		return color.New(color.FgCyan).Sprint(text)
	default:
		return text
	}
}
