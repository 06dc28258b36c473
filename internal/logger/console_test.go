package logger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/fixturekit/runner"
)

// TestNewConsoleLogger verifies the constructor normalizes the level.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, " WARN ")

		assert.Equal(t, "warn", logger.Level())
		assert.False(t, logger.colorOutput, "buffers never get color")
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, "loud")
		assert.Equal(t, "info", logger.Level())
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		assert.NotPanics(t, func() { logger.LogError("dropped") })
	})
}

// TestLogLevelFiltering verifies that messages are filtered based on log level
func TestLogLevelFiltering(t *testing.T) {
	log := func(l *ConsoleLogger, level string) {
		switch level {
		case "trace":
			l.LogTrace(level + " msg")
		case "debug":
			l.LogDebug(level + " msg")
		case "info":
			l.LogInfo(level + " msg")
		case "warn":
			l.LogWarn(level + " msg")
		case "error":
			l.LogError(level + " msg")
		}
	}

	levels := []string{"trace", "debug", "info", "warn", "error"}
	for i, configured := range levels {
		for j, message := range levels {
			buf := &bytes.Buffer{}
			l := NewConsoleLogger(buf, configured)
			log(l, message)

			appeared := strings.Contains(buf.String(), message+" msg")
			assert.Equal(t, j >= i, appeared, "configured=%s message=%s", configured, message)
		}
	}
}

func TestLogFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogWarn("could not remove /tmp/x")

	line := buf.String()
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] \[WARN\] could not remove /tmp/x\n$`, line)
}

func TestLogBuildResult(t *testing.T) {
	result := &runner.Result{
		ExitCode: 0,
		Duration: 90 * time.Second,
		Tasks: []runner.BuildTask{
			{Path: ":compile", Outcome: runner.Success},
			{Path: ":test", Outcome: runner.UpToDate},
		},
	}

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogBuildResult(result)

	out := buf.String()
	assert.Contains(t, out, ":compile SUCCESS")
	assert.Contains(t, out, ":test UP_TO_DATE")
	assert.Contains(t, out, "BUILD SUCCESSFUL in 1m30s (2 tasks)")

	buf.Reset()
	NewConsoleLogger(buf, "warn").LogBuildResult(result)
	assert.Empty(t, buf.String())

	buf.Reset()
	NewConsoleLogger(buf, "info").LogBuildResult(&runner.Result{ExitCode: 1})
	assert.Contains(t, buf.String(), "BUILD FAILED")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d))
	}
}

func TestTestLogger(t *testing.T) {
	l := NewTestLogger(t, "debug")
	assert.Equal(t, "debug", l.Level())
	l.LogDebug("routed through t.Log")
}

func TestNoOpLogger(t *testing.T) {
	var l Logger = NewNoOpLogger()
	assert.NotPanics(t, func() {
		l.LogTrace("x")
		l.LogError("x")
	})
}
