package logger

import (
	"strings"
	"testing"
)

// tbWriter forwards each written line to tb.Log.
type tbWriter struct {
	tb testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// NewTestLogger returns a ConsoleLogger whose lines go to tb.Log, so they
// are attributed to the running test and only shown on failure or -v.
func NewTestLogger(tb testing.TB, logLevel string) *ConsoleLogger {
	return NewConsoleLogger(tbWriter{tb: tb}, logLevel)
}
