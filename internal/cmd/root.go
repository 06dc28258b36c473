// Package cmd implements the fixturekit maintenance commands.
package cmd

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for fixturekit
func NewRootCommand() *cobra.Command {
	var noColor bool
	var logLevel string

	cmd := &cobra.Command{
		Use:   "fixturekit",
		Short: "Maintain fixture projects used by build-tool tests",
		Long: `fixturekit inspects and maintains the fixture projects that tests run
the build tool against.

It shows the effective fixture configuration, cleans generated build
output from fixture trees, runs the build tool against a fixture the same
way a test would, and manages the shared invocation cache.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.NoColor = noColor || !isTerminal(cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error); defaults to FIXTUREKIT_LOG_LEVEL or info")

	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newCleanCommand())
	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

// isTerminal reports whether w is a terminal that can render colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// newLogger creates the console logger for a command. The --log-level flag
// beats the configured level.
func newLogger(cmd *cobra.Command, overrides config.Overrides) *logger.ConsoleLogger {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = overrides.LogLevel
	}
	if level == "" {
		level = "info"
	}
	return logger.NewConsoleLogger(cmd.ErrOrStderr(), level)
}

// resolveConfig loads the override snapshot and resolves it with extra as
// the closest fragment.
func resolveConfig(extra config.Configuration) (config.Configuration, config.Overrides, error) {
	overrides, err := config.LoadOverridesFromEnv()
	if err != nil {
		return config.Configuration{}, config.Overrides{}, err
	}
	cfg, err := config.Resolve([]config.Configuration{extra}, overrides)
	if err != nil {
		return config.Configuration{}, config.Overrides{}, err
	}
	return cfg, overrides, nil
}
