package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/logger"
	"github.com/harrison/fixturekit/runner"
	"github.com/harrison/fixturekit/testkit"
)

type runOptions struct {
	executable  string
	mode        string
	noClasspath bool
	verbose     bool
}

// newRunCommand creates the 'fixturekit run' command
func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run <project> [-- <tool args>...]",
		Short: "Run the build tool against a fixture project",
		Long: `Materialize a fixture project exactly as a test would, run the build tool
with the given arguments and print each task outcome.

Examples:
  fixturekit run default-project-root -- build
  fixturekit run --mode pristine --no-classpath app -- check --info`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVar(&opts.executable, "executable", runner.DefaultExecutable, "Build tool binary")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Directory mode (pristine, clean-build, dirty-build)")
	cmd.Flags().BoolVar(&opts.noClasspath, "no-classpath", false, "Do not inject the plugin-under-test classpath")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Stream the build tool output")

	return cmd
}

func runProject(cmd *cobra.Command, project string, toolArgs []string, opts runOptions) error {
	mode, err := config.ParseDirectoryMode(opts.mode)
	if err != nil {
		return err
	}
	fragment := config.Configuration{DirectoryMode: mode}
	if opts.noClasspath {
		fragment.ClasspathMode = config.NoClasspath
	}

	overrides, err := config.LoadOverridesFromEnv()
	if err != nil {
		return err
	}
	log := newLogger(cmd, overrides)
	out := cmd.OutOrStdout()

	ext := testkit.NewExtension(
		testkit.WithOverrides(overrides),
		testkit.WithLogger(log),
		testkit.WithRunnerFactory(func() *runner.Runner {
			r := runner.New().WithExecutable(opts.executable)
			if opts.verbose {
				r.WithOutput(out)
			}
			return r
		}),
	)

	inv, err := ext.BeforeEach(testkit.Test(project, testkit.Project(project), fragment))
	if err != nil {
		return err
	}
	defer ext.AfterEach(inv)

	r, err := inv.Runner()
	if err != nil {
		return err
	}
	log.LogDebug(fmt.Sprintf("running %s %v in %s", r.Executable(), r.CommandArgs(), inv.Root()))

	result, err := r.WithArguments(toolArgs...).Run(cmd.Context())
	if err != nil {
		return err
	}

	// Task outcomes are the command's output, so they print at info
	// regardless of --log-level.
	logger.NewConsoleLogger(out, "info").LogBuildResult(result)
	if !result.Succeeded() {
		return fmt.Errorf("%w (exit code %d)", runner.ErrUnexpectedFailure, result.ExitCode)
	}
	return nil
}
