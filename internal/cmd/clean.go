package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/workdir"
)

// newCleanCommand creates the 'fixturekit clean' command
func newCleanCommand() *cobra.Command {
	var names []string

	cmd := &cobra.Command{
		Use:   "clean <dir>...",
		Short: "Remove generated build directories from fixture trees",
		Long: `Remove every directory with a generated-output name (build and .gradle
by default) anywhere below each given directory. The directories
themselves are kept.

Examples:
  fixturekit clean testdata/projects
  fixturekit clean --names build,out testdata/projects/app`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := config.LoadOverridesFromEnv()
			if err != nil {
				return err
			}
			log := newLogger(cmd, overrides)

			for _, dir := range args {
				if _, err := workdir.NewCleaned(dir, workdir.WithCleanNames(names...), workdir.WithLogger(log)); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %s\n", dir)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&names, "names", workdir.DefaultCleanNames, "Directory names to remove")

	return cmd
}
