package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/fixtures"
)

// newListCommand creates the 'fixturekit list' command
func newListCommand() *cobra.Command {
	var opts fixtures.ScanOptions
	var verbose bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the fixture projects under the projects root",
		Long: `List every fixture project under the effective projects root, one name
per line. The names are what tests pass to testkit.Project.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, overrides, err := resolveConfig(config.Configuration{})
			if err != nil {
				return err
			}
			log := newLogger(cmd, overrides)

			result, err := fixtures.Scan(*cfg.ProjectsRoot, opts)
			if err != nil {
				return err
			}
			for _, scanErr := range result.Errors {
				log.LogWarn(scanErr.Error())
			}

			out := cmd.OutOrStdout()
			for _, project := range result.Projects {
				if verbose {
					fmt.Fprintf(out, "%-40s %s\n", project.Name, strings.Join(project.Markers, ", "))
					continue
				}
				fmt.Fprintln(out, project.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Nested, "nested", false, "Also list projects inside other projects")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "Limit search depth (0 = unlimited)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show the marker files of each project")

	return cmd
}
