package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/filelock"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create fixture configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

// newConfigShowCommand creates the 'fixturekit config show' command
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration a test without annotations would run with:
FIXTUREKIT_* environment variables, then fixturekit.yaml, then the
internal self-test flag, then the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, overrides, err := resolveConfig(config.Configuration{})
			if err != nil {
				return err
			}

			file := config.File{
				Configuration:  cfg,
				PluginMetadata: overrides.EffectivePluginMetadata(),
				LogLevel:       overrides.LogLevel,
			}
			data, err := file.Marshal()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if overrides.ConfigFile != "" {
				fmt.Fprintf(out, "# config file: %s\n", overrides.ConfigFile)
			}
			if overrides.IsInternal {
				fmt.Fprintf(out, "# %s is set\n", config.EnvInternal)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

// newConfigInitCommand creates the 'fixturekit config init' command
func newConfigInitCommand() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a fixturekit.yaml with the defaults spelled out",
		Args:  cobra.NoArgs,
		Long: `Write fixturekit.yaml with every setting at its default value.

Without --path the file goes to the root of the enclosing Go module, where
test binaries of every package in the module find it, or to the current
directory outside a module.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				var err error
				if path, err = defaultConfigPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			data, err := config.Template().Marshal()
			if err != nil {
				return err
			}
			if err := filelock.LockAndWrite(path, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Where to write the config file (default: <module root>/"+config.ConfigFileName+")")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

// defaultConfigPath places the config file at the module root, falling back
// to the working directory.
func defaultConfigPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	root, err := config.FindModuleRoot(wd)
	if err != nil {
		return "", err
	}
	if root == "" {
		root = wd
	}
	return filepath.Join(root, config.ConfigFileName), nil
}
