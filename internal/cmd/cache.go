package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/fixturekit/internal/config"
	"github.com/harrison/fixturekit/internal/filelock"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the shared invocation cache",
	}

	cmd.AddCommand(newCachePathCommand())
	cmd.AddCommand(newCacheCleanCommand())

	return cmd
}

func cacheDir() (string, error) {
	cfg, _, err := resolveConfig(config.Configuration{})
	if err != nil {
		return "", err
	}
	dir, err := filepath.Abs(*cfg.InvocationCacheDir)
	if err != nil {
		return "", fmt.Errorf("resolve invocation cache directory: %w", err)
	}
	return dir, nil
}

// newCachePathCommand creates the 'fixturekit cache path' command
func newCachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the absolute invocation cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// newCacheCleanCommand creates the 'fixturekit cache clean' command
func newCacheCleanCommand() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete the invocation cache directory",
		Long: `Delete the shared invocation cache. The next build starts cold.

By default the command refuses to run while another fixturekit maintenance
command holds the cache lock. With --wait it waits up to the given duration
for the lock instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return err
			}

			if _, err := os.Stat(dir); os.IsNotExist(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "No invocation cache at %s\n", dir)
				return nil
			}

			remove := func() error { return os.RemoveAll(dir) }
			if wait > 0 {
				err = waitWithLock(cmd.Context(), dir, wait, remove)
			} else {
				err = filelock.TryWithLock(dir, remove)
			}
			switch {
			case errors.Is(err, filelock.ErrLocked):
				return fmt.Errorf("invocation cache %s is in use by another fixturekit process", dir)
			case errors.Is(err, filelock.ErrLockTimeout):
				return fmt.Errorf("invocation cache %s still in use after %v", dir, wait)
			case err != nil:
				return fmt.Errorf("remove invocation cache: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", dir)
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "Wait up to this long for the cache lock instead of failing")

	return cmd
}

// waitWithLock runs fn while holding the lock for target, waiting at most
// timeout for another holder to release it.
func waitWithLock(ctx context.Context, target string, timeout time.Duration, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lock := filelock.For(target)
	if err := lock.LockContext(ctx, 0); err != nil {
		return err
	}
	defer lock.Unlock()

	return fn()
}
