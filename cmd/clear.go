package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/timeline-badge/timeline/internal/engine/pipeline"
	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/session"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the cached profile files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		return clearCache(cmd.OutOrStdout(), env.CacheDir)
	},
}

// clearCache removes every stage's cache file and any leftover partial
// download. It refuses while a session holds the directory.
func clearCache(out io.Writer, dir string) error {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "Cache is empty")
		return nil
	}

	lock := flock.New(filepath.Join(dir, session.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock cache directory: %w", err)
	}
	if !locked {
		return fmt.Errorf("cache directory %s is in use", dir)
	}
	defer func() { _ = lock.Unlock() }()

	removed := 0
	for _, stage := range pipeline.Stages {
		dest := pipeline.Destination(dir, stage)
		for _, path := range []string{dest, dest + types.IncompleteSuffix} {
			err := os.Remove(path)
			switch {
			case err == nil:
				removed++
			case !errors.Is(err, os.ErrNotExist):
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
	}
	fmt.Fprintf(out, "Removed %d cached files from %s\n", removed, dir)
	return nil
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
