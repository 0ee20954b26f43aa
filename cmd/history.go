package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/timeline-badge/timeline/internal/config"
	"github.com/timeline-badge/timeline/internal/engine/state"
	"github.com/timeline-badge/timeline/internal/engine/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent fetches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		wipe, _ := cmd.Flags().GetBool("clear")

		store, err := state.Open(config.GetStateDir())
		if err != nil {
			return err
		}
		defer store.Close()

		if wipe {
			removed, err := store.ClearHistory(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries\n", removed)
			return nil
		}

		entries, err := store.ListFetches(limit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

func printHistory(out io.Writer, entries []types.FetchEntry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No fetches recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tRESOURCE\tSIZE\tSOURCE\tSTATUS\tPASS")
	for _, e := range entries {
		source := "network"
		if e.FromCache {
			source = "cache"
		} else if e.Forced {
			source = "network (forced)"
		}
		status := e.Status
		if e.Error != "" {
			status = fmt.Sprintf("%s: %s", e.Status, e.Error)
		}
		pass := e.PassID
		if len(pass) > 8 {
			pass = pass[:8]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			humanize.RelTime(time.Unix(e.CompletedAt, 0), now, "ago", "from now"),
			e.Resource,
			humanize.Bytes(uint64(max(e.Bytes, 0))),
			source,
			status,
			pass,
		)
	}
	_ = w.Flush()
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of entries to show (0 = all)")
	historyCmd.Flags().Bool("clear", false, "Delete the recorded history")
	rootCmd.AddCommand(historyCmd)
}
