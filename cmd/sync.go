package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/timeline-badge/timeline/internal/engine/events"
	"github.com/timeline-badge/timeline/internal/engine/pipeline"
	"github.com/timeline-badge/timeline/internal/session"
	"github.com/timeline-badge/timeline/internal/utils"
)

var (
	errSyncLinkFailed = errors.New("connection failed")
	errSyncTimedOut   = errors.New("sync did not complete in time")
)

// syncDriver is the part of a session the headless loop needs
type syncDriver interface {
	Tick(ctx context.Context) session.Snapshot
	Refresh()
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync pass without the TUI",
	Long:  `sync joins the network, fetches every stage (from cache where possible) and prints progress until the profile is complete.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		sess, cleanup, err := openSession(env)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if force {
			sess.Refresh()
		}

		emit := textEmitter(cmd.OutOrStdout())
		if asJSON {
			emit = jsonEmitter(cmd.OutOrStdout())
		}

		snap, err := runSync(ctx, emit, sess, env.Settings.Display.TickInterval)
		if err != nil {
			return err
		}
		if !asJSON {
			printProfile(cmd.OutOrStdout(), snap)
		}
		return nil
	},
}

// runSync ticks the driver until the pass completes, the link fails or ctx
// ends. Each status change is emitted once.
func runSync(ctx context.Context, emit func(any), d syncDriver, interval time.Duration) (session.Snapshot, error) {
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	var last session.Snapshot
	lastLabel := ""
	for {
		snap := d.Tick(ctx)
		switch snap.Screen {
		case session.ScreenMissingDetails:
			emit(events.SyncErrorMsg{Screen: snap.Screen.String(), Fatal: true, Err: snap.Err})
			return snap, snap.Err
		case session.ScreenConnectionFailed:
			emit(events.SyncErrorMsg{Screen: snap.Screen.String(), Fatal: true, Err: snap.Err})
			return snap, fmt.Errorf("%w: %v", errSyncLinkFailed, snap.Err)
		}

		label := snap.Status.String()
		if label != lastLabel {
			utils.Debug("Sync: %s", label)
			switch snap.Status {
			case pipeline.StatusError:
				emit(events.SyncErrorMsg{Status: label, Err: snap.Err})
			case pipeline.StatusComplete:
				emit(events.SyncCompleteMsg{
					Handle:             snap.Profile.Handle,
					Name:               snap.Profile.Name,
					TotalContributions: snap.Profile.TotalContributions,
					Elapsed:            time.Since(start),
				})
			default:
				emit(events.StatusMsg{Status: label, Link: snap.Link.String(), Offline: snap.Offline, Forced: snap.Forced})
			}
			lastLabel = label
		}
		if snap.Status == pipeline.StatusComplete {
			return snap, nil
		}
		last = snap

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return last, errSyncTimedOut
			}
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// textEmitter prints one human-readable line per event.
func textEmitter(out io.Writer) func(any) {
	return func(msg any) {
		switch m := msg.(type) {
		case events.StatusMsg:
			fmt.Fprintln(out, m.Status)
		case events.SyncCompleteMsg:
			fmt.Fprintln(out, pipeline.StatusComplete.String())
		case events.SyncErrorMsg:
			switch {
			case m.Screen != "":
				fmt.Fprintln(out, m.Screen)
			case m.Err != nil:
				fmt.Fprintf(out, "%s: %v\n", m.Status, m.Err)
			default:
				fmt.Fprintln(out, m.Status)
			}
		}
	}
}

// jsonEmitter writes newline-delimited JSON envelopes.
func jsonEmitter(out io.Writer) func(any) {
	enc := events.NewEncoder(out)
	return func(msg any) {
		if err := enc.Emit(msg); err != nil {
			utils.Debug("Sync: encoding %T: %v", msg, err)
		}
	}
}

func printProfile(out io.Writer, snap session.Snapshot) {
	p := snap.Profile
	fmt.Fprintf(out, "%s (@%s)\n", p.Name, p.Handle)
	if p.Location != "" {
		fmt.Fprintf(out, "  location:      %s\n", p.Location)
	}
	fmt.Fprintf(out, "  followers:     %d\n", p.Followers)
	fmt.Fprintf(out, "  public repos:  %d\n", p.PublicRepos)
	fmt.Fprintf(out, "  contributions: %d\n", p.TotalContributions)
	fmt.Fprintf(out, "  profile:       %s\n", utils.ProfileURL(p.Handle))
}

func init() {
	syncCmd.Flags().BoolP("force", "f", false, "Bypass the cache and refetch every stage")
	syncCmd.Flags().Bool("json", false, "Emit progress as newline-delimited JSON events")
	syncCmd.Flags().Duration("timeout", 5*time.Minute, "Give up after this long (0 = no limit)")
	rootCmd.AddCommand(syncCmd)
}
