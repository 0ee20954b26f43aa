package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/timeline-badge/timeline/internal/config"
	"github.com/timeline-badge/timeline/internal/engine/state"
	"github.com/timeline-badge/timeline/internal/engine/types"
	"github.com/timeline-badge/timeline/internal/session"
	"github.com/timeline-badge/timeline/internal/tui"
	"github.com/timeline-badge/timeline/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "timeline",
	Short:   "Sync and display a GitHub activity profile",
	Long:    `timeline joins the configured network, fetches a GitHub profile, its contribution history and avatar, and renders them in the terminal.`,
	Version: Version,
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initializeGlobalState(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnvironment(cmd)
		if err != nil {
			return err
		}
		return startTUI(env)
	},
}

// environment is everything a command needs to build a session
type environment struct {
	Settings *config.Settings
	Identity *config.Identity
	Runtime  *types.RuntimeConfig
	CacheDir string
}

// loadEnvironment reads settings, the identity and flag overrides.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		utils.Debug("Settings unreadable, using defaults: %v", err)
		settings = config.DefaultSettings()
	}

	var identity *config.Identity
	if path, _ := cmd.Flags().GetString("secrets"); path != "" {
		identity, err = config.LoadIdentityFrom(path)
	} else {
		identity, err = config.LoadIdentity()
	}
	if err != nil {
		return nil, err
	}
	if handle, _ := cmd.Flags().GetString("user"); handle != "" {
		identity.GitHubUsername = handle
	}

	cacheDir := settings.CacheDir()
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		cacheDir = dir
	}

	return &environment{
		Settings: settings,
		Identity: identity,
		Runtime:  types.ConvertRuntimeConfig(settings.ToRuntimeConfig()),
		CacheDir: cacheDir,
	}, nil
}

// openSession builds a session recording fetch history to the state store.
// The returned cleanup closes both.
func openSession(env *environment) (*session.Session, func(), error) {
	store, err := state.Open(config.GetStateDir())
	if err != nil {
		utils.Debug("History disabled: %v", err)
		store = nil
	}

	opts := session.Options{
		Identity: env.Identity,
		CacheDir: env.CacheDir,
		Runtime:  env.Runtime,
	}
	if store != nil {
		opts.Recorder = store
	}

	sess, err := session.New(opts)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := sess.Close(); err != nil {
			utils.Debug("Closing session: %v", err)
		}
		_ = store.Close()
	}
	return sess, cleanup, nil
}

// startTUI initializes and runs the TUI program
func startTUI(env *environment) error {
	sess, cleanup, err := openSession(env)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := tui.InitialRootModel(ctx, sess, env.Settings)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	types.Version = Version
	rootCmd.PersistentFlags().String("secrets", "", "Path to secrets.yaml (default: config dir, then working dir)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "GitHub handle, overrides github_username")
	rootCmd.PersistentFlags().String("cache-dir", "", "Directory for the fetched profile files")
	rootCmd.PersistentFlags().Bool("debug", false, "Write debug.log to the state directory")
	rootCmd.SetVersionTemplate("timeline version {{.Version}}\n")
}

// initializeGlobalState creates the state directory and configures logging
func initializeGlobalState(cmd *cobra.Command) {
	stateDir := config.GetStateDir()
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create state directory: %v\n", err)
		return
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if !debug {
		if settings, err := config.LoadSettings(); err == nil {
			debug = settings.General.DebugLog
		}
	}
	if debug {
		utils.SetDebugPath(filepath.Join(stateDir, "debug.log"))
		utils.Debug("timeline %s (built %s)", Version, BuildTime)
	}
}
