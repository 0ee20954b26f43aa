package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timeline-badge/timeline/internal/config"
	"github.com/timeline-badge/timeline/internal/session"
)

// Driver is the sync loop the UI ticks. *session.Session implements it.
type Driver interface {
	Tick(ctx context.Context) session.Snapshot
	Snapshot() session.Snapshot
	Refresh()
	Reset()
	Handle() string
}

type UIState int

const (
	ProfileState UIState = iota
	SettingsState
)

type RootModel struct {
	ctx      context.Context
	driver   Driver
	snap     session.Snapshot
	interval time.Duration

	width  int
	height int
	state  UIState

	spinner spinner.Model
	help    help.Model
	theme   Theme

	Settings          *config.Settings
	SettingsActiveTab int

	notification string
	copy         func(string) error
}

// tickMsg advances the driver by one step
type tickMsg time.Time

type clearNotificationMsg struct{}

// InitialRootModel wires the UI to a driver. settings may be nil.
func InitialRootModel(ctx context.Context, driver Driver, settings *config.Settings) RootModel {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	interval := settings.Display.TickInterval
	if interval <= 0 {
		interval = TickInterval
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = StatusStyle

	return RootModel{
		ctx:      ctx,
		driver:   driver,
		snap:     driver.Snapshot(),
		interval: interval,
		state:    ProfileState,
		spinner:  s,
		help:     help.New(),
		theme:    ResolveTheme(settings.General.Theme),
		Settings: settings,
		copy:     clipboard.WriteAll,
	}
}

func (m RootModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd(m.interval))
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func clearNotificationCmd() tea.Cmd {
	return tea.Tick(NotificationDuration, func(time.Time) tea.Msg {
		return clearNotificationMsg{}
	})
}
