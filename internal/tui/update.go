package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/timeline-badge/timeline/internal/config"
	"github.com/timeline-badge/timeline/internal/utils"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.snap = m.driver.Tick(m.ctx)
		return m, tickCmd(m.interval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case clearNotificationMsg:
		m.notification = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.state == SettingsState {
			return m.updateSettings(msg)
		}
		return m.updateProfile(msg)
	}

	return m, nil
}

func (m RootModel) updateProfile(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Refresh):
		utils.Debug("TUI: refresh requested")
		m.driver.Refresh()
		m.snap = m.driver.Snapshot()
		return m.notify("Refreshing from network")

	case key.Matches(msg, Keys.Reset):
		utils.Debug("TUI: reset requested")
		m.driver.Reset()
		m.snap = m.driver.Snapshot()
		return m.notify("Reset")

	case key.Matches(msg, Keys.Copy):
		handle := m.driver.Handle()
		if handle == "" {
			return m.notify("No profile configured")
		}
		url := utils.ProfileURL(handle)
		if err := m.copy(url); err != nil {
			utils.Debug("TUI: clipboard: %v", err)
			return m.notify(fmt.Sprintf("Copy failed: %v", err))
		}
		return m.notify("Copied " + url)

	case key.Matches(msg, Keys.Settings):
		m.state = SettingsState
		return m, nil

	case key.Matches(msg, Keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	return m, nil
}

func (m RootModel) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tabs := len(config.CategoryOrder())
	switch {
	case key.Matches(msg, SettingsKeys.Close):
		m.state = ProfileState
	case key.Matches(msg, SettingsKeys.Tab1):
		m.SettingsActiveTab = 0
	case key.Matches(msg, SettingsKeys.Tab2):
		m.SettingsActiveTab = 1
	case key.Matches(msg, SettingsKeys.Tab3):
		m.SettingsActiveTab = 2
	case key.Matches(msg, SettingsKeys.Tab4):
		m.SettingsActiveTab = 3
	case key.Matches(msg, SettingsKeys.Next):
		m.SettingsActiveTab = (m.SettingsActiveTab + 1) % tabs
	case key.Matches(msg, SettingsKeys.Prev):
		m.SettingsActiveTab = (m.SettingsActiveTab + tabs - 1) % tabs
	}
	if m.SettingsActiveTab >= tabs {
		m.SettingsActiveTab = tabs - 1
	}
	return m, nil
}

func (m RootModel) notify(text string) (tea.Model, tea.Cmd) {
	m.notification = text
	return m, clearNotificationCmd()
}
