// SPDX-License-Identifier: MIT
// Package tui is the interactive device browser. It exists to answer
// one question quickly: which capture source will the resolver see,
// and does a monitor source exist at all.
package tui

import (
	"fmt"
	"strings"

	"audioviz/internal/audiodev"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	monitorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F2C94C"))
)

// screenType defines which screen is currently active.
type screenType int

const (
	listScreen screenType = iota
	detailScreen
)

// DeviceListModel is the Bubble Tea model for browsing audio devices.
type DeviceListModel struct {
	devices       []audiodev.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  screenType
}

// NewDeviceListModel creates a fresh browser model.
func NewDeviceListModel() DeviceListModel {
	return DeviceListModel{
		selectedIndex: 0,
		activeScreen:  listScreen,
	}
}

// Init kicks off the device enumeration.
func (m DeviceListModel) Init() tea.Cmd {
	return fetchDevices
}

type devicesMsg struct {
	devices []audiodev.Device
}

type errMsg struct {
	err error
}

// fetchDevices enumerates host devices inside a short-lived PortAudio
// session.
func fetchDevices() tea.Msg {
	if err := audiodev.Initialize(); err != nil {
		return errMsg{err}
	}
	defer audiodev.Terminate()

	devices, err := audiodev.HostDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

// Update handles input and refreshes the model.
func (m DeviceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
			if len(m.devices) > 0 {
				m.viewport.SetContent(m.renderDevices())
			}
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}

	case devicesMsg:
		m.devices = msg.devices
		if m.ready {
			m.viewport.SetContent(m.renderDevices())
		}

	case errMsg:
		m.err = msg.err

	case tea.KeyMsg:
		if key.Matches(msg, key.NewBinding(key.WithKeys("q", "ctrl+c"))) {
			return m, tea.Quit
		}

		if m.activeScreen == listScreen {
			switch {
			case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
				if m.selectedIndex < len(m.devices)-1 {
					m.selectedIndex++
					m.viewport.SetContent(m.renderDevices())
				}

			case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
				if len(m.devices) > 0 {
					m.activeScreen = detailScreen
					m.viewport.SetContent(m.renderDeviceDetail())
				}
			}
		} else {
			if key.Matches(msg, key.NewBinding(key.WithKeys("esc"))) {
				m.activeScreen = listScreen
				m.viewport.SetContent(m.renderDevices())
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m DeviceListModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to exit.", m.err)
	}

	var title, help string
	if m.activeScreen == listScreen {
		title = titleStyle.Render("Audio Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Details • q: Quit")
	} else {
		title = titleStyle.Render("Device Details")
		help = infoStyle.Render("Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

// renderDevices formats the device list. Monitor sources are flagged
// because they are the ones the capture resolver can actually use.
func (m DeviceListModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No audio devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		line := device.String()
		if device.IsMonitor() {
			line += monitorStyle.Render("  [monitor]")
		}
		line += fmt.Sprintf("\n    Input channels: %d, Output channels: %d\n",
			device.MaxInputChannels, device.MaxOutputChannels)

		if i == m.selectedIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderDeviceDetail formats the detail screen for the selection.
func (m DeviceListModel) renderDeviceDetail() string {
	device := m.devices[m.selectedIndex]

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n\n", device.Name))
	sb.WriteString(fmt.Sprintf("  Type:               %s\n", device.Kind()))
	sb.WriteString(fmt.Sprintf("  Input channels:     %d\n", device.MaxInputChannels))
	sb.WriteString(fmt.Sprintf("  Output channels:    %d\n", device.MaxOutputChannels))
	sb.WriteString(fmt.Sprintf("  Default sample rate: %.0f Hz\n", device.DefaultSampleRate))
	sb.WriteString(fmt.Sprintf("  Input latency:      %.2fms to %.2fms\n",
		device.LowInputLatency.Seconds()*1000,
		device.HighInputLatency.Seconds()*1000))

	sb.WriteString("\n")
	if device.IsMonitor() {
		sb.WriteString(monitorStyle.Render("  This is a sink monitor: system playback can be captured from it.\n"))
	} else if device.MaxInputChannels > 0 {
		sb.WriteString("  Plain input device: captures a microphone, not system playback.\n")
	}

	return sb.String()
}

// StartDeviceListUI launches the device browser.
func StartDeviceListUI() error {
	p := tea.NewProgram(
		NewDeviceListModel(),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
