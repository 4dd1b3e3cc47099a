// Package tui renders the piggybank widget as a terminal UI. It is a thin
// view over the controller: every key becomes a controller call, every
// controller update becomes a re-render.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"piggyctl/internal/ble"
	"piggyctl/internal/piggy"
)

// Options holds the presentation toggles.
type Options struct {
	// AutoScan starts discovery as soon as the UI comes up.
	AutoScan bool
	// ShowDisconnectButton exposes the manual disconnect key.
	ShowDisconnectButton bool
}

// stateMsg carries a fresh controller state snapshot into the update loop.
type stateMsg piggy.State

// Model is the bubbletea model for the widget.
type Model struct {
	ctrl *piggy.Controller
	opts Options
	s    styles

	spin   spinner.Model
	input  textinput.Model
	state  piggy.State
	cursor int
	typing bool
}

// New creates the widget model over the given controller.
func New(ctrl *piggy.Controller, opts Options) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "payload"
	ti.CharLimit = 64

	return Model{
		ctrl:  ctrl,
		opts:  opts,
		s:     newStyles(),
		spin:  sp,
		input: ti,
		state: ctrl.State(),
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, waitForUpdate(m.ctrl)}
	if m.opts.AutoScan {
		cmds = append(cmds, scanCmd(m.ctrl))
	}
	return tea.Batch(cmds...)
}

func waitForUpdate(ctrl *piggy.Controller) tea.Cmd {
	return func() tea.Msg {
		<-ctrl.Updates()
		return stateMsg(ctrl.State())
	}
}

func scanCmd(ctrl *piggy.Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Scan(context.Background())
		return nil
	}
}

func connectCmd(ctrl *piggy.Controller, id string) tea.Cmd {
	return func() tea.Msg {
		ctrl.Connect(context.Background(), id)
		return nil
	}
}

func sendCmd(ctrl *piggy.Controller, value string) tea.Cmd {
	return func() tea.Msg {
		ctrl.SendData(value)
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = piggy.State(msg)
		if m.cursor >= len(m.state.Devices) {
			m.cursor = max(0, len(m.state.Devices)-1)
		}
		return m, waitForUpdate(m.ctrl)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing {
		switch msg.Type {
		case tea.KeyEsc:
			m.typing = false
			m.input.Blur()
			return m, nil
		case tea.KeyEnter:
			value := m.input.Value()
			m.typing = false
			m.input.Blur()
			m.input.SetValue("")
			return m, sendCmd(m.ctrl, value)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.ctrl.Close()
		return m, tea.Quit
	case "s":
		return m, scanCmd(m.ctrl)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.state.Devices)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor < len(m.state.Devices) {
			return m, connectCmd(m.ctrl, m.state.Devices[m.cursor].ID)
		}
	case "d":
		if m.opts.ShowDisconnectButton {
			m.ctrl.Disconnect()
		}
	case "0", "1":
		return m, sendCmd(m.ctrl, msg.String())
	case "i":
		m.typing = true
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.s.title.Render("piggyctl"))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if m.state.Message != "" {
		b.WriteString(m.s.info.Render(m.state.Message))
		b.WriteString("\n")
	}
	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderDevices())

	if m.state.Info != nil {
		b.WriteString("\n")
		b.WriteString(m.renderInfo())
	}
	if len(m.state.Characteristics) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderCharacteristics())
	}

	if m.typing {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.s.help.Render(m.helpLine()))

	return m.s.app.Render(b.String())
}

func (m Model) renderStatus() string {
	status := m.state.Status.String()
	switch {
	case m.state.Scanning:
		return m.s.status.Render(m.spin.View() + "scanning...")
	case m.state.Status == piggy.StatusConnecting:
		return m.s.status.Render(m.spin.View() + "connecting...")
	case m.state.Status == piggy.StatusConnected && m.state.Selected != nil:
		return m.s.selected.Render("connected to " + m.state.Selected.DisplayName())
	default:
		return m.s.status.Render(status)
	}
}

func (m Model) renderBanner() string {
	switch m.state.Banner.Level {
	case piggy.BannerSuccess:
		return m.s.success.Render(m.state.Banner.Text)
	case piggy.BannerError:
		return m.s.error.Render(m.state.Banner.Text)
	default:
		return ""
	}
}

func (m Model) renderDevices() string {
	if len(m.state.Devices) == 0 {
		return m.s.dim.Render("no devices discovered — press s to scan") + "\n"
	}
	var b strings.Builder
	b.WriteString("devices:\n")
	for i, dev := range m.state.Devices {
		cursor := "  "
		if i == m.cursor {
			cursor = m.s.cursor.Render("> ")
		}
		line := fmt.Sprintf("%s (%s, %d dBm)", dev.DisplayName(), dev.ID, dev.RSSI)
		if m.state.Selected != nil && m.state.Selected.ID == dev.ID {
			line = m.s.selected.Render(line + " *")
		}
		b.WriteString(cursor + line + "\n")
	}
	return b.String()
}

func (m Model) renderInfo() string {
	info := m.state.Info
	var b strings.Builder
	b.WriteString("device info:\n")
	if info.BatteryLevel != nil {
		b.WriteString(fmt.Sprintf("  battery: %d%%\n", *info.BatteryLevel))
	}
	fields := []struct{ label, value string }{
		{"manufacturer", info.Manufacturer},
		{"model", info.Model},
		{"serial", info.SerialNumber},
		{"hardware rev", info.HardwareRevision},
		{"firmware rev", info.FirmwareRevision},
		{"software rev", info.SoftwareRevision},
	}
	for _, f := range fields {
		if f.value != "" {
			b.WriteString(fmt.Sprintf("  %s: %s\n", f.label, f.value))
		}
	}
	b.WriteString(fmt.Sprintf("  services: %d\n", len(info.ServiceUUIDs)))
	return b.String()
}

func (m Model) renderCharacteristics() string {
	var b strings.Builder
	b.WriteString("characteristics:\n")
	for _, ci := range m.state.Characteristics {
		marker := "  "
		if m.state.Target != nil && m.state.Target.UUID == ci.UUID {
			marker = m.s.cursor.Render("* ")
		}
		b.WriteString(fmt.Sprintf("%s%s [%s]\n", marker, ci.UUID, propsString(ci.Props)))
	}
	return b.String()
}

func (m Model) helpLine() string {
	keys := []string{"s scan", "↑/↓ select", "enter connect"}
	if m.opts.ShowDisconnectButton {
		keys = append(keys, "d disconnect")
	}
	keys = append(keys, "0/1 send", "i payload", "q quit")
	return strings.Join(keys, " · ")
}

func propsString(p ble.Properties) string {
	var parts []string
	if p.Read {
		parts = append(parts, "read")
	}
	if p.Write {
		parts = append(parts, "write")
	}
	if p.WriteWithoutResponse {
		parts = append(parts, "write-no-rsp")
	}
	if p.Notify {
		parts = append(parts, "notify")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}
