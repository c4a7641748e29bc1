package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

// pinSlack is how far from the bottom the viewport may sit and still count
// as following new entries.
const pinSlack = 1

// deviceState holds the device log view.
type deviceState struct {
	viewport viewport.Model
	entries  []monitor.Entry
	selected int

	// LogVersion of the store contents currently in the viewport; -1 forces
	// the next refresh to repaint.
	renderedVersion int
}

// scrollState is captured before a repaint.
type scrollState struct {
	offset int
	pinned bool
}

func captureScroll(vp viewport.Model) scrollState {
	bottom := max(0, vp.TotalLineCount()-vp.Height)
	return scrollState{
		offset: vp.YOffset,
		pinned: bottom-vp.YOffset <= pinSlack,
	}
}

// repaint replaces the viewport content. A viewport that was at the bottom
// follows the new bottom; any other position is restored as it was.
func repaint(vp *viewport.Model, content string) {
	st := captureScroll(*vp)
	vp.SetContent(content)
	if st.pinned {
		vp.GotoBottom()
		return
	}
	vp.SetYOffset(st.offset)
}

func (m *Model) initDeviceViewport() {
	m.devices.viewport = viewport.New(max(1, m.width-4), max(1, m.height-5))
	m.devices.renderedVersion = -1
}

// updateDeviceViewport resizes the viewport and repaints it when the log
// changed since the last paint or force is set.
func (m *Model) updateDeviceViewport(force bool) {
	if m.devices.viewport.Width == 0 {
		m.initDeviceViewport()
	}
	m.devices.viewport.Width = max(1, m.width-4)
	m.devices.viewport.Height = max(1, m.height-5)
	m.devices.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	if !force && m.devices.renderedVersion == m.view.LogVersion {
		return
	}

	var keep string
	if len(m.devices.entries) > 0 {
		keep = m.devices.entries[m.devices.selected].Raw
	}
	if m.devices.renderedVersion != m.view.LogVersion {
		m.devices.entries = m.view.Log.Entries()
		m.devices.selected = reselect(m.devices.entries, keep, m.devices.selected)
	}

	repaint(&m.devices.viewport, m.renderDeviceContent())
	m.devices.renderedVersion = m.view.LogVersion
}

// reselect finds the entry that was selected before a refresh, or clamps
// the old index when it is gone.
func reselect(entries []monitor.Entry, raw string, prev int) int {
	if raw != "" {
		for i, e := range entries {
			if e.Raw == raw {
				return i
			}
		}
	}
	return clampIndex(prev, len(entries))
}

func (m *Model) renderDeviceContent() string {
	bgColor := m.theme.FocusBg
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	width := m.devices.viewport.Width

	if len(m.devices.entries) == 0 {
		msg := "No devices detected yet"
		if m.view.Paused {
			msg = "Monitoring paused"
		}
		return bg.Render(msg, styles.FaintText)
	}

	lines := make([]string, len(m.devices.entries))
	for i, e := range m.devices.entries {
		if i == m.devices.selected {
			lines[i] = m.theme.Styles().Selected.Width(width).Render(plainEntry(e, width))
			continue
		}
		lines[i] = bg.FillLine(m.formatEntry(e, styles, bg), width)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) formatEntry(e monitor.Entry, styles Styles, bg BgStyle) string {
	parts := []string{
		bg.Render("["+e.Timestamp+"]", styles.FaintText),
		bg.Render(e.OUI, styles.OUI) + bg.Render(e.DeviceSuffix, styles.Suffix),
		bg.Render(truncate(e.Name, 24), styles.Text),
		styles.Channel.Render("Ch "+e.Channel),
		bg.Render(e.List, styles.MutedText),
	}
	return bg.Join(parts, "  ")
}

func plainEntry(e monitor.Entry, width int) string {
	line := fmt.Sprintf("[%s]  %s  %s  Ch %s  %s", e.Timestamp, e.MAC, truncate(e.Name, 24), e.Channel, e.List)
	return truncate(line, width)
}

func (m Model) renderDevices() string {
	title := fmt.Sprintf("Detected Devices (%d)", len(m.devices.entries))
	if m.view.Paused {
		title += " - paused"
	}
	return m.renderTitledBox(title, m.devices.viewport.View(), m.width, m.height-3, true)
}

func (m *Model) selectedEntry() (monitor.Entry, bool) {
	if len(m.devices.entries) == 0 {
		return monitor.Entry{}, false
	}
	return m.devices.entries[m.devices.selected], true
}

// moveSelection moves the cursor and scrolls just enough to keep it visible.
func (m *Model) moveSelection(to int) {
	m.devices.selected = clampIndex(to, len(m.devices.entries))
	m.updateDeviceViewport(true)

	vp := &m.devices.viewport
	switch {
	case m.devices.selected < vp.YOffset:
		vp.SetYOffset(m.devices.selected)
	case m.devices.selected >= vp.YOffset+vp.Height:
		vp.SetYOffset(m.devices.selected - vp.Height + 1)
	}
}

func (m Model) handleDevicesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := max(1, m.devices.viewport.Height)

	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(m.devices.selected + 1)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(m.devices.selected - 1)
	case key.Matches(msg, m.keys.Top):
		m.moveSelection(0)
		m.devices.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.moveSelection(len(m.devices.entries) - 1)
		m.devices.viewport.GotoBottom()
	case key.Matches(msg, m.keys.HalfPageDown):
		m.moveSelection(m.devices.selected + page/2)
	case key.Matches(msg, m.keys.HalfPageUp):
		m.moveSelection(m.devices.selected - page/2)
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.devices.selected + page)
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(m.devices.selected - page)

	case key.Matches(msg, m.keys.Pause):
		return m, m.togglePauseCmd()

	case key.Matches(msg, m.keys.Clear):
		ctrl := m.ctrl
		m.modal = newConfirmDialog("Clear log", "Clear the device log on the service?", func() tea.Cmd {
			return m.runAction(func(ctx context.Context) error { return ctrl.ClearLog(ctx) })
		})

	case key.Matches(msg, m.keys.Add):
		m.modal = m.addDeviceDialog(false)

	case key.Matches(msg, m.keys.AddOUI):
		m.modal = m.addDeviceDialog(true)

	case key.Matches(msg, m.keys.Remove):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		ctrl := m.ctrl
		m.modal = newConfirmDialog("Remove device",
			fmt.Sprintf("Remove %s (%s) from all lists?", entry.MAC, entry.Name),
			func() tea.Cmd {
				return m.runAction(func(ctx context.Context) error {
					return ctrl.RemoveDevice(ctx, entry.MAC)
				})
			})

	case key.Matches(msg, m.keys.Ignore):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		ctrl := m.ctrl
		m.modal = newFormDialog("Ignore "+entry.MAC,
			func(values []string) tea.Cmd {
				return m.runAction(func(ctx context.Context) error {
					return ctrl.IgnoreDevice(ctx, entry.MAC, values[0])
				})
			},
			formField{Label: "Minutes", Value: strconv.Itoa(m.ignoreMinutes())},
		)
	}

	return m, nil
}

func (m Model) ignoreMinutes() int {
	if m.prefs.IgnoreMinutes > 0 {
		return m.prefs.IgnoreMinutes
	}
	return settings.DefaultIgnoreMinutes
}

// addDeviceDialog prefills the form from the selected entry. With oui set
// only the manufacturer prefix is offered.
func (m Model) addDeviceDialog(oui bool) Modal {
	var address, name string
	if entry, ok := m.selectedEntry(); ok {
		address, name = entry.MAC, entry.Name
		if oui {
			address = entry.OUI
		}
	}
	list := m.prefs.DefaultList
	if list == "" && len(m.view.Active) > 0 {
		list = m.view.Active[0]
	}

	ctrl := m.ctrl
	title := "Add device"
	if oui {
		title = "Add manufacturer (OUI)"
	}
	return newFormDialog(title,
		func(values []string) tea.Cmd {
			dev := settings.NewDevice{
				Address: values[0],
				Name:    values[1],
				Command: values[2],
				List:    values[3],
			}
			return m.runAction(func(ctx context.Context) error {
				return ctrl.AddDevice(ctx, dev)
			})
		},
		formField{Label: "MAC/OUI", Value: address, Placeholder: "00:11:22:33:44:55"},
		formField{Label: "Name", Value: name},
		formField{Label: "Command", Placeholder: "default alert"},
		formField{Label: "List", Value: list, Suggestions: m.view.Available},
	)
}
