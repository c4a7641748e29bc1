package ui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ouiwatch/ouiwatch/internal/detector"
	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

type settingsField int

const (
	fieldInterface settingsField = iota
	fieldCaptureTime
	fieldBand2G
	fieldBand5G
	fieldChannels2G
	fieldChannels5G
	fieldCount
)

var settingsFieldLabels = [fieldCount]string{
	fieldInterface:   "Interface",
	fieldCaptureTime: "Capture time",
	fieldBand2G:      "2.4GHz band",
	fieldBand5G:      "5GHz band",
	fieldChannels2G:  "2.4GHz channels",
	fieldChannels5G:  "5GHz channels",
}

// settingsForm is the editable copy of the scan settings. It follows what
// the service reports until the operator changes something.
type settingsForm struct {
	scan   settings.ScanSettings
	seeded bool
	dirty  bool

	field    settingsField
	cursor2G int
	cursor5G int

	restarting bool
	restart    settings.RestartState
}

// settingsEditMsg carries a text field edited in a dialog.
type settingsEditMsg struct {
	field settingsField
	value string
}

// syncSettingsForm reseeds the form from the latest snapshot unless the
// operator has pending edits.
func (m *Model) syncSettingsForm() {
	if m.form.dirty {
		return
	}
	switch {
	case m.view.HasSettings:
		m.form.scan = settings.FromCurrent(m.view.Settings)
		m.form.seeded = true
	case !m.form.seeded:
		m.form.scan = settings.Defaults()
		m.form.seeded = true
	}
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.form.field = (m.form.field + 1) % fieldCount
	case key.Matches(msg, m.keys.Up):
		m.form.field = (m.form.field + fieldCount - 1) % fieldCount
	case key.Matches(msg, m.keys.Left):
		m.moveChannelCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveChannelCursor(1)

	case key.Matches(msg, m.keys.Toggle), key.Matches(msg, m.keys.Edit):
		return m, m.activateSettingsField()

	case key.Matches(msg, m.keys.ApplyScan):
		scan := m.form.scan
		scan.Channels2G = slices.Clone(scan.Channels2G)
		scan.Channels5G = slices.Clone(scan.Channels5G)
		m.form.dirty = false
		ctrl := m.ctrl
		return m, m.runAction(func(ctx context.Context) error {
			return ctrl.ApplyScan(ctx, scan)
		})

	case key.Matches(msg, m.keys.ApplyInterface):
		iface := m.form.scan.Interface
		m.form.dirty = false
		ctrl := m.ctrl
		return m, m.runAction(func(ctx context.Context) error {
			return ctrl.ApplyInterface(ctx, iface)
		})

	case key.Matches(msg, m.keys.Reset):
		ctrl := m.ctrl
		m.modal = newConfirmDialog("Reset settings", "Restore the service's default scan settings?", func() tea.Cmd {
			return tea.Batch(
				func() tea.Msg { return settingsResetMsg{} },
				m.runAction(func(ctx context.Context) error { return ctrl.ResetSettings(ctx) }),
			)
		})

	case key.Matches(msg, m.keys.Restart):
		if m.form.restarting {
			return m, nil
		}
		m.modal = newConfirmDialog("Restart service",
			"Restart the detection service? Monitoring stops until it is back.",
			m.restartCmd)
	}
	return m, nil
}

type settingsResetMsg struct{}

func (m *Model) moveChannelCursor(delta int) {
	switch m.form.field {
	case fieldChannels2G:
		m.form.cursor2G = clampIndex(m.form.cursor2G+delta, len(settings.Channels2G))
	case fieldChannels5G:
		m.form.cursor5G = clampIndex(m.form.cursor5G+delta, len(settings.Channels5G))
	}
}

// activateSettingsField toggles the focused switch or channel, or opens an
// editor for text fields.
func (m *Model) activateSettingsField() tea.Cmd {
	switch m.form.field {
	case fieldInterface:
		m.modal = m.editFieldDialog(fieldInterface, m.form.scan.Interface)
	case fieldCaptureTime:
		m.modal = m.editFieldDialog(fieldCaptureTime, strconv.Itoa(m.form.scan.CaptureTime))
	case fieldBand2G:
		m.form.scan.Band2G = !m.form.scan.Band2G
		m.form.dirty = true
	case fieldBand5G:
		m.form.scan.Band5G = !m.form.scan.Band5G
		m.form.dirty = true
	case fieldChannels2G:
		m.form.scan.ToggleChannel(settings.Channels2G[m.form.cursor2G])
		m.form.dirty = true
	case fieldChannels5G:
		m.form.scan.ToggleChannel(settings.Channels5G[m.form.cursor5G])
		m.form.dirty = true
	}
	return nil
}

func (m Model) editFieldDialog(field settingsField, value string) Modal {
	return newFormDialog("Edit "+strings.ToLower(settingsFieldLabels[field]),
		func(values []string) tea.Cmd {
			return func() tea.Msg { return settingsEditMsg{field: field, value: values[0]} }
		},
		formField{Label: settingsFieldLabels[field], Value: value},
	)
}

func (m *Model) applySettingsEdit(msg settingsEditMsg) {
	switch msg.field {
	case fieldInterface:
		m.form.scan.Interface = strings.TrimSpace(msg.value)
	case fieldCaptureTime:
		n, err := settings.ParseCaptureTime(msg.value)
		if err != nil {
			if m.notices != nil {
				m.notices.Post(monitor.NoticeError, detector.UserMessage(err, "Invalid capture time"))
			}
			return
		}
		m.form.scan.CaptureTime = n
	}
	m.form.dirty = true
}

func (m Model) renderSettings() string {
	bgColor := m.theme.FocusBg
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	scan := m.form.scan

	label := func(f settingsField) string {
		text := padRight(settingsFieldLabels[f], 18)
		if f == m.form.field {
			return bg.Render("▸ ", styles.AccentText) + bg.Render(text, styles.AccentText.Bold(true))
		}
		return bg.Spaces(2) + bg.Render(text, styles.MutedText)
	}
	onOff := func(v bool) string {
		if v {
			return bg.Render("[x] enabled", styles.SuccessText)
		}
		return bg.Render("[ ] disabled", styles.FaintText)
	}
	iface := scan.Interface
	if iface == "" {
		iface = "(not set)"
	}

	lines := []string{
		label(fieldInterface) + bg.Render(iface, styles.Text),
		label(fieldCaptureTime) + bg.Render(fmt.Sprintf("%ds", scan.CaptureTime), styles.Text),
		label(fieldBand2G) + onOff(scan.Band2G),
		label(fieldBand5G) + onOff(scan.Band5G),
		label(fieldChannels2G) + m.renderChannelRow(settings.Channels2G, scan.Channels2G, m.form.cursor2G, m.form.field == fieldChannels2G, styles, bg),
		label(fieldChannels5G) + m.renderChannelRow(settings.Channels5G, scan.Channels5G, m.form.cursor5G, m.form.field == fieldChannels5G, styles, bg),
		"",
	}

	if m.form.dirty {
		lines = append(lines, bg.Render("Unsaved changes. Press s to apply scan settings, I to apply the interface.", styles.WarningText))
	}

	if m.view.HasConfig {
		cfg := m.view.Config
		lines = append(lines, "",
			bg.Render("Service configuration", styles.AccentText.Bold(true)),
			bg.Render(fmt.Sprintf("  Capture %ds  Band mode %s", cfg.CaptureTime, cfg.BandMode), styles.MutedText),
			bg.Render("  "+cfg.Channels.Summary(), styles.MutedText),
		)
	}

	lines = append(lines, "", bg.Render("Restart: ", styles.MutedText)+m.renderRestartState(styles, bg))

	return m.renderTitledBox("Scan Settings", strings.Join(lines, "\n"), m.width, m.height-3, true)
}

func (m Model) renderChannelRow(legal, selected []int, cursor int, focused bool, styles Styles, bg BgStyle) string {
	cells := make([]string, len(legal))
	for i, ch := range legal {
		text := strconv.Itoa(ch)
		style := styles.FaintText
		if slices.Contains(selected, ch) {
			style = styles.SuccessText
		}
		if focused && i == cursor {
			cells[i] = m.theme.Styles().Selected.Render(text)
			continue
		}
		cells[i] = bg.Render(text, style)
	}
	return bg.Join(cells, " ")
}

func (m Model) renderRestartState(styles Styles, bg BgStyle) string {
	switch m.form.restart {
	case settings.StateRestarting, settings.StateReconnecting:
		return bg.Render(m.form.restart.String()+"...", styles.WarningText)
	case settings.StateSucceeded:
		return bg.Render("restarted", styles.SuccessText)
	case settings.StateGaveUp:
		return bg.Render("gave up, manual restart may be needed", styles.DangerText)
	default:
		return bg.Render("idle", styles.FaintText)
	}
}
