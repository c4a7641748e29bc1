package ui

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ouiwatch/ouiwatch/internal/detector"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.view.HasStatus {
		return m.renderConnectingHeader(styles, bg)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, bg))
}

// renderConnectingHeader is shown until the first status arrives.
func (m Model) renderConnectingHeader(styles Styles, bg BgStyle) string {
	sep := bg.Spaces(2)

	if m.view.LastError != nil {
		parts := []string{
			bg.Render("ouiwatch", styles.Logo),
			bg.Render("SERVICE "+classifyConnectionError(m.view.LastError), styles.DangerText.Bold(true)),
			bg.Render("Retrying...", styles.WarningText.Bold(true)),
		}
		return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
	}

	return styles.Header.Width(m.width).Render(
		bg.Render("ouiwatch", styles.Logo) + sep +
			bg.Render("Connecting to detection service...", styles.WarningText.Bold(true)),
	)
}

func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth
	status := m.view.Status
	sep := bg.Spaces(2)

	parts := []string{bg.Render("ouiwatch", styles.Logo)}

	if m.view.Paused {
		parts = append(parts, bg.Render("● PAUSED", styles.WarningText.Bold(true)))
	} else {
		parts = append(parts, bg.Render("● RUNNING", styles.SuccessText))
	}

	parts = append(parts,
		bg.Render("Cycle:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%05d", status.CycleCount), styles.Text))

	if status.InterfaceUp {
		parts = append(parts,
			bg.Render("Iface:", styles.MutedText)+bg.Space()+bg.Render("ACTIVE", styles.SuccessText))
	} else {
		parts = append(parts,
			bg.Render("Iface:", styles.MutedText)+bg.Space()+bg.Render("DOWN", styles.DangerText))
	}

	if !compact {
		parts = append(parts,
			bg.Render("Capture:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%ds", status.CaptureTime), styles.Text))
	}

	channels := status.Channels.Summary()
	if compact {
		channels = truncate(channels, 28)
	}
	parts = append(parts, bg.Render(channels, styles.InfoText))

	if m.view.IsOffline() {
		parts = append(parts,
			bg.Render("OFFLINE", styles.DangerText)+bg.Space()+
				bg.Render(classifyConnectionError(m.view.LastError), styles.MutedText))
	}

	if !m.view.LastUpdated.IsZero() && !compact {
		parts = append(parts, bg.Render(m.view.LastUpdated.Format("15:04:05"), styles.FaintText))
	}

	return bg.Join(parts, sep)
}

// classifyConnectionError returns a short label for a status failure.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *detector.APIError
	if errors.As(err, &apiErr) {
		return "ERROR"
	}
	var statusErr *detector.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("HTTP %d", statusErr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "TIMEOUT"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return "UNREACHABLE"
	case strings.Contains(msg, "no such host"):
		return "UNKNOWN HOST"
	default:
		return "OFFLINE"
	}
}

// renderCommandBar renders the tab strip and the keys of the current tab.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.tab {
	case TabLists:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"space", "Toggle"},
			{"n", "New list"},
		}
	case TabSettings:
		commands = []cmd{
			{"j/k", "Field"},
			{"space", "Toggle"},
			{"e", "Edit"},
			{"s", "Apply"},
			{"I", "Iface"},
			{"R", "Reset"},
			{"r", "Restart"},
		}
	default:
		pauseLabel := "Pause"
		if m.view.Paused {
			pauseLabel = "Resume"
		}
		commands = []cmd{
			{"p", pauseLabel},
			{"a", "Add"},
			{"o", "Add OUI"},
			{"x", "Remove"},
			{"i", "Ignore"},
			{"C", "Clear"},
		}
	}
	commands = append(commands, cmd{"?", "More"})

	colon := bg.Sep(":")
	sep := bg.Spaces(2)

	segments := make([]string, 0, len(commands)+len(tabNames)+1)
	for i, name := range tabNames {
		label := fmt.Sprintf("%d %s", i+1, name)
		if Tab(i) == m.tab {
			segments = append(segments, bg.Render("["+label+"]", styles.AccentText.Bold(true)))
		} else {
			segments = append(segments, bg.Render(label, styles.FaintText))
		}
	}
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, sep))
}

// renderNoticeBar renders the current notice, if any, under the content.
func (m Model) renderNoticeBar() string {
	bg := NewBgStyle(m.theme.Background)
	if m.notices == nil {
		return bg.FillLine("", m.width)
	}
	notice, ok := m.notices.Current()
	if !ok {
		return bg.FillLine("", m.width)
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.NoticeColor(notice.Kind))).Bold(true)
	return bg.FillLine(bg.Space()+bg.Render(truncate(notice.Text, m.width-2), style), m.width)
}

// renderTitledBox draws a bordered box with title embedded in the top border.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := max(0, width-2)
	title = truncate(title, max(0, innerWidth-4))
	titleLen := lipgloss.Width(title)
	leftPad := max(0, (innerWidth-titleLen-2)/2)
	rightPad := max(0, innerWidth-titleLen-2-leftPad)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))
	contentLines := strings.Split(content, "\n")
	boxHeight := max(0, height-2)

	padded := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		padded = append(padded,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(padded, "\n") + "\n" + bottomBorder
}
