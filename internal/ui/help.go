package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Navigation",
			items: []helpItem{
				{"1/2/3", "Devices/Lists/Settings"},
				{"tab", "Next view"},
				{"j/k", "Move up/down"},
				{"g/G", "Go to top/bottom"},
				{"ctrl+d/u", "Half page down/up"},
				{"esc", "Dismiss notice"},
			},
		},
		{
			title: "Devices",
			items: []helpItem{
				{"p", "Pause/resume monitoring"},
				{"C", "Clear log"},
				{"a", "Add device"},
				{"o", "Add manufacturer (OUI)"},
				{"x", "Remove selected"},
				{"i", "Ignore selected"},
			},
		},
		{
			title: "Lists",
			items: []helpItem{
				{"space", "Toggle list"},
				{"n", "Create list"},
			},
		},
		{
			title: "Settings",
			items: []helpItem{
				{"tab", "Next field"},
				{"space", "Toggle band/channel"},
				{"e", "Edit text field"},
				{"s", "Apply scan settings"},
				{"I", "Apply interface"},
				{"R", "Reset to defaults"},
				{"r", "Restart service"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"T", "Cycle theme"},
				{"?", "Toggle help"},
				{"q/ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder

	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(12)
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return placeModal(m.theme, m.width, m.height, 44, b.String())
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
