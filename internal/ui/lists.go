package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// listState tracks the cursor over active then inactive lists.
type listState struct {
	selected string
}

// listRows returns every list in display order: active first, then inactive.
func (m Model) listRows() []string {
	rows := make([]string, 0, len(m.view.Active)+len(m.view.Inactive))
	rows = append(rows, m.view.Active...)
	rows = append(rows, m.view.Inactive...)
	return rows
}

func (m Model) listCursor() int {
	rows := m.listRows()
	for i, name := range rows {
		if name == m.lists.selected {
			return i
		}
	}
	return 0
}

func (m *Model) moveListCursor(delta int) {
	rows := m.listRows()
	if len(rows) == 0 {
		m.lists.selected = ""
		return
	}
	m.lists.selected = rows[clampIndex(m.listCursor()+delta, len(rows))]
}

func (m Model) handleListsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveListCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveListCursor(-1)
	case key.Matches(msg, m.keys.Top):
		m.moveListCursor(-len(m.listRows()))
	case key.Matches(msg, m.keys.Bottom):
		m.moveListCursor(len(m.listRows()))

	case key.Matches(msg, m.keys.Toggle):
		rows := m.listRows()
		if len(rows) == 0 {
			return m, nil
		}
		name := rows[m.listCursor()]
		m.lists.selected = name
		ctrl := m.ctrl
		return m, m.runAction(func(ctx context.Context) error {
			return ctrl.ToggleList(ctx, name)
		})

	case key.Matches(msg, m.keys.NewList):
		ctrl := m.ctrl
		m.modal = newFormDialog("Create list",
			func(values []string) tea.Cmd {
				return m.runAction(func(ctx context.Context) error {
					return ctrl.CreateList(ctx, values[0])
				})
			},
			formField{Label: "Name", Placeholder: "list name"},
		)
	}
	return m, nil
}

func (m Model) renderLists() string {
	bgColor := m.theme.FocusBg
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)
	width := max(1, m.width-4)
	cursor := m.listCursor()

	var lines []string
	row := 0
	section := func(title string, names []string, marker string, markerStyle Styles) {
		lines = append(lines, bg.Render(fmt.Sprintf("%s (%d)", title, len(names)), styles.AccentText.Bold(true)))
		if len(names) == 0 {
			lines = append(lines, bg.Render("  none", styles.FaintText))
		}
		for _, name := range names {
			if row == cursor {
				lines = append(lines, m.theme.Styles().Selected.Width(width).Render("  "+marker+" "+name))
			} else {
				lines = append(lines, bg.Spaces(2)+bg.Render(marker, markerStyle.SuccessText)+bg.Space()+bg.Render(name, styles.Text))
			}
			row++
		}
		lines = append(lines, "")
	}
	section("Active", m.view.Active, "●", styles)
	inactive := styles
	inactive.SuccessText = styles.FaintText
	section("Inactive", m.view.Inactive, "○", inactive)

	if extra := unpartitioned(m.view.Available, m.listRows()); len(extra) > 0 {
		lines = append(lines, bg.Render("Available: "+strings.Join(extra, ", "), styles.MutedText))
	}

	return m.renderTitledBox("Device Lists", strings.Join(lines, "\n"), m.width, m.height-3, true)
}

// unpartitioned returns available list names the status endpoint did not
// report, typically lists created since the last reconciliation.
func unpartitioned(available, known []string) []string {
	seen := make(map[string]struct{}, len(known))
	for _, name := range known {
		seen[name] = struct{}{}
	}
	var out []string
	for _, name := range available {
		if _, ok := seen[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}
