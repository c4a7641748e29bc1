package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// formField describes one text input in a formDialog.
type formField struct {
	Label       string
	Value       string
	Placeholder string
	Suggestions []string
}

// formDialog collects a few text values and hands them to submit on enter.
type formDialog struct {
	title  string
	labels []string
	inputs []textinput.Model
	focus  int
	submit func(values []string) tea.Cmd
}

func newFormDialog(title string, submit func(values []string) tea.Cmd, fields ...formField) *formDialog {
	d := &formDialog{title: title, submit: submit}
	for i, f := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.CharLimit = 256
		in.Width = 40
		in.Placeholder = f.Placeholder
		in.SetValue(f.Value)
		if len(f.Suggestions) > 0 {
			in.ShowSuggestions = true
			in.SetSuggestions(f.Suggestions)
		}
		if i == 0 {
			in.Focus()
		}
		d.labels = append(d.labels, f.Label)
		d.inputs = append(d.inputs, in)
	}
	return d
}

func (d *formDialog) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return d, nil, true
		case key.Matches(km, keys.Confirm):
			return d, d.submit(d.values()), true
		case key.Matches(km, keys.Tab):
			return d, d.moveFocus(1), false
		case key.Matches(km, keys.ShiftTab):
			return d, d.moveFocus(-1), false
		}
	}
	if len(d.inputs) == 0 {
		return d, nil, false
	}
	var cmd tea.Cmd
	d.inputs[d.focus], cmd = d.inputs[d.focus].Update(msg)
	return d, cmd, false
}

func (d *formDialog) moveFocus(delta int) tea.Cmd {
	if len(d.inputs) == 0 {
		return nil
	}
	d.inputs[d.focus].Blur()
	d.focus = (d.focus + delta + len(d.inputs)) % len(d.inputs)
	return d.inputs[d.focus].Focus()
}

func (d *formDialog) values() []string {
	out := make([]string, len(d.inputs))
	for i, in := range d.inputs {
		out[i] = in.Value()
	}
	return out
}

func (d *formDialog) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(d.title))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 44)))
	b.WriteString("\n\n")

	for i, in := range d.inputs {
		labelStyle := styles.MutedText
		if i == d.focus {
			labelStyle = styles.AccentText.Bold(true)
		}
		b.WriteString(labelStyle.Width(12).Render(d.labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("tab: next field  enter: submit  esc: cancel"))

	return placeModal(theme, width, height, 60, b.String())
}

// confirmDialog asks a yes/no question before running onConfirm.
type confirmDialog struct {
	title     string
	message   string
	onConfirm func() tea.Cmd
}

func newConfirmDialog(title, message string, onConfirm func() tea.Cmd) *confirmDialog {
	return &confirmDialog{title: title, message: message, onConfirm: onConfirm}
}

func (d *confirmDialog) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return d, nil, false
	}
	switch {
	case km.String() == "y", key.Matches(km, keys.Confirm):
		return d, d.onConfirm(), true
	case km.String() == "n", key.Matches(km, keys.Escape):
		return d, nil, true
	}
	return d, nil, false
}

func (d *confirmDialog) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(d.title))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render(d.message))
	b.WriteString("\n\n")
	b.WriteString(styles.AccentText.Render("y") + styles.MutedText.Render(":Yes  ") +
		styles.AccentText.Render("n") + styles.MutedText.Render(":No"))

	return placeModal(theme, width, height, 50, b.String())
}

func placeModal(theme Theme, width, height, modalWidth int, content string) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(modalWidth)

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
