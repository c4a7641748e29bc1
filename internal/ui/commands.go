package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

// Messages

type tickMsg time.Time

type snapshotMsg monitor.View

// StoreUpdatedMsg tells the model that the scheduler refreshed a resource.
type StoreUpdatedMsg struct {
	Resource monitor.Resource
}

// actionDoneMsg follows every Controller call. The controller already
// posted a notice, so err is informational.
type actionDoneMsg struct {
	err error
}

type restartStartedMsg struct{}

type restartDoneMsg struct {
	state settings.RestartState
	err   error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *monitor.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// runAction runs fn off the update loop.
func (m Model) runAction(fn func(ctx context.Context) error) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

func (m Model) togglePauseCmd() tea.Cmd {
	ctrl := m.ctrl
	return m.runAction(func(ctx context.Context) error {
		_, err := ctrl.TogglePause(ctx)
		return err
	})
}

func (m Model) triggerCmd(resources ...monitor.Resource) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Trigger(resources...)
		return nil
	}
}

// restartCmd runs the whole restart workflow, which can take as long as the
// reconnect budget allows.
func (m Model) restartCmd() tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(
		func() tea.Msg { return restartStartedMsg{} },
		func() tea.Msg {
			state, err := ctrl.Restart(ctx)
			return restartDoneMsg{state: state, err: err}
		},
	)
}
