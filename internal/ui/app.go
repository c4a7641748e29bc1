package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/prefs"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

// Controller performs operator actions. Each method reports its own outcome
// through the notices, so the UI only needs the error to know it finished.
type Controller interface {
	AddDevice(ctx context.Context, dev settings.NewDevice) error
	RemoveDevice(ctx context.Context, mac string) error
	IgnoreDevice(ctx context.Context, mac, minutes string) error
	ToggleList(ctx context.Context, name string) error
	CreateList(ctx context.Context, name string) error
	TogglePause(ctx context.Context) (bool, error)
	ClearLog(ctx context.Context) error
	ApplyInterface(ctx context.Context, iface string) error
	ApplyScan(ctx context.Context, scan settings.ScanSettings) error
	ResetSettings(ctx context.Context) error
	Restart(ctx context.Context) (settings.RestartState, error)
	RestartState() settings.RestartState
	Trigger(resources ...monitor.Resource)
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Store      *monitor.Store
	Notices    *monitor.Notices
	Prefs      prefs.Prefs
	PrefsPath  string
	Tick       time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	ctrl      Controller
	store     *monitor.Store
	notices   *monitor.Notices
	prefs     prefs.Prefs
	prefsPath string
	tick      time.Duration
	keys      keyMap

	// UI state
	theme  Theme
	tab    Tab
	width  int
	height int
	ready  bool

	view monitor.View

	devices deviceState
	lists   listState
	form    settingsForm

	modal    Modal
	showHelp bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.Tick
	if tick <= 0 {
		tick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		ctrl:      opts.Controller,
		store:     opts.Store,
		notices:   opts.Notices,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		tick:      tick,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		tab:       TabDevices,
		devices:   deviceState{renderedVersion: -1},
	}
	m.syncSettingsForm()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.tick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initDeviceViewport()
		}
		m.ready = true
		m.updateDeviceViewport(true)
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(monitor.View(msg))
		return m, nil

	case StoreUpdatedMsg, actionDoneMsg:
		return m, fetchSnapshotCmd(m.store)

	case tea.FocusMsg, tea.ResumeMsg:
		return m, m.triggerCmd(monitor.ResourceDevices)

	case restartStartedMsg:
		m.form.restarting = true
		m.form.restart = settings.StateRestarting
		return m, nil

	case restartDoneMsg:
		m.form.restarting = false
		m.form.restart = msg.state
		return m, fetchSnapshotCmd(m.store)

	case settingsEditMsg:
		m.applySettingsEdit(msg)
		return m, nil

	case settingsResetMsg:
		m.form.dirty = false
		return m, nil
	}

	// Cursor blink and other widget messages.
	if m.modal != nil {
		var cmd tea.Cmd
		m.modal, cmd, _ = m.modal.Update(msg, m.keys)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		next, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = next
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.notices != nil {
			m.notices.Dismiss()
		}
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, m.prefs)
		}
		m.updateDeviceViewport(true)
		return m, nil

	case key.Matches(msg, m.keys.ViewDevices):
		return m.setTab(TabDevices)
	case key.Matches(msg, m.keys.ViewLists):
		return m.setTab(TabLists)
	case key.Matches(msg, m.keys.ViewSettings):
		return m.setTab(TabSettings)
	}

	// Tab cycles views everywhere except the settings form, where it
	// moves between fields.
	if m.tab != TabSettings {
		switch {
		case key.Matches(msg, m.keys.Tab):
			return m.setTab((m.tab + 1) % Tab(len(tabNames)))
		case key.Matches(msg, m.keys.ShiftTab):
			return m.setTab((m.tab + Tab(len(tabNames)) - 1) % Tab(len(tabNames)))
		}
	}

	switch m.tab {
	case TabLists:
		return m.handleListsKey(msg)
	case TabSettings:
		if key.Matches(msg, m.keys.Tab) {
			m.form.field = (m.form.field + 1) % fieldCount
			return m, nil
		}
		if key.Matches(msg, m.keys.ShiftTab) {
			m.form.field = (m.form.field + fieldCount - 1) % fieldCount
			return m, nil
		}
		return m.handleSettingsKey(msg)
	default:
		return m.handleDevicesKey(msg)
	}
}

// setTab switches views. Coming back to the device log counts as the log
// becoming visible again and refreshes it right away.
func (m Model) setTab(t Tab) (tea.Model, tea.Cmd) {
	prev := m.tab
	m.tab = t
	if t == TabDevices && prev != TabDevices {
		return m, m.triggerCmd(monitor.ResourceDevices)
	}
	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.tick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.form.restarting && m.ctrl != nil {
		m.form.restart = m.ctrl.RestartState()
		if m.form.restart.Terminal() {
			m.form.restarting = false
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(view monitor.View) {
	m.view = view
	if m.ready {
		m.updateDeviceViewport(false)
	}
	m.syncSettingsForm()
	if m.lists.selected == "" {
		m.moveListCursor(0)
	}
}

func (m Model) renderMain() string {
	return m.renderHeader() + "\n" +
		m.renderCommandBar() + "\n" +
		m.renderContent() + "\n" +
		m.renderNoticeBar()
}

func (m Model) renderContent() string {
	switch m.tab {
	case TabLists:
		return m.renderLists()
	case TabSettings:
		return m.renderSettings()
	default:
		return m.renderDevices()
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	_, err := NewProgram(opts).Run()
	return err
}

// NewProgram builds the program without starting it, so callers can Send
// StoreUpdatedMsg from other goroutines.
func NewProgram(opts Options) *tea.Program {
	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithReportFocus()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	return tea.NewProgram(New(opts), programOpts...)
}
