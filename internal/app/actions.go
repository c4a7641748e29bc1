package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ouiwatch/ouiwatch/internal/detector"
	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

// Delays before everything is refetched after settings change.
const (
	ResetReloadDelay = 2 * time.Second
	ApplyReloadDelay = 5 * time.Second
)

// Actions runs operator-initiated mutations. Every method reports its
// outcome as a notice and returns the error for headless callers.
type Actions struct {
	api       detector.API
	store     *monitor.Store
	notices   *monitor.Notices
	scheduler *Scheduler
	logger    *log.Logger
	restarter *settings.Restarter

	// Delays may be shortened in tests.
	ResetDelay time.Duration
	ApplyDelay time.Duration

	mu     sync.Mutex
	timers []*time.Timer
}

// NewActions wires mutations to the scheduler that refreshes after them.
func NewActions(api detector.API, store *monitor.Store, notices *monitor.Notices, scheduler *Scheduler, logger *log.Logger) *Actions {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	a := &Actions{
		api:        api,
		store:      store,
		notices:    notices,
		scheduler:  scheduler,
		logger:     logger,
		ResetDelay: ResetReloadDelay,
		ApplyDelay: ApplyReloadDelay,
	}
	a.restarter = &settings.Restarter{
		API:     api,
		Logger:  logger.WithPrefix("restart"),
		OnEvent: a.onRestartEvent,
	}
	return a
}

// Restarter exposes the restart workflow, mostly so tests can tune it.
func (a *Actions) Restarter() *settings.Restarter { return a.restarter }

// AddDevice validates the form and adds the device to a list.
func (a *Actions) AddDevice(ctx context.Context, dev settings.NewDevice) error {
	req, err := dev.Request()
	if err != nil {
		return a.fail("add device", err, "Failed to add device")
	}
	if err := a.api.AddDevice(ctx, req); err != nil {
		return a.fail("add device", err, "Failed to add device")
	}
	a.logger.Info("device added", "mac", req.MAC, "name", req.Name, "list", req.List)
	a.notices.Post(monitor.NoticeSuccess, "Device added successfully")
	a.scheduler.Trigger(monitor.ResourceDevices)
	return nil
}

// RemoveDevice removes a MAC or OUI from every list.
func (a *Actions) RemoveDevice(ctx context.Context, mac string) error {
	if strings.TrimSpace(mac) == "" {
		return a.fail("remove device", &settings.ValidationError{Field: "mac", Reason: "No device selected"}, "")
	}
	if err := a.api.RemoveDevice(ctx, mac); err != nil {
		return a.fail("remove device", err, "Failed to remove device")
	}
	a.logger.Info("device removed", "mac", mac)
	a.notices.Post(monitor.NoticeSuccess, "Device removed successfully")
	a.scheduler.Trigger(monitor.ResourceDevices)
	return nil
}

// IgnoreDevice suppresses a device for the given duration text in minutes.
func (a *Actions) IgnoreDevice(ctx context.Context, mac, minutes string) error {
	if strings.TrimSpace(mac) == "" {
		return a.fail("ignore device", &settings.ValidationError{Field: "mac", Reason: "No device selected"}, "")
	}
	n, err := settings.ParseIgnoreMinutes(minutes)
	if err != nil {
		return a.fail("ignore device", err, "Failed to ignore device")
	}
	if err := a.api.IgnoreDevice(ctx, mac, n); err != nil {
		return a.fail("ignore device", err, "Failed to ignore device")
	}
	a.logger.Info("device ignored", "mac", mac, "minutes", n)
	a.notices.Post(monitor.NoticeSuccess, fmt.Sprintf("Device %s ignored for %d minutes", mac, n))
	a.scheduler.Trigger(monitor.ResourceDevices)
	return nil
}

// ToggleList flips the list locally first and then persists it. A failed
// request leaves the local flip in place until the next lists refresh.
func (a *Actions) ToggleList(ctx context.Context, name string) error {
	active, err := a.store.ToggleList(name)
	if err != nil {
		return a.fail("toggle list", err, "Failed to toggle list status")
	}
	if err := a.api.ToggleList(ctx, name, active); err != nil {
		return a.fail("toggle list", err, "Failed to toggle list status")
	}
	verb := "deactivated"
	if active {
		verb = "activated"
	}
	a.logger.Info("list toggled", "list", name, "active", active)
	a.notices.Post(monitor.NoticeSuccess, fmt.Sprintf("List %s %s", name, verb))
	a.scheduler.Trigger(monitor.ResourceLists)
	return nil
}

// CreateList creates an empty inactive list.
func (a *Actions) CreateList(ctx context.Context, name string) error {
	name, err := settings.ValidateListName(name)
	if err != nil {
		return a.fail("create list", err, "Failed to create list")
	}
	if err := a.api.CreateList(ctx, name); err != nil {
		return a.fail("create list", err, "Failed to create list")
	}
	a.store.AddList(name)
	a.logger.Info("list created", "list", name)
	a.notices.Post(monitor.NoticeSuccess, "List created successfully")
	a.scheduler.Trigger(monitor.ResourceLists)
	return nil
}

// TogglePause flips the service's pause flag and records what it reports.
func (a *Actions) TogglePause(ctx context.Context) (bool, error) {
	paused, err := a.api.TogglePause(ctx)
	if err != nil {
		return a.store.Paused(), a.fail("toggle pause", err, "Failed to toggle pause state")
	}
	a.store.SetPaused(paused)
	a.logger.Info("pause toggled", "paused", paused)
	if paused {
		a.notices.Post(monitor.NoticeInfo, "Monitoring paused")
	} else {
		a.notices.Post(monitor.NoticeInfo, "Monitoring resumed")
		a.scheduler.Trigger(monitor.ResourceDevices)
	}
	return paused, nil
}

// ClearLog truncates the service log and empties the local one.
func (a *Actions) ClearLog(ctx context.Context) error {
	if err := a.api.ClearLog(ctx); err != nil {
		return a.fail("clear log", err, "Failed to clear logs")
	}
	a.store.ClearDevices()
	a.logger.Info("log cleared")
	a.notices.Post(monitor.NoticeSuccess, "Logs cleared")
	return nil
}

// ApplyInterface selects the capture interface and reloads once the scan
// process has restarted.
func (a *Actions) ApplyInterface(ctx context.Context, iface string) error {
	if strings.TrimSpace(iface) == "" {
		return a.fail("apply interface", &settings.ValidationError{Field: "interface", Reason: "Interface is required"}, "")
	}
	if err := a.api.ApplyInterface(ctx, iface); err != nil {
		return a.fail("apply interface", err, "Failed to apply interface settings")
	}
	a.logger.Info("interface applied", "interface", iface)
	a.notices.Post(monitor.NoticeSuccess, "Interface settings applied successfully")
	a.reloadAfter(a.ApplyDelay)
	return nil
}

// ApplyScan validates and submits scan settings. Status and configuration
// refresh immediately and everything reloads after ApplyDelay.
func (a *Actions) ApplyScan(ctx context.Context, scan settings.ScanSettings) error {
	req, err := scan.Request()
	if err != nil {
		return a.fail("apply scan", err, "Failed to apply scan settings")
	}
	if err := a.api.ApplyScan(ctx, req); err != nil {
		return a.fail("apply scan", err, "Failed to apply scan settings")
	}
	a.logger.Info("scan settings applied", "capture_time", req.CaptureTime,
		"channels_2g", req.Channels2G, "channels_5g", req.Channels5G)
	a.notices.Post(monitor.NoticeSuccess, "Scan settings applied successfully")
	a.scheduler.Trigger(monitor.ResourceStatus, monitor.ResourceConfig)
	a.reloadAfter(a.ApplyDelay)
	return nil
}

// ResetSettings restores service defaults and reloads after ResetDelay.
func (a *Actions) ResetSettings(ctx context.Context) error {
	if err := a.api.ResetSettings(ctx); err != nil {
		return a.fail("reset settings", err, "Failed to reset settings")
	}
	a.logger.Info("settings reset")
	a.notices.Post(monitor.NoticeSuccess, "Settings reset to defaults")
	a.reloadAfter(a.ResetDelay)
	return nil
}

// Restart runs the restart workflow to completion.
func (a *Actions) Restart(ctx context.Context) (settings.RestartState, error) {
	return a.restarter.Run(ctx)
}

// RestartState reports where the restart workflow is.
func (a *Actions) RestartState() settings.RestartState {
	return a.restarter.State()
}

func (a *Actions) onRestartEvent(ev settings.RestartEvent) {
	switch ev.State {
	case settings.StateRestarting:
		a.notices.Post(monitor.NoticeInfo, "Initiating restart...")
	case settings.StateReconnecting:
		if ev.Attempt == 0 {
			a.notices.Post(monitor.NoticeInfo, "Service is restarting, please wait...")
		}
	case settings.StateSucceeded:
		a.notices.Post(monitor.NoticeSuccess, "Service restarted successfully!")
		a.scheduler.Reload()
	case settings.StateGaveUp:
		a.notices.Post(monitor.NoticeError, "Service may need manual restart")
	case settings.StateIdle:
		if ev.Err != nil {
			a.notices.Post(monitor.NoticeError, "Failed to restart service: "+detector.UserMessage(ev.Err, "Unknown error"))
		}
	}
}

// Shutdown pauses the service on the way out unless it is already paused.
// The request is bounded by timeout and its outcome only logged.
func (a *Actions) Shutdown(timeout time.Duration) {
	a.mu.Lock()
	for _, t := range a.timers {
		t.Stop()
	}
	a.timers = nil
	a.mu.Unlock()

	if a.store.Paused() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if _, err := a.api.TogglePause(ctx); err != nil {
		a.logger.Warn("pause on exit failed", "err", err)
		return
	}
	a.logger.Info("paused service on exit")
}

func (a *Actions) reloadAfter(delay time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timers = append(a.timers, time.AfterFunc(delay, a.scheduler.Reload))
}

func (a *Actions) fail(op string, err error, fallback string) error {
	a.logger.Error(op+" failed", "err", err)
	a.notices.Post(monitor.NoticeError, detector.UserMessage(err, fallback))
	return err
}

// Trigger refreshes resources now, outside their periods.
func (a *Actions) Trigger(resources ...monitor.Resource) {
	a.scheduler.Trigger(resources...)
}
