package app

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ouiwatch/ouiwatch/internal/detector"
	"github.com/ouiwatch/ouiwatch/internal/fakedetector"
	"github.com/ouiwatch/ouiwatch/internal/monitor"
)

const (
	line1 = "[2024-05-01 10:00:00] | 00:11:22:33:44:55 | Phone | Ch: 6 | List: home"
	line2 = "[2024-05-01 10:00:02] | AA:BB:CC:00:00:01 | Tablet | Ch: 11 | List: home"
)

type rig struct {
	fake      *fakedetector.Server
	client    *detector.Client
	store     *monitor.Store
	notices   *monitor.Notices
	scheduler *Scheduler
	actions   *Actions
}

func newRig(t *testing.T) *rig {
	t.Helper()
	fake := fakedetector.New(t)
	client, err := detector.NewClient(fake.URL(), detector.WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	store := &monitor.Store{}
	notices := monitor.NewNotices(time.Minute)
	t.Cleanup(notices.Close)
	scheduler := NewScheduler(client, store, notices, nil, Periods{})
	actions := NewActions(client, store, notices, scheduler, nil)
	actions.ResetDelay = 10 * time.Millisecond
	actions.ApplyDelay = 10 * time.Millisecond
	r := actions.Restarter()
	r.Interval = 5 * time.Millisecond
	r.MaxAttempts = 3
	return &rig{fake: fake, client: client, store: store, notices: notices, scheduler: scheduler, actions: actions}
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func currentNotice(t *testing.T, n *monitor.Notices) monitor.Notice {
	t.Helper()
	notice, ok := n.Current()
	if !ok {
		t.Fatalf("no notice posted")
	}
	return notice
}

func TestPeriodsDefaults(t *testing.T) {
	got := Periods{Lists: time.Minute}.withDefaults()
	want := Periods{
		Devices: DefaultPeriods.Devices,
		Status:  DefaultPeriods.Status,
		Lists:   time.Minute,
		Config:  DefaultPeriods.Config,
	}
	if got != want {
		t.Fatalf("withDefaults = %+v, want %+v", got, want)
	}
}

func TestRefreshDevicesSkippedWhilePaused(t *testing.T) {
	r := newRig(t)
	r.fake.SetDevices(line1)
	ctx := context.Background()

	r.store.SetPaused(true)
	if err := r.scheduler.Refresh(ctx, monitor.ResourceDevices); err != nil {
		t.Fatalf("Refresh paused: %v", err)
	}
	if got := r.fake.Calls("/api/devices"); got != 0 {
		t.Fatalf("device requests while paused = %d, want 0", got)
	}

	r.store.SetPaused(false)
	if err := r.scheduler.Refresh(ctx, monitor.ResourceDevices); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := r.fake.Calls("/api/devices"); got != 1 {
		t.Fatalf("device requests = %d, want 1", got)
	}
	if got := r.store.Snapshot().Log.Len(); got != 1 {
		t.Fatalf("log len = %d, want 1", got)
	}
}

func TestRefreshDevicesNotifiesOnlyOnChange(t *testing.T) {
	r := newRig(t)
	r.fake.SetDevices(line1, line2)

	var mu sync.Mutex
	var updates []monitor.Resource
	r.scheduler.OnUpdate = func(res monitor.Resource) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, res)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := r.scheduler.Refresh(ctx, monitor.ResourceDevices); err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) != 1 || updates[0] != monitor.ResourceDevices {
		t.Fatalf("updates = %v, want [devices]", updates)
	}
}

func TestRefreshFailureIsIsolated(t *testing.T) {
	r := newRig(t)
	r.fake.Fail("/api/devices", http.StatusInternalServerError)
	r.fake.SetLists([]string{"home"}, []string{"work"})
	ctx := context.Background()

	if err := r.scheduler.Refresh(ctx, monitor.ResourceDevices); err == nil {
		t.Fatalf("Refresh devices error = nil, want failure")
	}
	notice := currentNotice(t, r.notices)
	if notice.Kind != monitor.NoticeError {
		t.Fatalf("notice kind = %v, want error", notice.Kind)
	}

	for _, res := range []monitor.Resource{monitor.ResourceStatus, monitor.ResourceLists, monitor.ResourceConfig} {
		if err := r.scheduler.Refresh(ctx, res); err != nil {
			t.Fatalf("Refresh %s: %v", res, err)
		}
	}

	view := r.store.Snapshot()
	if !view.HasStatus || view.Status.CycleCount != 1 {
		t.Fatalf("status = %+v (has %v), want cycle 1", view.Status, view.HasStatus)
	}
	if len(view.Active) != 1 || view.Active[0] != "home" {
		t.Fatalf("active = %v, want [home]", view.Active)
	}
	if len(view.Inactive) != 1 || view.Inactive[0] != "work" {
		t.Fatalf("inactive = %v, want [work]", view.Inactive)
	}
	if !view.HasConfig || !view.HasSettings {
		t.Fatalf("config loaded = %v, settings loaded = %v, want both", view.HasConfig, view.HasSettings)
	}
	if view.Settings.Interface != "wlan1" {
		t.Fatalf("interface = %q, want wlan1", view.Settings.Interface)
	}
}

func TestRefreshStatusFailuresMarkOffline(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.scheduler.Refresh(ctx, monitor.ResourceStatus); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	r.fake.StatusDown(2)
	for i := 0; i < 2; i++ {
		_ = r.scheduler.Refresh(ctx, monitor.ResourceStatus)
	}
	view := r.store.Snapshot()
	if !view.IsOffline() {
		t.Fatalf("IsOffline = false after %d failures, want true", view.ConsecutiveFailures)
	}
	if !view.HasStatus {
		t.Fatalf("last good status dropped on failure")
	}

	if err := r.scheduler.Refresh(ctx, monitor.ResourceStatus); err != nil {
		t.Fatalf("Refresh after recovery: %v", err)
	}
	if r.store.Snapshot().IsOffline() {
		t.Fatalf("still offline after a good poll")
	}
}

func TestTriggerRefreshesOutsidePeriod(t *testing.T) {
	r := newRig(t)
	r.fake.SetDevices(line1)

	updated := make(chan monitor.Resource, 4)
	r.scheduler.OnUpdate = func(res monitor.Resource) { updated <- res }

	r.scheduler.Trigger(monitor.ResourceDevices)
	select {
	case res := <-updated:
		if res != monitor.ResourceDevices {
			t.Fatalf("updated %s, want devices", res)
		}
	case <-time.After(time.Second):
		t.Fatalf("Trigger did not refresh")
	}
	if got := r.fake.Calls("/api/devices"); got != 1 {
		t.Fatalf("device requests = %d, want 1", got)
	}
}

func TestReloadResetsAndRefetches(t *testing.T) {
	r := newRig(t)
	r.store.ApplyDevices([]string{"stale line"})
	r.store.ReconcileLists([]string{"gone"}, nil)
	r.fake.SetDevices(line1)
	r.fake.SetLists(nil, []string{"work"})

	r.scheduler.Reload()

	waitFor(t, "reload", func() bool {
		view := r.store.Snapshot()
		return view.HasStatus && view.HasSettings && view.Log.Contains(line1) && len(view.Inactive) == 1
	})
	view := r.store.Snapshot()
	if view.Log.Contains("stale line") {
		t.Fatalf("stale line survived reload")
	}
	if len(view.Active) != 0 {
		t.Fatalf("active = %v, want none", view.Active)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRig(t)
	r.fake.SetDevices(line1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.scheduler.Run(ctx) }()

	waitFor(t, "first refresh", func() bool {
		return r.fake.Calls("/api/devices") > 0 && r.fake.Calls("/api/status") > 0 &&
			r.fake.Calls("/api/lists-status") > 0 && r.fake.Calls("/api/config") > 0
	})
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}

	// Triggers after shutdown are dropped.
	before := r.fake.Calls("/api/devices")
	r.scheduler.Trigger(monitor.ResourceDevices)
	time.Sleep(20 * time.Millisecond)
	if got := r.fake.Calls("/api/devices"); got != before {
		t.Fatalf("device requests after stop = %d, want %d", got, before)
	}
}

func TestRunKeepsTickingAfterFailures(t *testing.T) {
	r := newRig(t)
	sched := NewScheduler(r.client, r.store, r.notices, nil, Periods{
		Devices: 10 * time.Millisecond,
		Status:  time.Hour,
		Lists:   time.Hour,
		Config:  time.Hour,
	})
	r.fake.SetDevices(line1)
	r.fake.Fail("/api/devices", http.StatusInternalServerError)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	waitFor(t, "ticks across failures", func() bool { return r.fake.Calls("/api/devices") >= 3 })
	if r.store.Snapshot().Log.Len() != 0 {
		t.Fatalf("log populated while the service was failing")
	}

	r.fake.Fail("/api/devices", 0)
	waitFor(t, "log after recovery", func() bool { return r.store.Snapshot().Log.Contains(line1) })
	if got := r.fake.Calls("/api/status"); got != 1 {
		t.Fatalf("status requests = %d, want 1 from the initial refresh", got)
	}
}

func TestOverlappingRefreshesLastResolvedWins(t *testing.T) {
	r := newRig(t)
	r.fake.SetDevices(line1)
	r.fake.HoldNext("/api/devices", 200*time.Millisecond)

	// The first request answers [line1] but is delivered late.
	r.scheduler.Trigger(monitor.ResourceDevices)
	waitFor(t, "first request", func() bool { return r.fake.Calls("/api/devices") == 1 })

	r.fake.SetDevices(line2)
	r.scheduler.Trigger(monitor.ResourceDevices)
	waitFor(t, "second response", func() bool { return r.store.Snapshot().Log.Contains(line2) })

	waitFor(t, "held response", func() bool { return r.store.Snapshot().Log.Contains(line1) })
	if view := r.store.Snapshot(); view.Log.Contains(line2) || view.Log.Len() != 1 {
		t.Fatalf("log = %v, want only the late response", view.Log.Entries())
	}
}

func TestTriggerDuringShutdown(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- r.scheduler.Run(ctx) }()
	waitFor(t, "first refresh", func() bool { return r.fake.Calls("/api/status") > 0 })

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					r.scheduler.Trigger(Resources...)
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return while triggers were firing")
	}
	close(stop)
	wg.Wait()

	before := r.fake.Calls("/api/status")
	r.scheduler.Trigger(monitor.ResourceStatus)
	time.Sleep(20 * time.Millisecond)
	if got := r.fake.Calls("/api/status"); got != before {
		t.Fatalf("status requests after stop = %d, want %d", got, before)
	}
}
