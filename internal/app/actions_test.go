package app

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/ouiwatch/ouiwatch/internal/detector"
	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/settings"
)

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := sonic.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestToggleListIsOptimistic(t *testing.T) {
	r := newRig(t)
	r.fake.SetLists([]string{"home"}, []string{"work"})
	r.store.ReconcileLists([]string{"home"}, []string{"work"})

	if err := r.actions.ToggleList(context.Background(), "work"); err != nil {
		t.Fatalf("ToggleList: %v", err)
	}

	view := r.store.Snapshot()
	if !slices.Contains(view.Active, "work") {
		t.Fatalf("active = %v, want work included", view.Active)
	}
	req := decodeBody[detector.ToggleListRequest](t, r.fake.Body("/api/toggle-list"))
	if req.Name != "work" || !req.Active {
		t.Fatalf("toggle body = %+v, want work active", req)
	}
	if notice := currentNotice(t, r.notices); notice.Text != "List work activated" {
		t.Fatalf("notice = %q, want %q", notice.Text, "List work activated")
	}
}

func TestToggleListFailureKeepsLocalFlip(t *testing.T) {
	tests := []struct {
		name   string
		inject func(r *rig)
		want   string
	}{
		{
			name:   "rejected",
			inject: func(r *rig) { r.fake.Reject("/api/toggle-list", "List is locked") },
			want:   "List is locked",
		},
		{
			name:   "http error",
			inject: func(r *rig) { r.fake.Fail("/api/toggle-list", http.StatusBadGateway) },
			want:   "Failed to toggle list status",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			r.store.ReconcileLists([]string{"home"}, nil)
			tt.inject(r)

			if err := r.actions.ToggleList(context.Background(), "home"); err == nil {
				t.Fatalf("ToggleList error = nil, want failure")
			}
			view := r.store.Snapshot()
			if len(view.Active) != 0 || !slices.Contains(view.Inactive, "home") {
				t.Fatalf("lists = %v / %v, want home left inactive", view.Active, view.Inactive)
			}
			notice := currentNotice(t, r.notices)
			if notice.Kind != monitor.NoticeError || notice.Text != tt.want {
				t.Fatalf("notice = %+v, want error %q", notice, tt.want)
			}
		})
	}
}

func TestToggleUnknownListSendsNothing(t *testing.T) {
	r := newRig(t)
	if err := r.actions.ToggleList(context.Background(), "nope"); err == nil {
		t.Fatalf("ToggleList error = nil, want failure")
	}
	if got := r.fake.Calls("/api/toggle-list"); got != 0 {
		t.Fatalf("toggle requests = %d, want 0", got)
	}
}

func TestCreateList(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.actions.CreateList(ctx, "  "); err == nil {
		t.Fatalf("CreateList blank error = nil, want validation failure")
	}
	if got := r.fake.Calls("/api/create-list"); got != 0 {
		t.Fatalf("create requests = %d, want 0", got)
	}
	if notice := currentNotice(t, r.notices); notice.Text != "List name is required" {
		t.Fatalf("notice = %q, want validation reason", notice.Text)
	}

	if err := r.actions.CreateList(ctx, " guests "); err != nil {
		t.Fatalf("CreateList: %v", err)
	}
	if view := r.store.Snapshot(); !slices.Contains(view.Inactive, "guests") {
		t.Fatalf("inactive = %v, want guests", view.Inactive)
	}

	if err := r.actions.CreateList(ctx, "guests"); err == nil {
		t.Fatalf("CreateList duplicate error = nil, want rejection")
	}
	if notice := currentNotice(t, r.notices); notice.Text != "List already exists" {
		t.Fatalf("notice = %q, want service message", notice.Text)
	}
}

func TestAddDeviceValidation(t *testing.T) {
	tests := []struct {
		name  string
		dev   settings.NewDevice
		calls int
	}{
		{"missing name", settings.NewDevice{Address: "00:11:22:33:44:55"}, 0},
		{"bad address", settings.NewDevice{Address: "00:11:2Z", Name: "Phone"}, 0},
		{"full mac", settings.NewDevice{Address: "00:11:22:33:44:55", Name: "Phone", List: "home"}, 1},
		{"oui", settings.NewDevice{Address: "00-11-22", Name: "Vendor"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			_ = r.actions.AddDevice(context.Background(), tt.dev)
			if got := r.fake.Calls("/api/add-device"); got != tt.calls {
				t.Fatalf("add requests = %d, want %d", got, tt.calls)
			}
		})
	}
}

func TestAddDeviceFillsCommand(t *testing.T) {
	r := newRig(t)
	dev := settings.NewDevice{Address: "AA:BB:CC", Name: "Vendor", List: "home"}
	if err := r.actions.AddDevice(context.Background(), dev); err != nil {
		t.Fatalf("AddDevice: %v", err)
	}
	req := decodeBody[detector.AddDeviceRequest](t, r.fake.Body("/api/add-device"))
	if req.MAC != "AA:BB:CC" || req.List != "home" {
		t.Fatalf("add body = %+v, want OUI in list home", req)
	}
	if want := fmt.Sprintf(settings.DefaultCommandTemplate, "Vendor"); req.Command != want {
		t.Fatalf("command = %q, want %q", req.Command, want)
	}
}

func TestIgnoreDevice(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.actions.IgnoreDevice(ctx, "00:11:22:33:44:55", "abc"); err == nil {
		t.Fatalf("IgnoreDevice bad minutes error = nil")
	}
	if got := r.fake.Calls("/api/ignore"); got != 0 {
		t.Fatalf("ignore requests = %d, want 0", got)
	}

	if err := r.actions.IgnoreDevice(ctx, "00:11:22:33:44:55", ""); err != nil {
		t.Fatalf("IgnoreDevice: %v", err)
	}
	req := decodeBody[detector.IgnoreRequest](t, r.fake.Body("/api/ignore"))
	if req.MAC != "00:11:22:33:44:55" || req.Duration != settings.DefaultIgnoreMinutes {
		t.Fatalf("ignore body = %+v, want default duration", req)
	}
}

func TestTogglePauseRecordsServiceState(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	paused, err := r.actions.TogglePause(ctx)
	if err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if !paused || !r.store.Paused() {
		t.Fatalf("paused = %v, store = %v, want both true", paused, r.store.Paused())
	}

	paused, err = r.actions.TogglePause(ctx)
	if err != nil {
		t.Fatalf("TogglePause: %v", err)
	}
	if paused || r.store.Paused() {
		t.Fatalf("paused = %v, store = %v, want both false", paused, r.store.Paused())
	}
	waitFor(t, "resume refresh", func() bool { return r.fake.Calls("/api/devices") > 0 })
}

func TestClearLog(t *testing.T) {
	r := newRig(t)
	r.store.ApplyDevices([]string{line1, line2})

	if err := r.actions.ClearLog(context.Background()); err != nil {
		t.Fatalf("ClearLog: %v", err)
	}
	if got := r.store.Snapshot().Log.Len(); got != 0 {
		t.Fatalf("log len = %d, want 0", got)
	}
}

func TestClearLogFailureKeepsLog(t *testing.T) {
	r := newRig(t)
	r.store.ApplyDevices([]string{line1})
	r.fake.Fail("/api/clear-log", http.StatusInternalServerError)

	if err := r.actions.ClearLog(context.Background()); err == nil {
		t.Fatalf("ClearLog error = nil, want failure")
	}
	if got := r.store.Snapshot().Log.Len(); got != 1 {
		t.Fatalf("log len = %d, want 1", got)
	}
}

func TestApplyScan(t *testing.T) {
	r := newRig(t)
	scan := settings.ScanSettings{
		CaptureTime: 20,
		Band2G:      true,
		Band5G:      true,
		Channels2G:  []int{11, 1, 6, 6},
		Channels5G:  []int{149, 36},
	}

	if err := r.actions.ApplyScan(context.Background(), scan); err != nil {
		t.Fatalf("ApplyScan: %v", err)
	}
	req := decodeBody[detector.ApplyScanRequest](t, r.fake.Body("/api/apply-scan"))
	if req.CaptureTime != 20 || !req.Band2G || !req.Band5G {
		t.Fatalf("scan body = %+v, want capture 20 with both bands", req)
	}
	if !slices.Equal(req.Channels2G, []int{1, 6, 11}) {
		t.Fatalf("2.4GHz channels = %v, want [1 6 11]", req.Channels2G)
	}
	if !slices.Equal(req.Channels5G, []int{36, 149}) {
		t.Fatalf("5GHz channels = %v, want [36 149]", req.Channels5G)
	}

	// The delayed reload refetches lists too, which the immediate refresh does not.
	waitFor(t, "reload after apply", func() bool { return r.fake.Calls("/api/lists-status") > 0 })
}

func TestApplyScanRejectsForeignChannel(t *testing.T) {
	r := newRig(t)
	scan := settings.ScanSettings{CaptureTime: 13, Band2G: true, Channels2G: []int{14}}

	if err := r.actions.ApplyScan(context.Background(), scan); err == nil {
		t.Fatalf("ApplyScan error = nil, want validation failure")
	}
	if got := r.fake.Calls("/api/apply-scan"); got != 0 {
		t.Fatalf("apply requests = %d, want 0", got)
	}
}

func TestApplyInterfaceRequiresName(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.actions.ApplyInterface(ctx, ""); err == nil {
		t.Fatalf("ApplyInterface blank error = nil")
	}
	if err := r.actions.ApplyInterface(ctx, "wlan0"); err != nil {
		t.Fatalf("ApplyInterface: %v", err)
	}
	if got := r.fake.Calls("/api/apply-interface"); got != 1 {
		t.Fatalf("apply-interface requests = %d, want 1", got)
	}
}

func TestResetSettingsReloads(t *testing.T) {
	r := newRig(t)
	if err := r.actions.ResetSettings(context.Background()); err != nil {
		t.Fatalf("ResetSettings: %v", err)
	}
	waitFor(t, "reload after reset", func() bool {
		return r.fake.Calls("/api/current-settings") > 0 && r.fake.Calls("/api/status") > 0
	})
}

func TestRestart(t *testing.T) {
	tests := []struct {
		name     string
		downtime int
		want     settings.RestartState
		notice   string
	}{
		{"comes back", 1, settings.StateSucceeded, "Service restarted successfully!"},
		{"stays down", 10, settings.StateGaveUp, "Service may need manual restart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			r.fake.RestartDowntime(tt.downtime)

			state, err := r.actions.Restart(context.Background())
			if err != nil {
				t.Fatalf("Restart: %v", err)
			}
			if state != tt.want {
				t.Fatalf("Restart = %v, want %v", state, tt.want)
			}
			if got := r.actions.RestartState(); got != tt.want {
				t.Fatalf("RestartState = %v, want %v", got, tt.want)
			}
			if notice := currentNotice(t, r.notices); notice.Text != tt.notice {
				t.Fatalf("notice = %q, want %q", notice.Text, tt.notice)
			}
			// A successful restart reloads, which overwrites the recorded status call.
			if tt.want == settings.StateGaveUp {
				if h := r.fake.Header("/api/status"); h.Get("Cache-Control") != "no-cache" {
					t.Fatalf("probe Cache-Control = %q, want no-cache", h.Get("Cache-Control"))
				}
			}
		})
	}
}

func TestRestartRejected(t *testing.T) {
	r := newRig(t)
	r.fake.Reject("/api/restart", "Restart not permitted")

	state, err := r.actions.Restart(context.Background())
	if err == nil {
		t.Fatalf("Restart error = nil, want rejection")
	}
	if state != settings.StateIdle {
		t.Fatalf("Restart = %v, want idle", state)
	}
	if notice := currentNotice(t, r.notices); notice.Text != "Failed to restart service: Restart not permitted" {
		t.Fatalf("notice = %q", notice.Text)
	}
}

func TestShutdownPausesRunningService(t *testing.T) {
	r := newRig(t)
	r.actions.Shutdown(time.Second)
	if !r.fake.Paused() {
		t.Fatalf("service not paused on shutdown")
	}
}

func TestShutdownLeavesPausedServiceAlone(t *testing.T) {
	r := newRig(t)
	r.store.SetPaused(true)
	r.fake.SetPaused(true)

	r.actions.Shutdown(time.Second)
	if got := r.fake.Calls("/api/pause"); got != 0 {
		t.Fatalf("pause requests = %d, want 0", got)
	}
	if !r.fake.Paused() {
		t.Fatalf("service resumed on shutdown")
	}
}
