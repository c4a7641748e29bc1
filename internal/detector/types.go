package detector

import (
	"slices"
	"strconv"
	"strings"
)

// StatusSuccess is the status value the service reports for a completed mutation.
const StatusSuccess = "success"

// Result mirrors the {status, message} envelope returned by mutation endpoints.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports whether the service accepted the request.
func (r Result) OK() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), StatusSuccess)
}

// Status mirrors the payload returned by /api/status.
type Status struct {
	CycleCount  int          `json:"cycle_count"`
	InterfaceUp bool         `json:"interface_status"`
	Channels    BandChannels `json:"channels"`
	CaptureTime int          `json:"capture_time"`
}

// BandChannels groups channel numbers by band the way the service keys them.
type BandChannels struct {
	Band2G []int `json:"2.4GHz"`
	Band5G []int `json:"5GHz"`
}

// Summary renders the channels per band sorted ascending, e.g.
// "2.4GHz: 1,6,11 | 5GHz: 44,149".
func (b BandChannels) Summary() string {
	var parts []string
	if len(b.Band2G) > 0 {
		parts = append(parts, "2.4GHz: "+joinSorted(b.Band2G))
	}
	if len(b.Band5G) > 0 {
		parts = append(parts, "5GHz: "+joinSorted(b.Band5G))
	}
	if len(parts) == 0 {
		return "No channels selected"
	}
	return strings.Join(parts, " | ")
}

func joinSorted(values []int) string {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	out := make([]string, len(sorted))
	for i, v := range sorted {
		out[i] = strconv.Itoa(v)
	}
	return strings.Join(out, ",")
}

// ListsStatus mirrors /api/lists-status. The service answers with a Result
// envelope instead when it cannot read its list directory.
type ListsStatus struct {
	Active   []string `json:"active"`
	Inactive []string `json:"inactive"`
	Status   string   `json:"status,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// ServiceConfig mirrors /api/config.
type ServiceConfig struct {
	CaptureTime int          `json:"capture_time"`
	BandMode    string       `json:"band_mode"`
	Channels    BandChannels `json:"channels"`
}

// CurrentSettings is the scan configuration reported by /api/current-settings.
type CurrentSettings struct {
	Interface   string `json:"interface"`
	CaptureTime int    `json:"capture_time"`
	Band2G      bool   `json:"band2G"`
	Band5G      bool   `json:"band5G"`
	Channels2G  []int  `json:"channels2G"`
	Channels5G  []int  `json:"channels5G"`
}

// SettingsResponse mirrors /api/current-settings.
type SettingsResponse struct {
	Status   string          `json:"status"`
	Message  string          `json:"message,omitempty"`
	Settings CurrentSettings `json:"settings"`
}

// PauseResponse mirrors /api/pause. The service owns the pause flag.
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// AddDeviceRequest is the body of /api/add-device.
type AddDeviceRequest struct {
	MAC     string `json:"mac"`
	Name    string `json:"name"`
	Command string `json:"command"`
	List    string `json:"list"`
}

// IgnoreRequest is the body of /api/ignore. Duration is in minutes.
type IgnoreRequest struct {
	MAC      string `json:"mac"`
	Duration int    `json:"duration"`
}

// ToggleListRequest is the body of /api/toggle-list.
type ToggleListRequest struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ApplyScanRequest is the body of /api/apply-scan.
type ApplyScanRequest struct {
	CaptureTime int   `json:"captureTime"`
	Band2G      bool  `json:"band2G"`
	Band5G      bool  `json:"band5G"`
	Channels2G  []int `json:"channels2G"`
	Channels5G  []int `json:"channels5G"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type macRequest struct {
	MAC string `json:"mac"`
}

type interfaceRequest struct {
	Interface string `json:"interface"`
}
