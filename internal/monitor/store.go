package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/ouiwatch/ouiwatch/internal/detector"
)

// Resource names the independently refreshed pieces of state.
type Resource string

const (
	ResourceDevices Resource = "devices"
	ResourceStatus  Resource = "status"
	ResourceLists   Resource = "lists"
	ResourceConfig  Resource = "config"
)

// View is a copy of the store contents at a point in time.
type View struct {
	Paused bool

	Log        Snapshot
	LogVersion int

	Active    []string
	Inactive  []string
	Available []string

	Status      detector.Status
	HasStatus   bool
	Config      detector.ServiceConfig
	HasConfig   bool
	Settings    detector.CurrentSettings
	HasSettings bool

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // status polls failed in a row
}

// IsOffline returns true when the service has been unreachable for multiple polls.
func (v View) IsOffline() bool {
	return v.ConsecutiveFailures >= 2
}

// Store is the application state shared by the scheduler, the actions, and
// the UI. Each method is one atomic step.
type Store struct {
	mu sync.RWMutex

	paused     bool
	log        Snapshot
	logVersion int
	lists      Lists

	status      detector.Status
	hasStatus   bool
	config      detector.ServiceConfig
	hasConfig   bool
	settings    detector.CurrentSettings
	hasSettings bool

	lastUpdated time.Time
	lastError   error
	failures    int
}

// Paused reports the last pause flag confirmed by the service.
func (s *Store) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetPaused records the pause flag returned by the service.
func (s *Store) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// ApplyDevices diffs lines against the stored log and replaces it when the
// membership changed. The log version only moves on change.
func (s *Store) ApplyDevices(lines []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := Diff(s.log, lines)
	s.lastUpdated = time.Now()
	if !changed {
		return false
	}
	s.log = next
	s.logVersion++
	return true
}

// ClearDevices empties the local log.
func (s *Store) ClearDevices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = NewSnapshot(nil)
	s.logVersion++
}

// UpdateStatus replaces the live status. When err is non-nil the previous
// status is kept and the failure is counted.
func (s *Store) UpdateStatus(status *detector.Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastUpdated = time.Now()
	if err != nil {
		s.lastError = err
		s.failures++
		return
	}
	if status != nil {
		s.status = *status
		s.status.Channels = cloneChannels(status.Channels)
		s.hasStatus = true
	}
	s.lastError = nil
	s.failures = 0
}

// SetConfig replaces the configuration info.
func (s *Store) SetConfig(cfg detector.ServiceConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
	s.config.Channels = cloneChannels(cfg.Channels)
	s.hasConfig = true
}

// SetSettings replaces the editable scan settings.
func (s *Store) SetSettings(settings detector.CurrentSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	s.settings.Channels2G = cloneInts(settings.Channels2G)
	s.settings.Channels5G = cloneInts(settings.Channels5G)
	s.hasSettings = true
}

// ReconcileLists replaces list membership with the service's partition.
func (s *Store) ReconcileLists(active, inactive []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists.Reconcile(active, inactive)
}

// ToggleList optimistically flips name. It returns the new membership.
func (s *Store) ToggleList(name string) (active bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	active, known := s.lists.Toggle(name)
	if !known {
		return false, fmt.Errorf("unknown list %q", name)
	}
	return active, nil
}

// AddList records a created list.
func (s *Store) AddList(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists.Add(name)
}

// SetAvailableLists replaces the names offered for new devices.
func (s *Store) SetAvailableLists(names []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists.SetAvailable(names)
}

// Reset forgets everything fetched so the next refresh starts clean. The
// log version keeps counting so renderers notice the change.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = Snapshot{}
	s.logVersion++
	s.lists = Lists{}
	s.status, s.hasStatus = detector.Status{}, false
	s.config, s.hasConfig = detector.ServiceConfig{}, false
	s.settings, s.hasSettings = detector.CurrentSettings{}, false
	s.lastError = nil
	s.failures = 0
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		Paused:              s.paused,
		Log:                 s.log,
		LogVersion:          s.logVersion,
		Active:              s.lists.Active(),
		Inactive:            s.lists.Inactive(),
		Available:           s.lists.Available(),
		Status:              s.status,
		HasStatus:           s.hasStatus,
		Config:              s.config,
		HasConfig:           s.hasConfig,
		Settings:            s.settings,
		HasSettings:         s.hasSettings,
		LastUpdated:         s.lastUpdated,
		ConsecutiveFailures: s.failures,
	}
	v.Status.Channels = cloneChannels(s.status.Channels)
	v.Config.Channels = cloneChannels(s.config.Channels)
	v.Settings.Channels2G = cloneInts(s.settings.Channels2G)
	v.Settings.Channels5G = cloneInts(s.settings.Channels5G)
	if s.lastError != nil {
		v.LastError = fmt.Errorf("%w", s.lastError)
	}
	return v
}

func cloneChannels(in detector.BandChannels) detector.BandChannels {
	return detector.BandChannels{Band2G: cloneInts(in.Band2G), Band5G: cloneInts(in.Band5G)}
}

func cloneInts(in []int) []int {
	if len(in) == 0 {
		return nil
	}
	dup := make([]int, len(in))
	copy(dup, in)
	return dup
}
