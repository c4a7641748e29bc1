// Package fakedetector runs an in-process stand-in for the detector service.
// It keeps just enough state to answer every endpoint the dashboard uses and
// records calls so tests can assert on network traffic.
package fakedetector

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"

	"github.com/ouiwatch/ouiwatch/internal/detector"
)

// Server is a fake detector service backed by httptest.
type Server struct {
	srv *httptest.Server

	mu       sync.Mutex
	devices  []string
	active   []string
	inactive []string
	paused   bool
	status   detector.Status
	config   detector.ServiceConfig
	settings detector.CurrentSettings

	calls   map[string]int
	bodies  map[string][]byte
	headers map[string]http.Header

	failures   map[string]int
	rejects    map[string]string
	holds      map[string]time.Duration
	statusDown int
	restartOff int
}

// New starts a fake service and stops it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		status: detector.Status{
			CycleCount:  1,
			InterfaceUp: true,
			Channels:    detector.BandChannels{Band2G: []int{1, 6, 11}, Band5G: []int{}},
			CaptureTime: 13,
		},
		config: detector.ServiceConfig{
			CaptureTime: 13,
			BandMode:    "2.4GHz",
			Channels:    detector.BandChannels{Band2G: []int{1, 6, 11}, Band5G: []int{}},
		},
		settings: detector.CurrentSettings{
			Interface:   "wlan1",
			CaptureTime: 13,
			Band2G:      true,
			Channels2G:  []int{1, 6, 11},
			Channels5G:  []int{44, 52, 100, 149, 157, 161},
		},
		calls:    make(map[string]int),
		bodies:   make(map[string][]byte),
		headers:  make(map[string]http.Header),
		failures: make(map[string]int),
		rejects:  make(map[string]string),
		holds:    make(map[string]time.Duration),
	}
	s.srv = httptest.NewServer(s.routes())
	tb.Cleanup(s.srv.Close)
	return s
}

// URL is the base address of the fake service.
func (s *Server) URL() string { return s.srv.URL }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Get("/api/devices", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, nonNil(s.devices))
	})
	r.Get("/api/status", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, s.status)
	})
	r.Get("/api/config", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, s.config)
	})
	r.Get("/api/current-settings", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, detector.SettingsResponse{Status: detector.StatusSuccess, Settings: s.settings})
	})
	r.Get("/api/lists-status", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, detector.ListsStatus{Active: nonNil(s.active), Inactive: nonNil(s.inactive)})
	})
	r.Get("/api/lists", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, s.allLists())
	})
	r.Post("/api/toggle-list", s.handleToggle)
	r.Post("/api/create-list", s.handleCreate)
	r.Post("/api/add-device", s.ok)
	r.Post("/api/remove-device", s.ok)
	r.Post("/api/ignore", s.ok)
	r.Post("/api/apply-interface", s.ok)
	r.Post("/api/apply-scan", s.ok)
	r.Get("/api/reset-settings", s.ok)
	r.Post("/api/pause", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.paused = !s.paused
		writeJSON(w, detector.PauseResponse{Paused: s.paused})
	})
	r.Post("/api/clear-log", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.devices = nil
		s.mu.Unlock()
		writeJSON(w, detector.Result{Status: detector.StatusSuccess})
	})
	r.Post("/api/restart", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		s.statusDown = s.restartOff
		s.mu.Unlock()
		writeJSON(w, detector.Result{Status: detector.StatusSuccess})
	})
	return r
}

// record counts calls, keeps the last body per path, and applies injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		path := r.URL.Path
		s.mu.Lock()
		s.calls[path]++
		s.bodies[path] = body
		s.headers[path] = r.Header.Clone()
		code := s.failures[path]
		if path == "/api/status" && s.statusDown > 0 {
			s.statusDown--
			code = http.StatusServiceUnavailable
		}
		reject, rejected := s.rejects[path]
		hold, held := s.holds[path]
		delete(s.holds, path)
		s.mu.Unlock()

		if code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		if rejected {
			writeJSON(w, detector.Result{Status: "error", Message: reject})
			return
		}
		if !held {
			next.ServeHTTP(w, r)
			return
		}

		// The answer reflects state at arrival; only its delivery waits.
		rec := httptest.NewRecorder()
		next.ServeHTTP(rec, r)
		time.Sleep(hold)
		for k, v := range rec.Header() {
			w.Header()[k] = v
		}
		w.WriteHeader(rec.Code)
		_, _ = w.Write(rec.Body.Bytes())
	})
}

func (s *Server) ok(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, detector.Result{Status: detector.StatusSuccess})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req detector.ToggleListRequest
	if err := decode(r, &req); err != nil || req.Name == "" {
		writeJSON(w, detector.Result{Status: "error", Message: "List name required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.allLists()
	s.active = slices.DeleteFunc(s.active, func(n string) bool { return n == req.Name })
	if req.Active {
		s.active = append(s.active, req.Name)
	}
	s.inactive = nil
	for _, name := range all {
		if !slices.Contains(s.active, name) {
			s.inactive = append(s.inactive, name)
		}
	}
	writeJSON(w, detector.Result{Status: detector.StatusSuccess})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil || req.Name == "" {
		writeJSON(w, detector.Result{Status: "error", Message: "List name required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.allLists(), req.Name) {
		writeJSON(w, detector.Result{Status: "error", Message: "List already exists"})
		return
	}
	s.inactive = append(s.inactive, req.Name)
	writeJSON(w, detector.Result{Status: detector.StatusSuccess})
}

func (s *Server) allLists() []string {
	all := append(slices.Clone(s.active), s.inactive...)
	return nonNil(all)
}

// SetDevices replaces the device log served by /api/devices.
func (s *Server) SetDevices(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices = slices.Clone(lines)
}

// SetLists replaces the list partition.
func (s *Server) SetLists(active, inactive []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = slices.Clone(active)
	s.inactive = slices.Clone(inactive)
}

// SetStatus replaces the /api/status payload.
func (s *Server) SetStatus(st detector.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

// SetPaused sets the server-side pause flag.
func (s *Server) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

// Paused reports the server-side pause flag.
func (s *Server) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Fail makes every request to path answer with the given HTTP status.
// A zero code clears the failure.
func (s *Server) Fail(path string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = code
}

// Reject makes path answer {status: "error", message}.
func (s *Server) Reject(path, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejects[path] = message
}

// HoldNext delays delivery of the next response from path by d. The body is
// built when the request arrives, so later state changes are not seen.
func (s *Server) HoldNext(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds[path] = d
}

// StatusDown makes the next n /api/status requests answer 503.
func (s *Server) StatusDown(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusDown = n
}

// RestartDowntime sets how many /api/status requests fail after a restart.
func (s *Server) RestartDowntime(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restartOff = n
}

// Calls returns how many requests hit path.
func (s *Server) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// Body returns the last request body sent to path.
func (s *Server) Body(path string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.bodies[path])
}

// Header returns the headers of the last request sent to path.
func (s *Server) Header(path string) http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers[path].Clone()
}

func decode(r *http.Request, dest any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, dest)
}

func writeJSON(w http.ResponseWriter, v any) {
	payload, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(payload)
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
