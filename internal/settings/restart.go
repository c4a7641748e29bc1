package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// RestartState is a step of the restart workflow.
type RestartState int

const (
	StateIdle RestartState = iota
	StateRestarting
	StateReconnecting
	StateSucceeded
	StateGaveUp
)

func (s RestartState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRestarting:
		return "restarting"
	case StateReconnecting:
		return "reconnecting"
	case StateSucceeded:
		return "succeeded"
	case StateGaveUp:
		return "gave up"
	default:
		return fmt.Sprintf("RestartState(%d)", int(s))
	}
}

// Terminal reports whether no further transitions happen without a new run.
func (s RestartState) Terminal() bool {
	return s == StateSucceeded || s == StateGaveUp
}

const (
	DefaultProbeInterval = time.Second
	DefaultMaxAttempts   = 30
)

// ErrRestartInProgress is returned when Run is called during another run.
var ErrRestartInProgress = errors.New("restart already in progress")

// RestartAPI is the part of the detector client the workflow needs.
type RestartAPI interface {
	Restart(ctx context.Context) error
	Probe(ctx context.Context) error
}

// RestartEvent describes one transition or probe.
type RestartEvent struct {
	State   RestartState
	Attempt int
	Err     error
}

// Restarter asks the service to restart and then probes until it answers or
// MaxAttempts probes have failed.
type Restarter struct {
	API         RestartAPI
	Interval    time.Duration
	MaxAttempts int
	Logger      *log.Logger
	// OnEvent, when set, is called synchronously for every transition and
	// every failed probe.
	OnEvent func(RestartEvent)

	mu      sync.Mutex
	state   RestartState
	running bool
}

// State returns the current state.
func (r *Restarter) State() RestartState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Run drives Idle → Restarting → Reconnecting → Succeeded|GaveUp. A rejected
// or failed restart request returns to Idle with the error.
func (r *Restarter) Run(ctx context.Context) (RestartState, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return r.State(), ErrRestartInProgress
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	r.transition(RestartEvent{State: StateRestarting})
	if err := r.API.Restart(ctx); err != nil {
		logger.Error("restart request failed", "err", err)
		r.transition(RestartEvent{State: StateIdle, Err: err})
		return StateIdle, err
	}

	r.transition(RestartEvent{State: StateReconnecting})
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	// The first probe waits one interval like every later one.
	limiter.Allow()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			r.transition(RestartEvent{State: StateIdle, Attempt: attempt - 1, Err: err})
			return StateIdle, fmt.Errorf("reconnect: %w", err)
		}
		err := r.API.Probe(ctx)
		if err == nil {
			logger.Info("service back after restart", "attempts", attempt)
			r.transition(RestartEvent{State: StateSucceeded, Attempt: attempt})
			return StateSucceeded, nil
		}
		logger.Debug("liveness probe failed", "attempt", attempt, "err", err)
		r.emit(RestartEvent{State: StateReconnecting, Attempt: attempt, Err: err})
	}

	logger.Warn("service did not come back after restart", "attempts", maxAttempts)
	r.transition(RestartEvent{State: StateGaveUp, Attempt: maxAttempts})
	return StateGaveUp, nil
}

func (r *Restarter) transition(ev RestartEvent) {
	r.mu.Lock()
	r.state = ev.State
	r.mu.Unlock()
	r.emit(ev)
}

func (r *Restarter) emit(ev RestartEvent) {
	if r.OnEvent != nil {
		r.OnEvent(ev)
	}
}
