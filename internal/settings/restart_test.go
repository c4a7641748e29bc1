package settings

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeRestartAPI struct {
	mu          sync.Mutex
	restartErr  error
	failProbes  int // liveness checks that fail before one succeeds; <0 never succeeds
	probes      int
	probeTimes  []time.Time
	restartCall int
}

func (f *fakeRestartAPI) Restart(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restartCall++
	return f.restartErr
}

func (f *fakeRestartAPI) Probe(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	f.probeTimes = append(f.probeTimes, time.Now())
	if f.failProbes < 0 || f.probes <= f.failProbes {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeRestartAPI) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

func TestRestarter_GivesUpAfterMaxAttempts(t *testing.T) {
	api := &fakeRestartAPI{failProbes: -1}
	var states []RestartState
	r := &Restarter{
		API:      api,
		Interval: time.Millisecond,
		OnEvent: func(ev RestartEvent) {
			if len(states) == 0 || states[len(states)-1] != ev.State {
				states = append(states, ev.State)
			}
		},
	}

	got, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got != StateGaveUp || r.State() != StateGaveUp {
		t.Fatalf("Run = %v, want %v", got, StateGaveUp)
	}
	if n := api.probeCount(); n != DefaultMaxAttempts {
		t.Fatalf("probes = %d, want %d", n, DefaultMaxAttempts)
	}

	// No probing continues after the terminal transition.
	time.Sleep(20 * time.Millisecond)
	if n := api.probeCount(); n != DefaultMaxAttempts {
		t.Fatalf("probes after give up = %d, want %d", n, DefaultMaxAttempts)
	}

	want := []RestartState{StateRestarting, StateReconnecting, StateGaveUp}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("states = %v, want %v", states, want)
		}
	}
}

func TestRestarter_SucceedsOnFirstGoodCheck(t *testing.T) {
	api := &fakeRestartAPI{failProbes: 3}
	r := &Restarter{API: api, Interval: time.Millisecond}

	got, err := r.Run(context.Background())
	if err != nil || got != StateSucceeded {
		t.Fatalf("Run = %v, %v; want succeeded", got, err)
	}
	if n := api.probeCount(); n != 4 {
		t.Fatalf("probes = %d, want 4", n)
	}
	if !got.Terminal() {
		t.Fatalf("Succeeded should be terminal")
	}
}

func TestRestarter_ChecksAreSpaced(t *testing.T) {
	api := &fakeRestartAPI{failProbes: 3}
	interval := 20 * time.Millisecond
	r := &Restarter{API: api, Interval: interval, MaxAttempts: 5}

	start := time.Now()
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 3*interval {
		t.Fatalf("4 probes finished in %v, want >= %v", elapsed, 3*interval)
	}
}

func TestRestarter_RestartRejected(t *testing.T) {
	api := &fakeRestartAPI{restartErr: errors.New("busy")}
	r := &Restarter{API: api, Interval: time.Millisecond}

	got, err := r.Run(context.Background())
	if err == nil || got != StateIdle {
		t.Fatalf("Run = %v, %v; want idle with error", got, err)
	}
	if n := api.probeCount(); n != 0 {
		t.Fatalf("probes = %d, want 0 after rejected restart", n)
	}
}

func TestRestarter_ContextCancelStopsProbing(t *testing.T) {
	api := &fakeRestartAPI{failProbes: -1}
	r := &Restarter{API: api, Interval: time.Hour}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	got, err := r.Run(ctx)
	if err == nil || got != StateIdle {
		t.Fatalf("Run = %v, %v; want idle with context error", got, err)
	}
	if n := api.probeCount(); n != 0 {
		t.Fatalf("probes = %d, want 0", n)
	}
}
