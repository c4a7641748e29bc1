package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ouiwatch/ouiwatch/internal/fakedetector"
)

// execute runs the root command against a config pointing at fake.
func execute(t *testing.T, fake *fakedetector.Server, args ...string) error {
	t.Helper()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	body := "api_url = \"" + fake.URL() + "\"\nlog_file = \"" + filepath.Join(dir, "ouiwatch.log") + "\"\n"
	if err := os.WriteFile(cfg, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	return rootCmd.ExecuteContext(context.Background())
}

func TestPauseCommandTogglesWithoutRefreshing(t *testing.T) {
	fake := fakedetector.New(t)

	if err := execute(t, fake, "pause"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !fake.Paused() {
		t.Fatalf("service not paused")
	}

	if err := execute(t, fake, "pause"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if fake.Paused() {
		t.Fatalf("service still paused")
	}

	time.Sleep(50 * time.Millisecond)
	if got := fake.Calls("/api/devices"); got != 0 {
		t.Fatalf("device requests = %d, want 0", got)
	}
}

func TestRestartCommandGivesUp(t *testing.T) {
	fake := fakedetector.New(t)
	fake.RestartDowntime(100)

	err := execute(t, fake, "restart", "--attempts", "1")
	if err == nil {
		t.Fatalf("restart error = nil, want give-up failure")
	}
	if got := fake.Calls("/api/restart"); got != 1 {
		t.Fatalf("restart requests = %d, want 1", got)
	}
}
