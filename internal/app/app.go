package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/ouiwatch/ouiwatch/internal/config"
	"github.com/ouiwatch/ouiwatch/internal/detector"
	"github.com/ouiwatch/ouiwatch/internal/monitor"
	"github.com/ouiwatch/ouiwatch/internal/prefs"
	"github.com/ouiwatch/ouiwatch/internal/ui"
)

// shutdownTimeout bounds the pause request sent on exit.
const shutdownTimeout = time.Second

var _ ui.Controller = (*Actions)(nil)

// Options configure the ouiwatch application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses ~/.config/ouiwatch/prefs.toml
	Poll       time.Duration // overrides the device and status periods when > 0
	Verbose    bool
}

// Services holds everything the dashboard and the headless commands share.
type Services struct {
	Config    config.Config
	Logger    *log.Logger
	Client    *detector.Client
	Store     *monitor.Store
	Notices   *monitor.Notices
	Scheduler *Scheduler
	Actions   *Actions

	logFile io.Closer
}

// Setup loads configuration and wires the client, store, scheduler, and
// actions together. Close releases the log file.
func Setup(opts Options) (*Services, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg = cfg.WithPoll(opts.Poll)

	logger, logFile, err := NewLogger(cfg.LogFile, opts.Verbose)
	if err != nil {
		return nil, err
	}

	client, err := detector.NewClient(cfg.APIURL,
		detector.WithTimeout(cfg.RequestTimeout),
		detector.WithLogger(logger.WithPrefix("api")),
	)
	if err != nil {
		_ = logFile.Close()
		return nil, fmt.Errorf("init detector client: %w", err)
	}

	store := &monitor.Store{}
	notices := monitor.NewNotices(monitor.DefaultNoticeTTL)
	scheduler := NewScheduler(client, store, notices, logger.WithPrefix("scheduler"), Periods{
		Devices: cfg.DevicePoll,
		Status:  cfg.StatusPoll,
		Lists:   cfg.ListsPoll,
		Config:  cfg.ConfigPoll,
	})
	actions := NewActions(client, store, notices, scheduler, logger.WithPrefix("actions"))

	logger.Info("configured", "api", client.BaseURL(), "periods", fmt.Sprintf("%+v", scheduler.Periods()))

	return &Services{
		Config:    cfg,
		Logger:    logger,
		Client:    client,
		Store:     store,
		Notices:   notices,
		Scheduler: scheduler,
		Actions:   actions,
		logFile:   logFile,
	}, nil
}

// Close stops the notice cache and closes the log file.
func (s *Services) Close() error {
	if s == nil {
		return nil
	}
	if s.Notices != nil {
		s.Notices.Close()
	}
	if s.logFile == nil {
		return nil
	}
	return s.logFile.Close()
}

// Run boots the dashboard until the user quits or ctx is cancelled. On the
// way out the service is paused unless it already is.
func Run(ctx context.Context, opts Options) error {
	svc, err := Setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := ui.NewProgram(ui.Options{
		Context:    runCtx,
		Controller: svc.Actions,
		Store:      svc.Store,
		Notices:    svc.Notices,
		Prefs:      prefs.Load(opts.PrefsPath),
		PrefsPath:  opts.PrefsPath,
	})
	svc.Scheduler.OnUpdate = func(res monitor.Resource) {
		program.Send(ui.StoreUpdatedMsg{Resource: res})
	}

	done := make(chan error, 1)
	go func() { done <- svc.Scheduler.Run(runCtx) }()

	_, err = program.Run()
	cancel()
	if schedErr := <-done; schedErr != nil {
		svc.Logger.Error("scheduler stopped", "err", schedErr)
	}
	svc.Actions.Shutdown(shutdownTimeout)

	if err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("run dashboard: %w", err)
	}
	svc.Logger.Info("exited")
	return nil
}
