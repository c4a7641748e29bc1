package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ouiwatch/ouiwatch/internal/detector"
	"github.com/ouiwatch/ouiwatch/internal/monitor"
)

// Periods sets how often each resource is refreshed.
type Periods struct {
	Devices time.Duration
	Status  time.Duration
	Lists   time.Duration
	Config  time.Duration
}

// DefaultPeriods are the refresh periods used when none are configured.
var DefaultPeriods = Periods{
	Devices: 2 * time.Second,
	Status:  2 * time.Second,
	Lists:   30 * time.Second,
	Config:  30 * time.Second,
}

func (p Periods) withDefaults() Periods {
	if p.Devices <= 0 {
		p.Devices = DefaultPeriods.Devices
	}
	if p.Status <= 0 {
		p.Status = DefaultPeriods.Status
	}
	if p.Lists <= 0 {
		p.Lists = DefaultPeriods.Lists
	}
	if p.Config <= 0 {
		p.Config = DefaultPeriods.Config
	}
	return p
}

// Resources lists every periodically refreshed resource.
var Resources = []monitor.Resource{
	monitor.ResourceDevices,
	monitor.ResourceStatus,
	monitor.ResourceLists,
	monitor.ResourceConfig,
}

// Scheduler keeps the store in step with the service. Each resource has its
// own loop; a failure in one refresh is logged and noticed but never stops
// that loop or any other.
type Scheduler struct {
	api     detector.API
	store   *monitor.Store
	notices *monitor.Notices
	logger  *log.Logger
	periods Periods

	// OnUpdate is called after a refresh changes the store or fails.
	OnUpdate func(monitor.Resource)

	// mu orders inflight.Add against the final inflight.Wait in Run.
	mu       sync.Mutex
	base     context.Context
	stopped  bool
	inflight sync.WaitGroup
}

// NewScheduler builds a Scheduler. A nil logger discards output.
func NewScheduler(api detector.API, store *monitor.Store, notices *monitor.Notices, logger *log.Logger, periods Periods) *Scheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Scheduler{
		api:     api,
		store:   store,
		notices: notices,
		logger:  logger,
		periods: periods.withDefaults(),
		base:    context.Background(),
	}
}

// Periods returns the effective refresh periods.
func (s *Scheduler) Periods() Periods { return s.periods }

// Run refreshes every resource once and then on its period until ctx is
// cancelled. Ticks never wait for earlier refreshes, so requests for the same
// resource may overlap and the last to finish wins.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.base = ctx
	s.stopped = false
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, res := range Resources {
		res := res
		every := s.period(res)
		g.Go(func() error {
			s.loop(gctx, res, every)
			return nil
		})
	}
	err := g.Wait()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	s.inflight.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Scheduler) loop(ctx context.Context, res monitor.Resource, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		s.spawn(ctx, res)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Trigger refreshes res now, outside its period, without waiting.
func (s *Scheduler) Trigger(resources ...monitor.Resource) {
	s.mu.Lock()
	ctx := s.base
	s.mu.Unlock()
	for _, res := range resources {
		s.spawn(ctx, res)
	}
}

// Reload forgets local state and refetches everything.
func (s *Scheduler) Reload() {
	s.logger.Info("reloading all resources")
	s.store.Reset()
	s.Trigger(Resources...)
}

// spawn starts one refresh unless ctx is done or Run has finished.
func (s *Scheduler) spawn(ctx context.Context, res monitor.Resource) {
	s.mu.Lock()
	if s.stopped || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.inflight.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.inflight.Done()
		_ = s.Refresh(ctx, res)
	}()
}

// Refresh performs one refresh of res. Failures are logged, recorded as a
// notice, and returned.
func (s *Scheduler) Refresh(ctx context.Context, res monitor.Resource) error {
	var (
		changed bool
		err     error
	)
	switch res {
	case monitor.ResourceDevices:
		changed, err = s.refreshDevices(ctx)
	case monitor.ResourceStatus:
		changed, err = s.refreshStatus(ctx)
	case monitor.ResourceLists:
		changed, err = s.refreshLists(ctx)
	case monitor.ResourceConfig:
		changed, err = s.refreshConfig(ctx)
	default:
		s.logger.Warn("unknown resource", "resource", res)
		return nil
	}

	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		s.logger.Error("refresh failed", "resource", res, "err", err)
		s.notices.Post(monitor.NoticeError, detector.UserMessage(err, failureText[res]))
		s.notify(res)
		return err
	}
	if changed {
		s.notify(res)
	}
	return nil
}

var failureText = map[monitor.Resource]string{
	monitor.ResourceDevices: "Failed to update device list",
	monitor.ResourceStatus:  "Failed to update status",
	monitor.ResourceLists:   "Failed to fetch list status",
	monitor.ResourceConfig:  "Failed to load configuration",
}

// refreshDevices makes no request while the service is paused.
func (s *Scheduler) refreshDevices(ctx context.Context) (bool, error) {
	if s.store.Paused() {
		return false, nil
	}
	lines, err := s.api.FetchDevices(ctx)
	if err != nil {
		return false, err
	}
	return s.store.ApplyDevices(lines), nil
}

func (s *Scheduler) refreshStatus(ctx context.Context) (bool, error) {
	status, err := s.api.FetchStatus(ctx)
	s.store.UpdateStatus(status, err)
	return err == nil, err
}

func (s *Scheduler) refreshLists(ctx context.Context) (bool, error) {
	membership, err := s.api.FetchListsStatus(ctx)
	if err != nil {
		return false, err
	}
	s.store.ReconcileLists(membership.Active, membership.Inactive)

	names, err := s.api.FetchLists(ctx)
	if err != nil {
		return true, err
	}
	s.store.SetAvailableLists(names)
	return true, nil
}

func (s *Scheduler) refreshConfig(ctx context.Context) (bool, error) {
	cfg, err := s.api.FetchConfig(ctx)
	if err != nil {
		return false, err
	}
	s.store.SetConfig(*cfg)

	current, err := s.api.FetchSettings(ctx)
	if err != nil {
		return true, err
	}
	s.store.SetSettings(*current)
	return true, nil
}

func (s *Scheduler) period(res monitor.Resource) time.Duration {
	switch res {
	case monitor.ResourceDevices:
		return s.periods.Devices
	case monitor.ResourceStatus:
		return s.periods.Status
	case monitor.ResourceLists:
		return s.periods.Lists
	default:
		return s.periods.Config
	}
}

func (s *Scheduler) notify(res monitor.Resource) {
	if s.OnUpdate != nil {
		s.OnUpdate(res)
	}
}
