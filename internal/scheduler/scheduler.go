package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teacheasy/teacheasy/internal/events"
	"github.com/teacheasy/teacheasy/internal/store"
)

// Store is the part of the catalog the maintenance jobs touch.
type Store interface {
	ExpireDiscounts(ctx context.Context, now time.Time) (int64, error)
	ActivateUpcomingDiscounts(ctx context.Context, now time.Time) (int64, error)
	RollRecurringDeadlines(ctx context.Context, now time.Time) (int64, error)
	GetCatalogStats(ctx context.Context, now time.Time) (*store.CatalogStats, error)
}

// Report summarises one maintenance run.
type Report struct {
	ExpiredDiscounts   int64
	ActivatedDiscounts int64
	RolledDeadlines    int64
	Stats              *store.CatalogStats
	RanAt              time.Time
}

type Scheduler struct {
	store  Store
	events events.Client
	cron   *cron.Cron
	logger *slog.Logger
	now    func() time.Time

	// held for the duration of a run; cron and on-demand runs never overlap
	running sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// guards wg.Add against a concurrent Stop
	mu      sync.Mutex
	stopped bool
}

// New creates a Scheduler running all maintenance jobs on schedule, a
// standard cron expression or descriptor such as "@hourly". ev may be nil.
func New(s Store, ev events.Client, schedule string, logger *slog.Logger) (*Scheduler, error) {
	cl := cronLogger{logger: logger}
	sc := &Scheduler{
		store:  s,
		events: ev,
		logger: logger,
		now:    time.Now,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	sc.ctx, sc.cancel = context.Background(), func() {}

	if _, err := sc.cron.AddFunc(schedule, sc.tick); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	return sc, nil
}

// AddJob registers an extra job on its own schedule. Extra jobs share the
// scheduler's lifetime but not the maintenance lock; cron skips a tick while
// the previous run of the same job is still going.
func (s *Scheduler) AddJob(name, schedule string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(schedule, func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("scheduled job complete", "job", name, "duration", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", name, schedule, err)
	}
	return nil
}

// Start begins the cron schedule and listens for on-demand maintenance
// requests. Jobs run until Stop is called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.events != nil {
		err := s.events.Subscribe(events.SubjectMaintenanceRequest, func(_ string, _ []byte) {
			s.spawn(s.tick)
		})
		if err != nil {
			s.logger.Warn("failed to subscribe to maintenance requests", "error", err)
		}
	}
	s.cron.Start()
}

// Stop halts the schedule and waits for running jobs to finish. Requests
// arriving after Stop begins are dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

// spawn runs fn in a tracked goroutine unless the scheduler is stopping.
func (s *Scheduler) spawn(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
	return true
}

func (s *Scheduler) tick() {
	if !s.running.TryLock() {
		s.logger.Info("maintenance already running, skipping")
		return
	}
	defer s.running.Unlock()

	if _, err := s.run(s.ctx); err != nil {
		s.logger.Error("maintenance run failed", "error", err)
	}
}

// RunOnce runs every maintenance job immediately, waiting for any run in progress.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	s.running.Lock()
	defer s.running.Unlock()
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) (*Report, error) {
	now := s.now()
	rep := &Report{RanAt: now}

	var err error
	if rep.ExpiredDiscounts, err = s.store.ExpireDiscounts(ctx, now); err != nil {
		return nil, fmt.Errorf("expire discounts: %w", err)
	}
	if rep.ActivatedDiscounts, err = s.store.ActivateUpcomingDiscounts(ctx, now); err != nil {
		return nil, fmt.Errorf("activate discounts: %w", err)
	}
	if rep.RolledDeadlines, err = s.store.RollRecurringDeadlines(ctx, now); err != nil {
		return nil, fmt.Errorf("roll deadlines: %w", err)
	}
	if rep.Stats, err = s.store.GetCatalogStats(ctx, now); err != nil {
		return nil, fmt.Errorf("catalog stats: %w", err)
	}

	s.logger.Info("maintenance complete",
		"expired_discounts", rep.ExpiredDiscounts,
		"activated_discounts", rep.ActivatedDiscounts,
		"rolled_deadlines", rep.RolledDeadlines,
	)
	s.publish(rep)
	return rep, nil
}

func (s *Scheduler) publish(rep *Report) {
	if s.events == nil {
		return
	}
	ev := events.MaintenanceStatsEvent{
		ExpiredDiscounts:   rep.ExpiredDiscounts,
		ActivatedDiscounts: rep.ActivatedDiscounts,
		RolledDeadlines:    rep.RolledDeadlines,
		Timestamp:          rep.RanAt,
	}
	if rep.Stats != nil {
		ev.ActiveScholarships = rep.Stats.ActiveScholarships
		ev.ActiveDiscounts = rep.Stats.ActiveDiscounts
		ev.Users = rep.Stats.Users
		ev.Applications = rep.Stats.Applications
	}
	if err := s.events.Publish(events.SubjectMaintenanceStats, ev); err != nil {
		s.logger.Warn("failed to publish maintenance stats", "error", err)
	}
}

// cronLogger adapts slog to the cron.Logger interface.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
