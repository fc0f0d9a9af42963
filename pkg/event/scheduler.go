package event

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerLogger sets the scheduler logger. Default: discard.
func WithSchedulerLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// Scheduler publishes payload-less events on in-process cron schedules.
// Every process running a Scheduler fires every schedule; RiverQueue's
// WithSchedule fires once per occurrence across processes.
// Schedules use the standard 5-field syntax plus @every and @hourly style descriptors.
type Scheduler struct {
	bus     *Bus
	cron    *cron.Cron
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	entries map[string]cron.EntryID
	mu      sync.Mutex
	started bool
}

// NewScheduler creates a stopped scheduler publishing on bus.
func NewScheduler(bus *Bus, opts ...SchedulerOption) *Scheduler {
	if bus == nil {
		panic("event: scheduler needs a bus")
	}
	s := &Scheduler{
		bus:     bus,
		cron:    cron.New(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add schedules name. Adding a name again replaces its schedule.
func (s *Scheduler) Add(name, schedule string) error {
	sched, err := parseSchedule(name, schedule)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}
	s.entries[name] = s.cron.Schedule(sched, cron.FuncJob(func() { s.fire(name) }))
	return nil
}

// Names returns the scheduled event names.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for n := range s.entries {
		names = append(names, n)
	}
	return names
}

// Start runs the schedule until Stop. ctx is passed to listeners.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.cron.Start()
	s.started = true
	s.logger.Info("event scheduler started", slog.Int("events", len(s.entries)))
	return nil
}

// Stop stops scheduling and waits for running dispatches or ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
	s.cancel()
	s.logger.Info("event scheduler stopped")
	return nil
}

// parseSchedule accepts the standard 5-field syntax and descriptors such as
// @hourly and @every 5m.
func parseSchedule(name, schedule string) (cron.Schedule, error) {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q: %v", ErrInvalidSchedule, name, schedule, err)
	}
	return sched, nil
}

func (s *Scheduler) fire(name string) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	e, err := New(name, nil)
	if err != nil {
		s.logger.Error("scheduled event rejected", slog.String("event", name), slog.Any("error", err))
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "scheduled event failed",
			slog.String("event", name),
			slog.String("event_id", e.ID),
			slog.Any("error", err),
		)
	}
}
