package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	"github.com/robfig/cron/v3"
)

const defaultMaxWorkers = 50

// RiverOption configures a RiverQueue.
type RiverOption func(*riverConfig)

type riverConfig struct {
	logger      *slog.Logger
	queue       string
	maxWorkers  int
	maxAttempts int
	insertOnly  bool
	schedules   []scheduledEvent
}

// WithQueueName sets the River queue events are inserted into and worked from.
// Default: river.QueueDefault.
func WithQueueName(name string) RiverOption {
	return func(c *riverConfig) {
		if name != "" {
			c.queue = name
		}
	}
}

// WithMaxWorkers sets how many events are dispatched concurrently. Default: 50.
func WithMaxWorkers(n int) RiverOption {
	return func(c *riverConfig) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithMaxAttempts bounds retries of a failing event. Default: River's default.
func WithMaxAttempts(n int) RiverOption {
	return func(c *riverConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithRiverLogger sets the logger for the queue and River client.
func WithRiverLogger(l *slog.Logger) RiverOption {
	return func(c *riverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInsertOnly creates a queue that enqueues but never works events,
// for processes that leave delivery to separate workers.
func WithInsertOnly() RiverOption {
	return func(c *riverConfig) {
		c.insertOnly = true
	}
}

// WithSchedule publishes name on a cron schedule through River periodic
// jobs. Only the elected River leader inserts them, so each occurrence fires
// once across all processes sharing the database. Insert-only queues ignore
// schedules.
func WithSchedule(name, schedule string) RiverOption {
	return func(c *riverConfig) {
		c.schedules = append(c.schedules, scheduledEvent{name: name, schedule: schedule})
	}
}

type scheduledEvent struct {
	name     string
	schedule string
}

// RiverQueue is a Postgres-backed Queue. An event is stored as one job per
// listener, so a failing listener is retried alone.
type RiverQueue struct {
	pool   *pgxpool.Pool
	bus    *Bus
	client *river.Client[pgx.Tx]
	cfg    riverConfig

	mu      sync.Mutex
	started bool
}

// NewRiverQueue creates the River client. Events can be enqueued before Start.
func NewRiverQueue(pool *pgxpool.Pool, bus *Bus, opts ...RiverOption) (*RiverQueue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if bus == nil {
		return nil, ErrBusRequired
	}

	cfg := riverConfig{queue: river.QueueDefault, maxWorkers: defaultMaxWorkers}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	q := &RiverQueue{pool: pool, bus: bus, cfg: cfg}

	rc := &river.Config{Logger: cfg.logger, ErrorHandler: &deliveryErrorHandler{logger: cfg.logger}}
	if !cfg.insertOnly {
		periodic, err := q.periodicJobs()
		if err != nil {
			return nil, err
		}
		workers := river.NewWorkers()
		river.AddWorker(workers, &eventWorker{bus: bus, queue: q, logger: cfg.logger})
		rc.Workers = workers
		rc.PeriodicJobs = periodic
		rc.Queues = map[string]river.QueueConfig{
			cfg.queue: {MaxWorkers: cfg.maxWorkers},
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), rc)
	if err != nil {
		return nil, fmt.Errorf("event: create river client: %w", err)
	}
	q.client = client
	return q, nil
}

// Enqueue inserts one job per listener of e, all or none.
func (q *RiverQueue) Enqueue(ctx context.Context, e Event) error {
	params, err := q.deliveries(e)
	if err != nil {
		return err
	}
	if _, err := q.client.InsertMany(ctx, params); err != nil {
		return fmt.Errorf("event: enqueue %s: %w", e.Name, err)
	}
	return nil
}

// EnqueueTx inserts e within tx; the event is delivered only if tx commits.
func (q *RiverQueue) EnqueueTx(ctx context.Context, tx pgx.Tx, e Event) error {
	params, err := q.deliveries(e)
	if err != nil {
		return err
	}
	if _, err := q.client.InsertManyTx(ctx, tx, params); err != nil {
		return fmt.Errorf("event: enqueue %s in tx: %w", e.Name, err)
	}
	return nil
}

// deliveries builds the jobs of e, one per listener ID known to the bus.
func (q *RiverQueue) deliveries(e Event) ([]river.InsertManyParams, error) {
	ids := q.bus.ListenerIDs(e.Name)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoListeners, e.Name)
	}
	opts := q.insertOpts()
	params := make([]river.InsertManyParams, len(ids))
	for i, id := range ids {
		params[i] = river.InsertManyParams{Args: eventArgs{Event: e, Listener: id}, InsertOpts: opts}
	}
	return params, nil
}

func (q *RiverQueue) insertOpts() *river.InsertOpts {
	opts := &river.InsertOpts{Queue: q.cfg.queue}
	if q.cfg.maxAttempts > 0 {
		opts.MaxAttempts = q.cfg.maxAttempts
	}
	return opts
}

// periodicJobs turns the configured schedules into River periodic jobs.
// Each firing inserts a fan-out job carrying a fresh event.
func (q *RiverQueue) periodicJobs() ([]*river.PeriodicJob, error) {
	jobs := make([]*river.PeriodicJob, 0, len(q.cfg.schedules))
	for _, s := range q.cfg.schedules {
		sched, err := parseSchedule(s.name, s.schedule)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s.name) == "" {
			return nil, ErrEmptyName
		}
		name := s.name
		jobs = append(jobs, river.NewPeriodicJob(
			&cronScheduleAdapter{schedule: sched},
			func() (river.JobArgs, *river.InsertOpts) {
				return scheduledArgs(name), q.insertOpts()
			},
			&river.PeriodicJobOpts{ID: "anvil:event:" + name},
		))
	}
	return jobs, nil
}

// scheduledArgs is the fan-out job of one scheduled occurrence of name.
func scheduledArgs(name string) eventArgs {
	e, _ := New(name, nil)
	return eventArgs{Event: e}
}

type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

// Start begins working queued events. Insert-only queues start as a no-op.
func (q *RiverQueue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return ErrAlreadyStarted
	}
	if !q.cfg.insertOnly {
		if err := q.client.Start(ctx); err != nil {
			return fmt.Errorf("event: start river client: %w", err)
		}
	}
	q.started = true
	q.cfg.logger.Info("event queue started", slog.String("queue", q.cfg.queue))
	return nil
}

// Stop waits for running events to finish.
func (q *RiverQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return ErrNotStarted
	}
	if !q.cfg.insertOnly {
		if err := q.client.Stop(ctx); err != nil {
			return fmt.Errorf("event: stop river client: %w", err)
		}
	}
	q.started = false
	q.cfg.logger.Info("event queue stopped")
	return nil
}

// Healthcheck reports whether q is started and its database reachable.
func Healthcheck(q *RiverQueue) func(context.Context) error {
	return func(ctx context.Context) error {
		if q == nil {
			return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
		}

		q.mu.Lock()
		started := q.started
		q.mu.Unlock()

		if !started {
			return errors.Join(ErrHealthcheckFailed, ErrNotStarted)
		}
		if err := q.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// eventArgs is the single River job kind carrying an event. Listener names
// the one listener the job delivers to; an empty Listener fans the event out
// into one job per listener.
type eventArgs struct {
	Event    Event  `json:"event"`
	Listener string `json:"listener,omitempty"`
}

func (eventArgs) Kind() string { return "anvil:event" }

type eventWorker struct {
	river.WorkerDefaults[eventArgs]
	bus    *Bus
	queue  Queue
	logger *slog.Logger
}

func (w *eventWorker) Work(ctx context.Context, job *river.Job[eventArgs]) error {
	e, id := job.Args.Event, job.Args.Listener
	w.logger.DebugContext(ctx, "delivering queued event",
		slog.String("event", e.Name),
		slog.String("event_id", e.ID),
		slog.String("listener", id),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	var err error
	if id == "" {
		err = w.queue.Enqueue(ctx, e)
	} else {
		err = w.bus.Deliver(ctx, e, id)
	}
	if errors.Is(err, ErrNoListeners) || errors.Is(err, ErrUnknownListener) {
		// Retrying cannot add listeners to this process.
		return river.JobCancel(err)
	}
	return err
}

// deliveryErrorHandler logs failed deliveries. The last failed attempt is
// logged above error level since the event is dropped.
type deliveryErrorHandler struct {
	logger *slog.Logger
}

func (h *deliveryErrorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.log(ctx, job, "event delivery failed", slog.Any("error", err))
	return nil
}

func (h *deliveryErrorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	h.log(ctx, job, "event listener panicked",
		slog.Any("panic", panicVal),
		slog.String("stack", trace),
	)
	return nil
}

func (h *deliveryErrorHandler) log(ctx context.Context, job *rivertype.JobRow, msg string, attrs ...any) {
	var args eventArgs
	_ = json.Unmarshal(job.EncodedArgs, &args)

	level := slog.LevelWarn
	if job.Attempt >= job.MaxAttempts {
		level = slog.LevelError + 4
		msg += ", event dropped"
	}
	h.logger.Log(ctx, level, msg, append([]any{
		slog.String("event", args.Event.Name),
		slog.String("event_id", args.Event.ID),
		slog.String("listener", args.Listener),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
		slog.Int("max_attempts", job.MaxAttempts),
	}, attrs...)...)
}
