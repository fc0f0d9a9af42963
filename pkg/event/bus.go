package event

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"slices"
	"strconv"
	"sync"
)

// Listener handles one event.
type Listener func(ctx context.Context, e Event) error

// Queue defers event delivery to a background worker.
type Queue interface {
	Enqueue(ctx context.Context, e Event) error
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the bus logger. Default: discard.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithQueue sets the queue used by Publish for async events.
func WithQueue(q Queue) BusOption {
	return func(b *Bus) {
		b.queue = q
	}
}

type subscription struct {
	id string
	fn Listener
}

// Bus routes events to listeners by name.
type Bus struct {
	listeners map[string][]subscription
	async     map[string]bool
	queue     Queue
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewBus creates an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		listeners: make(map[string][]subscription),
		async:     make(map[string]bool),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe appends l to the listeners of name under the ID "#<position>".
func (b *Bus) Subscribe(name string, l Listener) {
	if l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := "#" + strconv.Itoa(len(b.listeners[name]))
	b.listeners[name] = append(b.listeners[name], subscription{id: id, fn: l})
}

// SubscribeAs appends l to the listeners of name under id.
// Queued deliveries address listeners by ID, so it must be stable across
// processes. An ID is unique per event name.
func (b *Bus) SubscribeAs(name, id string, l Listener) error {
	if l == nil {
		return nil
	}
	if id == "" {
		return ErrEmptyListenerID
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range b.listeners[name] {
		if s.id == id {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateListener, name, id)
		}
	}
	b.listeners[name] = append(b.listeners[name], subscription{id: id, fn: l})
	return nil
}

// ListenerIDs returns the listener IDs of name in subscription order.
func (b *Bus) ListenerIDs(name string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ids := make([]string, len(b.listeners[name]))
	for i, s := range b.listeners[name] {
		ids[i] = s.id
	}
	return ids
}

// MarkAsync makes Publish enqueue events with the given names.
func (b *Bus) MarkAsync(names ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range names {
		b.async[n] = true
	}
}

// UseQueue sets the queue after construction. Queues that dispatch back
// into the bus need the bus first, so they are attached here.
func (b *Bus) UseQueue(q Queue) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = q
}

// Has reports whether name has at least one listener.
func (b *Bus) Has(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name]) > 0
}

// IsAsync reports whether name is published through the queue.
func (b *Bus) IsAsync(name string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.async[name]
}

// Dispatch runs every listener of e.Name in subscription order.
// All listeners run even when some fail; their errors are joined.
// A panicking listener is reported as ErrListenerPanic.
func (b *Bus) Dispatch(ctx context.Context, e Event) error {
	b.mu.RLock()
	subs := slices.Clone(b.listeners[e.Name])
	b.mu.RUnlock()

	if len(subs) == 0 {
		return fmt.Errorf("%w: %s", ErrNoListeners, e.Name)
	}

	var errs []error
	for _, s := range subs {
		if err := b.run(ctx, s, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Deliver runs only the listener id of e.Name.
func (b *Bus) Deliver(ctx context.Context, e Event, id string) error {
	b.mu.RLock()
	i := slices.IndexFunc(b.listeners[e.Name], func(s subscription) bool { return s.id == id })
	var s subscription
	if i >= 0 {
		s = b.listeners[e.Name][i]
	}
	b.mu.RUnlock()

	if i < 0 {
		return fmt.Errorf("%w: %s/%s", ErrUnknownListener, e.Name, id)
	}
	return b.run(ctx, s, e)
}

func (b *Bus) run(ctx context.Context, s subscription, e Event) error {
	err := b.call(ctx, s.fn, e)
	if err != nil {
		b.logger.ErrorContext(ctx, "event listener failed",
			slog.String("event", e.Name),
			slog.String("event_id", e.ID),
			slog.String("listener", s.id),
			slog.Any("error", err),
		)
	}
	return err
}

// Publish enqueues e when its name is async and a queue is set,
// otherwise it dispatches e synchronously.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	q, async := b.queue, b.async[e.Name]
	b.mu.RUnlock()

	if async && q != nil {
		return q.Enqueue(ctx, e)
	}
	return b.Dispatch(ctx, e)
}

func (b *Bus) call(ctx context.Context, l Listener, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.ErrorContext(ctx, "event listener panicked",
				slog.String("event", e.Name),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: %v", ErrListenerPanic, r)
		}
	}()
	return l(ctx, e)
}
