package dispatch

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/tsl0922/mpv-menu-plugin/log"
	"github.com/tsl0922/mpv-menu-plugin/pkg"
)

// Task is a unit of work executed by the queue consumer.
type Task func(ctx context.Context)

// Executor runs a host command string.
type Executor interface {
	CommandString(ctx context.Context, cmd string) error
}

// Option configures a [Queue].
type Option func(*Queue)

// WithLogger sets the queue's logger.
func WithLogger(logger log.Logger) Option {
	return func(q *Queue) { q.log = logger }
}

// WithMeter records queue counters through m instead of the global meter
// provider.
func WithMeter(m metric.Meter) Option {
	return func(q *Queue) { q.meter = m }
}

type counters struct {
	enqueued metric.Int64Counter
	executed metric.Int64Counter
	dropped  metric.Int64Counter
}

// Queue is a mutex-guarded FIFO of tasks with a wake signal. It is safe
// for concurrent use. The zero value is not usable; call [New].
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool

	wake chan struct{}
	done chan struct{}

	log   log.Logger
	meter metric.Meter
	count counters
}

// New returns an open Queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(q)
	}

	if q.meter == nil {
		q.meter = otel.Meter(pkg.Name + "/dispatch")
	}

	q.count = newCounters(q.meter, q.log)

	return q
}

func newCounters(m metric.Meter, logger log.Logger) counters {
	fallback := noop.NewMeterProvider().Meter("")

	counter := func(name, desc string) metric.Int64Counter {
		c, err := m.Int64Counter(name,
			metric.WithDescription(desc),
			metric.WithUnit("{task}"),
		)
		if err != nil {
			logger.Warn("create counter", slog.String("name", name), slog.Any("error", err))
			c, _ = fallback.Int64Counter(name)
		}

		return c
	}

	return counters{
		enqueued: counter("dispatch.enqueued", "Tasks accepted by the queue"),
		executed: counter("dispatch.executed", "Tasks run by the consumer"),
		dropped:  counter("dispatch.dropped", "Tasks rejected or discarded"),
	}
}

// Enqueue appends fn and wakes the consumer. It reports false, without
// running fn, once the queue is closed.
func (q *Queue) Enqueue(fn Task) bool {
	if fn == nil {
		return false
	}

	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()
		q.count.dropped.Add(context.Background(), 1)
		q.log.Trace("enqueue after close")

		return false
	}

	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()

	q.count.enqueued.Add(context.Background(), 1)

	select {
	case q.wake <- struct{}{}:
	default:
	}

	return true
}

// EnqueueCommand enqueues a task running cmd through exec. Command
// failures are logged.
func (q *Queue) EnqueueCommand(exec Executor, cmd string) bool {
	return q.Enqueue(func(ctx context.Context) {
		if err := exec.CommandString(ctx, cmd); err != nil {
			q.log.WarnContext(ctx, "command failed",
				slog.String("cmd", cmd),
				slog.Any("error", err))
		}
	})
}

// Wake signals after tasks are added. It is meant for consumers that
// call [Queue.Drain] from their own loop instead of [Queue.Run].
func (q *Queue) Wake() <-chan struct{} { return q.wake }

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

func (q *Queue) pop() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	fn := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]

	return fn, true
}

// Drain runs pending tasks in order until the queue is empty and returns
// how many ran. It never blocks waiting for new work. Tasks enqueued while
// draining run in the same call.
func (q *Queue) Drain(ctx context.Context) int {
	n := 0

	for ctx.Err() == nil {
		fn, ok := q.pop()
		if !ok {
			break
		}

		fn(ctx)
		n++

		q.count.executed.Add(ctx, 1)
	}

	return n
}

// Run consumes tasks until the queue is closed and empty, or ctx is done.
// It returns ctx.Err() on cancellation and nil after Close.
func (q *Queue) Run(ctx context.Context) error {
	for {
		q.Drain(ctx)

		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.wake:
		case <-q.done:
			q.Drain(ctx)

			return nil
		}
	}
}

// Close stops accepting tasks. With discard, pending tasks are dropped;
// otherwise a running consumer finishes them first. Close is idempotent.
func (q *Queue) Close(discard bool) {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return
	}

	q.closed = true

	var dropped int
	if discard {
		dropped = len(q.tasks)
		clear(q.tasks)
		q.tasks = nil
	}

	q.mu.Unlock()

	close(q.done)

	if dropped > 0 {
		q.count.dropped.Add(context.Background(), int64(dropped))
		q.log.Debug("queue closed", slog.Int("dropped", dropped))
	}
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

// Err returns [pkg.ErrClosed] once the queue is closed, nil before.
func (q *Queue) Err() error {
	if q.Closed() {
		return pkg.ErrClosed.With(slog.String("component", "dispatch"))
	}

	return nil
}
