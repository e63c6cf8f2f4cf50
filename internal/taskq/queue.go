// Package taskq runs user actions one at a time on a single worker goroutine.
//
// Every action the UI triggers (scan, connect, read, write, disconnect) is
// submitted as a Task. Tasks run in submission order; a task never starts
// while another is in flight, so two actions can never race on the same
// connection. Lifecycle transitions are posted as progress.Event values.
package taskq

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"blescope/internal/progress"
	"blescope/internal/telemetry"
)

var (
	// ErrQueueFull is returned by Submit when the pending queue is at capacity.
	ErrQueueFull = errors.New("task queue is full")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("task queue is closed")
)

// DefaultDepth is the number of tasks that may wait behind the running one.
const DefaultDepth = 4

// Func is the body of a task. ctx is cancelled by CancelCurrent or Close.
type Func func(ctx context.Context) error

type task struct {
	id   string
	name string
	fn   Func
}

// Queue is a bounded FIFO with exactly one worker.
type Queue struct {
	emit   progress.Emitter
	logger *slog.Logger

	pending chan task
	stop    chan struct{}
	wg      sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	current  string
	cancel   context.CancelFunc
	entropy  *ulid.MonotonicEntropy
	baseCtx  context.Context
	stopBase context.CancelFunc
}

// New starts a queue whose worker posts lifecycle events to emit.
// depth <= 0 selects DefaultDepth. logger may be nil.
func New(depth int, emit progress.Emitter, logger *slog.Logger) *Queue {
	if depth <= 0 {
		depth = DefaultDepth
	}
	if emit == nil {
		emit = progress.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base, stopBase := context.WithCancel(context.Background())
	q := &Queue{
		emit:     emit,
		logger:   logger,
		pending:  make(chan task, depth),
		stop:     make(chan struct{}),
		entropy:  ulid.Monotonic(rand.Reader, 0),
		baseCtx:  base,
		stopBase: stopBase,
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Submit enqueues fn under a human-readable name and returns its task ID.
// It never blocks.
func (q *Queue) Submit(name string, fn Func) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", ErrClosed
	}
	id := ulid.MustNew(ulid.Timestamp(time.Now()), q.entropy).String()
	t := task{id: id, name: name, fn: fn}
	select {
	case q.pending <- t:
	default:
		q.logger.Warn("task rejected", "task", name, "reason", "queue full")
		return "", fmt.Errorf("%s: %w", name, ErrQueueFull)
	}
	q.logger.Debug("task queued", "task", name, "id", id)
	return id, nil
}

// CancelCurrent cancels the running task, if any, and reports whether one was running.
func (q *Queue) CancelCurrent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancel == nil {
		return false
	}
	q.logger.Info("task cancel requested", "id", q.current)
	q.cancel()
	return true
}

// Busy reports whether a task is running.
func (q *Queue) Busy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current != ""
}

// Pending is the number of tasks waiting to run.
func (q *Queue) Pending() int {
	return len(q.pending)
}

// Close cancels the running task, discards queued ones as aborted and waits
// for the worker to exit. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.stopBase()
	close(q.stop)
	q.mu.Unlock()
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case <-q.stop:
			q.drain()
			return
		default:
		}
		select {
		case <-q.stop:
			q.drain()
			return
		case t := <-q.pending:
			q.execute(t)
		}
	}
}

func (q *Queue) drain() {
	for {
		select {
		case t := <-q.pending:
			q.post(t, progress.StatusAborted, "discarded on shutdown", nil)
		default:
			return
		}
	}
}

func (q *Queue) execute(t task) {
	if q.baseCtx.Err() != nil {
		q.post(t, progress.StatusAborted, "discarded on shutdown", nil)
		return
	}
	ctx, cancel := context.WithCancel(telemetry.WithTaskID(q.baseCtx, t.id))
	q.mu.Lock()
	q.current = t.id
	q.cancel = cancel
	q.mu.Unlock()

	q.post(t, progress.StatusRunning, t.name+" started", nil)
	start := time.Now()
	err := q.safeCall(ctx, t)
	elapsed := time.Since(start)

	q.mu.Lock()
	q.current = ""
	q.cancel = nil
	q.mu.Unlock()
	aborted := ctx.Err() != nil
	cancel()

	switch {
	case err == nil:
		q.logger.Info("task done", "task", t.name, "id", t.id, "elapsed", elapsed)
		q.post(t, progress.StatusDone, t.name+" finished", nil)
	case aborted && errors.Is(err, context.Canceled):
		q.logger.Info("task aborted", "task", t.name, "id", t.id, "elapsed", elapsed)
		q.post(t, progress.StatusAborted, t.name+" cancelled", err)
	default:
		q.logger.Error("task failed", "task", t.name, "id", t.id, "elapsed", elapsed, "error", err)
		q.post(t, progress.StatusError, t.name+" failed", err)
	}
}

// safeCall turns a panicking task into an error so the worker survives.
func (q *Queue) safeCall(ctx context.Context, t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", t.name, r)
		}
	}()
	return t.fn(ctx)
}

func (q *Queue) post(t task, status progress.Status, msg string, err error) {
	q.emit.Emit(progress.Event{
		TaskID:  t.id,
		Task:    t.name,
		Message: msg,
		Status:  status,
		Err:     err,
	})
}
