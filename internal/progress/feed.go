package progress

import (
	"sync"
	"time"
)

// Emitter accepts events from a background worker.
type Emitter interface {
	Emit(ev any)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ev any)

// Emit calls f(ev).
func (f EmitterFunc) Emit(ev any) { f(ev) }

// Discard drops every event.
var Discard Emitter = EmitterFunc(func(any) {})

// Feed is a channel-backed Emitter. Emit never drops: once the buffer is
// full it blocks until the consumer receives or the feed is closed.
type Feed struct {
	ch     chan any
	closed chan struct{}
	once   sync.Once
}

// NewFeed creates a feed with the given buffer size.
func NewFeed(buffer int) *Feed {
	if buffer < 0 {
		buffer = 0
	}
	return &Feed{
		ch:     make(chan any, buffer),
		closed: make(chan struct{}),
	}
}

// Emit posts ev. Events are stamped with the current time when their
// timestamp is zero. Emit after Close is a no-op.
func (f *Feed) Emit(ev any) {
	if e, ok := ev.(Event); ok && e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
		ev = e
	}
	select {
	case <-f.closed:
		return
	default:
	}
	select {
	case f.ch <- ev:
	case <-f.closed:
	}
}

// C is the receive side of the feed.
func (f *Feed) C() <-chan any { return f.ch }

// Done is closed once the feed is closed.
func (f *Feed) Done() <-chan struct{} { return f.closed }

// Close releases blocked emitters. The data channel stays open so pending
// receives do not observe a spurious zero value.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.closed) })
}

// Recorder keeps every event in memory. Safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []any
}

// Emit appends ev.
func (r *Recorder) Emit(ev any) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any(nil), r.events...)
}
