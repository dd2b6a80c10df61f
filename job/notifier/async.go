package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
)

// DefaultBufferSize is the event buffer of an Async notifier
const DefaultBufferSize = 1024

// Async decouples a slow notifier from the caller. Events are buffered and
// delivered in order by one goroutine; when the buffer is full the event is
// dropped and counted.
type Async struct {
	next    Notifier
	timeout time.Duration
	events  chan *structs.Event

	mu      sync.RWMutex
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsync wraps next. timeout bounds each delivery; 0 means no bound.
func NewAsync(next Notifier, buffer int, timeout time.Duration) *Async {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	a := &Async{
		next:    next,
		timeout: timeout,
		events:  make(chan *structs.Event, buffer),
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Notify(ctx context.Context, event *structs.Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}
	select {
	case a.events <- event:
	default:
		a.dropped.Add(1)
		logger.Warn(ctx, "notifier buffer full, dropping event", "event", event.Type, "job_id", jobID(event))
	}
	return nil
}

func (a *Async) run() {
	defer close(a.done)
	for event := range a.events {
		a.deliver(event)
	}
}

func (a *Async) deliver(event *structs.Event) {
	ctx := context.Background()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			a.failed.Add(1)
			logger.Errorf(ctx, "panic in job event sink: %v", r)
		}
	}()

	if err := a.next.Notify(ctx, event); err != nil {
		a.failed.Add(1)
		logger.Warn(ctx, "failed to deliver job event", "event", event.Type, "job_id", jobID(event), "error", err)
	}
}

// Dropped returns the number of events dropped on a full buffer
func (a *Async) Dropped() int64 { return a.dropped.Load() }

// Failed returns the number of deliveries that returned an error or panicked
func (a *Async) Failed() int64 { return a.failed.Load() }

// Close stops accepting events and waits for buffered ones to be delivered,
// or for ctx to expire.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
