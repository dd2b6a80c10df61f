package notifier

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ncobase/jobqueue/concurrency"
	"github.com/ncobase/jobqueue/job/structs"
	"github.com/ncobase/jobqueue/logging/logger"
)

// DefaultMaxInFlight bounds concurrent handler deliveries on a Bus
const DefaultMaxInFlight = 64

// Bus is an in-process event fan-out. Handler subscribers run on their own
// goroutines, bounded by a concurrency manager; events that find no free slot
// are dropped. Channel subscribers receive events in publish order.
type Bus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]func(*structs.Event)
	streams  map[uint64]*stream
	limiter  *concurrency.Manager
	// set once CloseStreams ran; later streams start closed
	streamsClosed bool

	metrics struct {
		published     atomic.Int64
		delivered     atomic.Int64
		dropped       atomic.Int64
		failed        atomic.Int64
		lastEventTime atomic.Value
	}
}

type stream struct {
	mu     sync.Mutex
	ch     chan *structs.Event
	closed bool
}

// NewBus creates a bus allowing maxInFlight concurrent handler deliveries
func NewBus(maxInFlight int32) (*Bus, error) {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	limiter, err := concurrency.NewManager(maxInFlight)
	if err != nil {
		return nil, err
	}
	b := &Bus{
		handlers: make(map[uint64]func(*structs.Event)),
		streams:  make(map[uint64]*stream),
		limiter:  limiter,
	}
	b.metrics.lastEventTime.Store(time.Time{})
	return b, nil
}

// Subscribe registers fn for every event and returns its unsubscribe func
func (b *Bus) Subscribe(fn func(*structs.Event)) func() {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			b.mu.Unlock()
		})
	}
}

// Stream returns a channel receiving every event and a func that
// unsubscribes and closes it. A full buffer drops events for that stream.
func (b *Bus) Stream(buffer int) (<-chan *structs.Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	s := &stream{ch: make(chan *structs.Event, buffer)}

	b.mu.Lock()
	if b.streamsClosed {
		b.mu.Unlock()
		s.close()
		return s.ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.streams[id] = s
	b.mu.Unlock()

	return s.ch, func() {
		b.mu.Lock()
		delete(b.streams, id)
		b.mu.Unlock()
		s.close()
	}
}

// CloseStreams closes every open stream channel so readers return, and makes
// streams opened afterwards start closed. Handler subscribers keep receiving
// events.
func (b *Bus) CloseStreams() {
	b.mu.Lock()
	b.streamsClosed = true
	streams := b.streams
	b.streams = make(map[uint64]*stream)
	b.mu.Unlock()

	for _, s := range streams {
		s.close()
	}
}

func (s *stream) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Notify publishes event to all subscribers. It never blocks on a subscriber.
func (b *Bus) Notify(ctx context.Context, event *structs.Event) error {
	b.mu.RLock()
	handlers := make([]func(*structs.Event), 0, len(b.handlers))
	for _, h := range b.handlers {
		handlers = append(handlers, h)
	}
	streams := make([]*stream, 0, len(b.streams))
	for _, s := range b.streams {
		streams = append(streams, s)
	}
	b.mu.RUnlock()

	if len(handlers) == 0 && len(streams) == 0 {
		return nil
	}
	b.metrics.published.Add(1)
	b.metrics.lastEventTime.Store(time.Now())

	for _, s := range streams {
		b.send(s, event)
	}

	for _, h := range handlers {
		if !b.limiter.TryAcquire() {
			b.metrics.dropped.Add(1)
			logger.Warn(ctx, "event bus saturated, dropping event", "event", event.Type, "job_id", jobID(event))
			continue
		}
		go b.deliver(h, event)
	}
	return nil
}

func (b *Bus) send(s *stream, event *structs.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- event:
		b.metrics.delivered.Add(1)
	default:
		b.metrics.dropped.Add(1)
	}
}

func (b *Bus) deliver(h func(*structs.Event), event *structs.Event) {
	defer b.limiter.Release()
	defer func() {
		if r := recover(); r != nil {
			b.metrics.failed.Add(1)
			logger.Errorf(context.Background(), "panic in event handler: %v", r)
		}
	}()

	h(event)
	b.metrics.delivered.Add(1)
}

// GetMetrics returns event bus metrics
func (b *Bus) GetMetrics() map[string]any {
	b.mu.RLock()
	subscribers := len(b.handlers) + len(b.streams)
	b.mu.RUnlock()

	return map[string]any{
		"published_events": b.metrics.published.Load(),
		"delivered_events": b.metrics.delivered.Load(),
		"dropped_events":   b.metrics.dropped.Load(),
		"failed_events":    b.metrics.failed.Load(),
		"last_event_time":  b.metrics.lastEventTime.Load().(time.Time),
		"subscribers":      subscribers,
		"in_flight":        b.limiter.Metrics().Current,
	}
}
