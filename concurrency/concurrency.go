// Package concurrency bounds the number of operations in flight.
package concurrency

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Manager is a counting semaphore with usage metrics
type Manager struct {
	limit    int32
	current  atomic.Int32
	slots    chan struct{}
	acquired atomic.Int64
	rejected atomic.Int64
}

// Metrics is a snapshot of Manager usage
type Metrics struct {
	Limit    int32 `json:"limit"`
	Current  int32 `json:"current"`
	Acquired int64 `json:"acquired"`
	Rejected int64 `json:"rejected"`
}

// NewManager creates a manager allowing up to limit concurrent holders
func NewManager(limit int32) (*Manager, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("concurrency limit must be positive, got: %d", limit)
	}
	return &Manager{limit: limit, slots: make(chan struct{}, limit)}, nil
}

// Acquire blocks until a slot is free or ctx is done
func (m *Manager) Acquire(ctx context.Context) error {
	select {
	case m.slots <- struct{}{}:
		m.current.Add(1)
		m.acquired.Add(1)
		return nil
	case <-ctx.Done():
		m.rejected.Add(1)
		return fmt.Errorf("failed to acquire concurrency slot: %w", ctx.Err())
	}
}

// TryAcquire takes a slot without blocking; a miss counts as rejected
func (m *Manager) TryAcquire() bool {
	select {
	case m.slots <- struct{}{}:
		m.current.Add(1)
		m.acquired.Add(1)
		return true
	default:
		m.rejected.Add(1)
		return false
	}
}

// Release returns a slot. Releasing more than acquired panics.
func (m *Manager) Release() {
	select {
	case <-m.slots:
		m.current.Add(-1)
	default:
		panic("concurrency: release without matching acquire")
	}
}

// Available returns the number of free slots
func (m *Manager) Available() int32 {
	return m.limit - m.current.Load()
}

// Metrics returns current usage
func (m *Manager) Metrics() Metrics {
	return Metrics{
		Limit:    m.limit,
		Current:  m.current.Load(),
		Acquired: m.acquired.Load(),
		Rejected: m.rejected.Load(),
	}
}
