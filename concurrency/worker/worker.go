// Package worker runs a fixed number of goroutines that pull tasks from a
// single unbounded FIFO queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ErrPoolClosed is returned when submitting to or starting a stopped pool
var ErrPoolClosed = errors.New("worker pool is closed")

// Config represents pool configuration
type Config struct {
	MaxWorkers  int           // number of worker goroutines
	TaskTimeout time.Duration // per task deadline, 0 disables it
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{MaxWorkers: 4}
}

// Validate validates configuration
func (cfg *Config) Validate() error {
	if cfg.MaxWorkers < 1 {
		return errors.New("max workers must be greater than 0")
	}
	if cfg.TaskTimeout < 0 {
		return errors.New("task timeout must be greater than or equal to 0")
	}
	return nil
}

// Processor handles a single dequeued task
type Processor interface {
	Process(ctx context.Context, task any) error
}

// ProcessorFunc adapts a function to Processor
type ProcessorFunc func(ctx context.Context, task any) error

func (f ProcessorFunc) Process(ctx context.Context, task any) error {
	return f(ctx, task)
}

// Metrics tracks pool's operational metrics
type Metrics struct {
	ActiveWorkers  atomic.Int64
	PendingTasks   atomic.Int64
	CompletedTasks atomic.Int64
	FailedTasks    atomic.Int64
	ProcessingTime atomic.Int64 // nanoseconds
}

// Snapshot is a point-in-time copy of Metrics
type Snapshot struct {
	Workers        int   `json:"workers"`
	ActiveWorkers  int64 `json:"active_workers"`
	PendingTasks   int64 `json:"pending_tasks"`
	CompletedTasks int64 `json:"completed_tasks"`
	FailedTasks    int64 `json:"failed_tasks"`
	ProcessingTime int64 `json:"processing_time"`
}

// Pool is a fixed set of workers sharing one FIFO. Only one worker dequeues
// at a time; execution is concurrent.
type Pool struct {
	maxWorkers  int
	taskTimeout time.Duration
	processor   Processor

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []any
	closed  bool
	started bool

	wg sync.WaitGroup

	metrics *Metrics
}

// NewPool creates a pool; workers are not running until Start.
//
//	pool, err := worker.NewPool(&worker.Config{MaxWorkers: 4}, worker.ProcessorFunc(fn))
//	pool.Submit(task) // queued, not yet executed
//	pool.Start()
//	defer pool.Stop(ctx)
func NewPool(cfg *Config, processor Processor) (*Pool, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if processor == nil {
		return nil, errors.New("processor is required")
	}

	p := &Pool{
		maxWorkers:  cfg.MaxWorkers,
		taskTimeout: cfg.TaskTimeout,
		processor:   processor,
		metrics:     &Metrics{},
	}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Start launches the workers. Calling Start again is a no-op.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.started {
		return nil
	}
	p.started = true

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return nil
}

// Submit appends a task to the queue. It never blocks.
func (p *Pool) Submit(task any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	p.queue = append(p.queue, task)
	p.metrics.PendingTasks.Add(1)
	p.cond.Signal()
	return nil
}

// Stop closes the queue and waits for workers to drain it. If ctx ends first
// the unreached tasks are discarded and ctx's error is returned. Tasks already
// running are never cancelled by Stop and finish in the background.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.mu.Lock()
		p.metrics.PendingTasks.Add(-int64(len(p.queue)))
		p.queue = nil
		p.mu.Unlock()
		return fmt.Errorf("worker pool stop: %w", ctx.Err())
	}
}

// Workers returns the configured worker count
func (p *Pool) Workers() int {
	return p.maxWorkers
}

// Running reports whether Start was called and Stop was not
func (p *Pool) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started && !p.closed
}

// Len returns the number of queued tasks
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		task, ok := p.next()
		if !ok {
			return
		}
		p.processTask(task)
	}
}

// next blocks until a task is available or the pool is closed and drained
func (p *Pool) next() (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return nil, false
	}

	task := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return task, true
}

// processTask runs one task, converting errors and panics into metrics
func (p *Pool) processTask(task any) {
	start := time.Now()
	p.metrics.ActiveWorkers.Add(1)
	p.metrics.PendingTasks.Add(-1)

	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if p.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
	}

	defer func() {
		cancel()
		p.metrics.ActiveWorkers.Add(-1)
		p.metrics.ProcessingTime.Add(time.Since(start).Nanoseconds())

		if r := recover(); r != nil {
			p.metrics.FailedTasks.Add(1)
		}
	}()

	if err := p.processor.Process(ctx, task); err != nil {
		p.metrics.FailedTasks.Add(1)
		return
	}
	p.metrics.CompletedTasks.Add(1)
}

// GetMetrics returns the current metrics
func (p *Pool) GetMetrics() Snapshot {
	return Snapshot{
		Workers:        p.maxWorkers,
		ActiveWorkers:  p.metrics.ActiveWorkers.Load(),
		PendingTasks:   p.metrics.PendingTasks.Load(),
		CompletedTasks: p.metrics.CompletedTasks.Load(),
		FailedTasks:    p.metrics.FailedTasks.Load(),
		ProcessingTime: p.metrics.ProcessingTime.Load(),
	}
}

