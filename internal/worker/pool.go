package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of best-effort background work (token last-used touches,
// click User-Agent enrichment). A failed task never fails the request that
// submitted it.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Config holds configuration for the background pool.
type Config struct {
	WorkerCount     int           // Number of worker goroutines
	BufferSize      int           // Size of the job queue buffer
	RetryAttempts   int           // Number of retry attempts for failed tasks
	RetryDelay      time.Duration // Base delay between retries
	ShutdownTimeout time.Duration // Time to wait for graceful shutdown
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		WorkerCount:     3,
		BufferSize:      1000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Pool processes fire-and-forget tasks asynchronously with bounded retries.
type Pool struct {
	config  Config
	log     *zap.Logger
	queue   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	mu      sync.RWMutex
}

// New creates a new background pool
func New(log *zap.Logger, config Config) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		config: config,
		log:    log,
		queue:  make(chan Task, config.BufferSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing tasks
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pool already started")
	}

	p.log.Info("starting background pool",
		zap.Int("workers", p.config.WorkerCount),
		zap.Int("buffer_size", p.config.BufferSize))

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop gracefully shuts down the pool
func (p *Pool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("pool not started")
	}

	p.log.Info("stopping background pool")
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("background pool stopped gracefully")
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		p.log.Warn("background pool shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}

	p.cancel()
	p.started = false
	return nil
}

// Submit enqueues a task without ever blocking the caller. When the queue is
// full the task is dropped with a warning: callers submit best-effort work only.
func (p *Pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return fmt.Errorf("pool not started")
	}

	select {
	case p.queue <- task:
		return nil
	default:
		p.log.Warn("background queue full, dropping task", zap.String("task", task.Name))
		return fmt.Errorf("queue full")
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", id))
	log.Debug("background worker started")

	for task := range p.queue {
		p.process(log, task)
	}

	log.Debug("background worker stopped")
}

func (p *Pool) process(log *zap.Logger, task Task) {
	var err error
	for attempt := 0; attempt <= p.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(p.config.RetryDelay * time.Duration(attempt)):
			case <-p.ctx.Done():
				return
			}
		}

		if err = task.Run(p.ctx); err == nil {
			return
		}

		log.Debug("background task attempt failed",
			zap.String("task", task.Name),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	log.Warn("background task failed after retries",
		zap.String("task", task.Name),
		zap.Int("attempts", p.config.RetryAttempts+1),
		zap.Error(err))
}
