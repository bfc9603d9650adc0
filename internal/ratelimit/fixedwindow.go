package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type windowEntry struct {
	count   int
	resetAt time.Time
}

// FixedWindow is an in-memory fixed-window counter limiter.
// State is per-process: a fleet deployment needs the redis limiter instead.
type FixedWindow struct {
	maxRequests int
	window      time.Duration
	retention   time.Duration

	mu      sync.Mutex
	entries map[string]*windowEntry

	log  *zap.Logger
	done chan struct{}
	once sync.Once
	now  func() time.Time
}

// NewFixedWindow creates an in-memory limiter and starts a periodic sweep that
// evicts entries whose window closed more than retention ago.
func NewFixedWindow(maxRequests int, window, retention, sweepInterval time.Duration, log *zap.Logger) *FixedWindow {
	fw := &FixedWindow{
		maxRequests: maxRequests,
		window:      window,
		retention:   retention,
		entries:     make(map[string]*windowEntry),
		log:         log,
		done:        make(chan struct{}),
		now:         time.Now,
	}

	if sweepInterval > 0 {
		go fw.sweepLoop(sweepInterval)
	}

	return fw
}

// Check admits the request iff the client key's window counter is under the
// limit. The whole decision happens under one mutex so two concurrent requests
// can never both observe "under limit" when only one slot remains.
func (fw *FixedWindow) Check(_ context.Context, clientKey string) (Result, error) {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	entry, ok := fw.entries[clientKey]
	if !ok || !now.Before(entry.resetAt) {
		// Первый запрос или окно закрылось - начинаем новое окно
		entry = &windowEntry{count: 1, resetAt: now.Add(fw.window)}
		fw.entries[clientKey] = entry
		return Result{
			Allowed:   true,
			Limit:     fw.maxRequests,
			Remaining: fw.maxRequests - 1,
			ResetAt:   entry.resetAt,
		}, nil
	}

	if entry.count >= fw.maxRequests {
		return Result{
			Allowed:   false,
			Limit:     fw.maxRequests,
			Remaining: 0,
			ResetAt:   entry.resetAt,
		}, nil
	}

	entry.count++
	return Result{
		Allowed:   true,
		Limit:     fw.maxRequests,
		Remaining: fw.maxRequests - entry.count,
		ResetAt:   entry.resetAt,
	}, nil
}

// Close stops the sweep goroutine.
func (fw *FixedWindow) Close() {
	fw.once.Do(func() { close(fw.done) })
}

func (fw *FixedWindow) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fw.sweep()
		case <-fw.done:
			return
		}
	}
}

// sweep bounds memory: the table is otherwise unbounded in client keys.
func (fw *FixedWindow) sweep() {
	now := fw.now()

	fw.mu.Lock()
	defer fw.mu.Unlock()

	removed := 0
	for key, entry := range fw.entries {
		if now.Sub(entry.resetAt) > fw.retention {
			delete(fw.entries, key)
			removed++
		}
	}

	if removed > 0 {
		fw.log.Debug("rate limit sweep completed",
			zap.Int("removed", removed),
			zap.Int("remaining", len(fw.entries)))
	}
}
