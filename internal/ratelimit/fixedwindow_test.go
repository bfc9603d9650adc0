package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func newTestWindow(maxRequests int, window, retention time.Duration) *FixedWindow {
	// sweepInterval=0 - фоновая горутина не нужна, sweep вызываем вручную
	return NewFixedWindow(maxRequests, window, retention, 0, zap.NewNop())
}

func TestFixedWindow_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("allows up to limit then denies", func(t *testing.T) {
		fw := newTestWindow(30, time.Minute, 2*time.Hour)
		defer fw.Close()

		for i := 1; i <= 30; i++ {
			result, err := fw.Check(ctx, "1.2.3.4")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i)
			assert.Equal(t, 30, result.Limit)
			assert.Equal(t, 30-i, result.Remaining)
		}

		// 31-й запрос в том же окне
		result, err := fw.Check(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
	})

	t.Run("window expiry resets the counter", func(t *testing.T) {
		fw := newTestWindow(2, time.Minute, 2*time.Hour)
		defer fw.Close()

		current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		fw.now = func() time.Time { return current }

		for i := 0; i < 2; i++ {
			result, err := fw.Check(ctx, "client")
			require.NoError(t, err)
			assert.True(t, result.Allowed)
		}

		result, err := fw.Check(ctx, "client")
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		// Сдвигаем время за границу окна
		current = current.Add(time.Minute + time.Second)

		result, err = fw.Check(ctx, "client")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 1, result.Remaining)
		assert.Equal(t, current.Add(time.Minute), result.ResetAt)
	})

	t.Run("keys are independent", func(t *testing.T) {
		fw := newTestWindow(1, time.Minute, 2*time.Hour)
		defer fw.Close()

		first, err := fw.Check(ctx, "a")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		denied, err := fw.Check(ctx, "a")
		require.NoError(t, err)
		assert.False(t, denied.Allowed)

		other, err := fw.Check(ctx, "b")
		require.NoError(t, err)
		assert.True(t, other.Allowed)
	})

	t.Run("concurrent requests never exceed limit", func(t *testing.T) {
		const limit = 30
		const attempts = 100

		fw := newTestWindow(limit, time.Minute, 2*time.Hour)
		defer fw.Close()

		var allowed int64
		var mu sync.Mutex
		var wg sync.WaitGroup

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				result, err := fw.Check(ctx, "shared")
				assert.NoError(t, err)
				if result.Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(limit), allowed)
	})
}

func TestFixedWindow_Sweep(t *testing.T) {
	ctx := context.Background()

	fw := newTestWindow(5, time.Minute, 2*time.Hour)
	defer fw.Close()

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fw.now = func() time.Time { return current }

	_, err := fw.Check(ctx, "stale")
	require.NoError(t, err)
	_, err = fw.Check(ctx, "fresh")
	require.NoError(t, err)

	// Окно "stale" закрылось, но retention еще не прошел
	current = current.Add(time.Hour)
	fw.sweep()

	fw.mu.Lock()
	assert.Len(t, fw.entries, 2)
	fw.mu.Unlock()

	// Теперь обе записи старше retention
	current = current.Add(2 * time.Hour)
	fw.sweep()

	fw.mu.Lock()
	assert.Len(t, fw.entries, 0)
	fw.mu.Unlock()
}
