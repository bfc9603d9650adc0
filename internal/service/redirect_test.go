package service

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"Uplink-Backend/internal/repository/memory"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func newTestRedirectService() (*RedirectService, *memory.MemStorage) {
	storage := memory.New()
	return NewRedirectService(storage, nil, nil, zap.NewNop()), storage
}

func seedLink(t *testing.T, storage *memory.MemStorage, code string, expiresAt *time.Time) *domain.Link {
	t.Helper()
	link := &domain.Link{
		UserID:      1,
		OriginalURL: "https://example.com/target",
		ShortCode:   code,
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, storage.CreateLink(context.Background(), link))
	return link
}

func TestRedirectService_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("click recorded before redirect", func(t *testing.T) {
		svc, storage := newTestRedirectService()
		seedLink(t, storage, "abc12345", nil)

		link, err := svc.Resolve(ctx, "abc12345", ClickInfo{
			Referrer:  "https://google.com",
			UserAgent: "Mozilla/5.0",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/target", link.OriginalURL)

		stored, err := storage.GetLinkByCode(ctx, "abc12345")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.ClickCount)

		count, err := storage.CountClicks(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc, _ := newTestRedirectService()

		_, err := svc.Resolve(ctx, "missing1", ClickInfo{})
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("expired link records no click", func(t *testing.T) {
		svc, storage := newTestRedirectService()
		past := time.Now().Add(-time.Hour)
		seeded := seedLink(t, storage, "expired1", &past)

		_, err := svc.Resolve(ctx, "expired1", ClickInfo{UserAgent: "Mozilla/5.0"})
		assert.ErrorIs(t, err, ErrLinkExpired)

		stored, err := storage.GetLinkByCode(ctx, "expired1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), stored.ClickCount)

		count, err := storage.CountClicks(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("permanent link resolves far in the future", func(t *testing.T) {
		svc, storage := newTestRedirectService()
		seedLink(t, storage, "forever1", nil)
		svc.now = func() time.Time { return time.Now().Add(10 * 365 * 24 * time.Hour) }

		_, err := svc.Resolve(ctx, "forever1", ClickInfo{})
		assert.NoError(t, err)
	})

	t.Run("concurrent redirects count every click", func(t *testing.T) {
		svc, storage := newTestRedirectService()
		seedLink(t, storage, "popular1", nil)

		const clicks = 50
		var wg sync.WaitGroup
		for i := 0; i < clicks; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Resolve(ctx, "popular1", ClickInfo{UserAgent: "Mozilla/5.0"})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := storage.GetLinkByCode(ctx, "popular1")
		require.NoError(t, err)
		assert.Equal(t, int64(clicks), stored.ClickCount)

		count, err := storage.CountClicks(ctx, stored.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(clicks), count)
	})
}
