package memory

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStorage_Links(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate code is rejected on insert", func(t *testing.T) {
		s := New()

		first := &domain.Link{UserID: 1, OriginalURL: "https://a.com", ShortCode: "same"}
		require.NoError(t, s.CreateLink(ctx, first))

		second := &domain.Link{UserID: 2, OriginalURL: "https://b.com", ShortCode: "same"}
		err := s.CreateLink(ctx, second)
		assert.ErrorIs(t, err, repository.ErrCodeTaken)

		// Первая ссылка не затерта
		got, err := s.GetLinkByCode(ctx, "same")
		require.NoError(t, err)
		assert.Equal(t, "https://a.com", got.OriginalURL)
	})

	t.Run("lookup returns a copy", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateLink(ctx, &domain.Link{UserID: 1, OriginalURL: "https://a.com", ShortCode: "code1"}))

		got, err := s.GetLinkByCode(ctx, "code1")
		require.NoError(t, err)
		got.OriginalURL = "https://mutated.com"

		again, err := s.GetLinkByCode(ctx, "code1")
		require.NoError(t, err)
		assert.Equal(t, "https://a.com", again.OriginalURL)
	})

	t.Run("delete requires matching owner", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateLink(ctx, &domain.Link{UserID: 1, OriginalURL: "https://a.com", ShortCode: "mine"}))

		err := s.DeleteLink(ctx, "mine", 2)
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)

		require.NoError(t, s.DeleteLink(ctx, "mine", 1))
		_, err = s.GetLinkByCode(ctx, "mine")
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("delete cascades to clicks", func(t *testing.T) {
		s := New()
		link := &domain.Link{UserID: 1, OriginalURL: "https://a.com", ShortCode: "clicked"}
		require.NoError(t, s.CreateLink(ctx, link))
		require.NoError(t, s.RecordClick(ctx, &domain.Click{LinkID: link.ID}))

		require.NoError(t, s.DeleteLink(ctx, "clicked", 1))

		count, err := s.CountClicks(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})
}

func TestMemStorage_Clicks(t *testing.T) {
	ctx := context.Background()

	t.Run("record increments counter atomically with insert", func(t *testing.T) {
		s := New()
		link := &domain.Link{UserID: 1, OriginalURL: "https://a.com", ShortCode: "code1"}
		require.NoError(t, s.CreateLink(ctx, link))

		for i := 0; i < 3; i++ {
			require.NoError(t, s.RecordClick(ctx, &domain.Click{LinkID: link.ID}))
		}

		got, err := s.GetLinkByCode(ctx, "code1")
		require.NoError(t, err)
		assert.Equal(t, int64(3), got.ClickCount)

		count, err := s.CountClicks(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("record against missing link fails", func(t *testing.T) {
		s := New()
		err := s.RecordClick(ctx, &domain.Click{LinkID: 99})
		assert.ErrorIs(t, err, repository.ErrLinkNotFound)
	})

	t.Run("device breakdown counts enriched clicks", func(t *testing.T) {
		s := New()
		link := &domain.Link{UserID: 1, OriginalURL: "https://a.com", ShortCode: "code1"}
		require.NoError(t, s.CreateLink(ctx, link))

		enriched := &domain.Click{LinkID: link.ID}
		require.NoError(t, s.RecordClick(ctx, enriched))
		require.NoError(t, s.UpdateClickAgent(ctx, enriched.ID, "mobile", "Safari", "iOS"))
		require.NoError(t, s.RecordClick(ctx, &domain.Click{LinkID: link.ID}))

		byDevice, err := s.GetClicksByDevice(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), byDevice["mobile"])
		assert.Equal(t, int64(1), byDevice["unknown"])
	})
}

func TestMemStorage_Tokens(t *testing.T) {
	ctx := context.Background()

	newToken := func(id, hash string, userID int64) *domain.APIToken {
		return &domain.APIToken{ID: id, UserID: userID, TokenHash: hash, Name: "t", IsActive: true}
	}

	t.Run("lookup by hash", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateToken(ctx, newToken("id-1", "hash-1", 1)))

		got, err := s.GetTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.Equal(t, "id-1", got.ID)

		_, err = s.GetTokenByHash(ctx, "hash-2")
		assert.ErrorIs(t, err, repository.ErrTokenNotFound)
	})

	t.Run("revoke keeps the record", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateToken(ctx, newToken("id-1", "hash-1", 1)))

		require.NoError(t, s.RevokeToken(ctx, "id-1", 1))

		got, err := s.GetTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	})

	t.Run("revoke and delete require matching owner", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateToken(ctx, newToken("id-1", "hash-1", 1)))

		assert.ErrorIs(t, s.RevokeToken(ctx, "id-1", 2), repository.ErrTokenNotFound)
		assert.ErrorIs(t, s.DeleteToken(ctx, "id-1", 2), repository.ErrTokenNotFound)
		assert.NoError(t, s.DeleteToken(ctx, "id-1", 1))
	})

	t.Run("touch updates last used", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateToken(ctx, newToken("id-1", "hash-1", 1)))

		usedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, s.TouchToken(ctx, "id-1", usedAt))

		got, err := s.GetTokenByHash(ctx, "hash-1")
		require.NoError(t, err)
		require.NotNil(t, got.LastUsedAt)
		assert.Equal(t, usedAt, *got.LastUsedAt)
	})
}

func TestMemStorage_Users(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate email is rejected", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateUser(ctx, &domain.User{Email: "user@example.com", PasswordHash: "x"}))

		err := s.CreateUser(ctx, &domain.User{Email: "USER@example.com", PasswordHash: "y"})
		assert.ErrorIs(t, err, repository.ErrUserExists)
	})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		s := New()
		require.NoError(t, s.CreateUser(ctx, &domain.User{Email: "User@Example.com", PasswordHash: "x"}))

		got, err := s.GetUserByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		assert.NotZero(t, got.ID)
	})
}
