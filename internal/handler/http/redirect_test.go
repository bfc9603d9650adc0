package http

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository/memory"
	"Uplink-Backend/internal/service"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

func newRedirectFixture(t *testing.T) (*RedirectHandler, *memory.MemStorage) {
	t.Helper()
	storage := memory.New()
	log := zap.NewNop()
	redirectService := service.NewRedirectService(storage, nil, nil, log)
	return NewRedirectHandler(redirectService, log), storage
}

func seedRedirectLink(t *testing.T, storage *memory.MemStorage, code string, expiresAt *time.Time) {
	t.Helper()
	require.NoError(t, storage.CreateLink(context.Background(), &domain.Link{
		UserID:      1,
		OriginalURL: "https://example.com/target",
		ShortCode:   code,
		ExpiresAt:   expiresAt,
	}))
}

func TestRedirectHandler_HandleRedirect(t *testing.T) {
	t.Run("active link redirects with 301", func(t *testing.T) {
		h, storage := newRedirectFixture(t)
		seedRedirectLink(t, storage, "abc12345", nil)

		req := httptest.NewRequest(http.MethodGet, "/abc12345", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0")
		rec := httptest.NewRecorder()
		h.HandleRedirect(rec, req)

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "https://example.com/target", rec.Header().Get("Location"))

		// Клик учтен до ответа
		stored, err := storage.GetLinkByCode(context.Background(), "abc12345")
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.ClickCount)
	})

	t.Run("unknown code returns 404", func(t *testing.T) {
		h, _ := newRedirectFixture(t)

		req := httptest.NewRequest(http.MethodGet, "/missing1", nil)
		rec := httptest.NewRecorder()
		h.HandleRedirect(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("expired link returns 410 without counting", func(t *testing.T) {
		h, storage := newRedirectFixture(t)
		past := time.Now().Add(-time.Hour)
		seedRedirectLink(t, storage, "expired1", &past)

		req := httptest.NewRequest(http.MethodGet, "/expired1", nil)
		rec := httptest.NewRecorder()
		h.HandleRedirect(rec, req)

		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Contains(t, rec.Body.String(), "expired")

		stored, err := storage.GetLinkByCode(context.Background(), "expired1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), stored.ClickCount)
	})

	t.Run("system paths are not codes", func(t *testing.T) {
		h, _ := newRedirectFixture(t)

		for _, path := range []string{"/", "/health", "/ready", "/api/v1/shorten", "/a/b"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			rec := httptest.NewRecorder()
			h.HandleRedirect(rec, req)
			assert.Equal(t, http.StatusNotFound, rec.Code, "path %q", path)
		}
	})
}

func TestRedirectHandler_HandleAPIRedirect(t *testing.T) {
	t.Run("active link redirects", func(t *testing.T) {
		h, storage := newRedirectFixture(t)
		seedRedirectLink(t, storage, "abc12345", nil)

		req := httptest.NewRequest(http.MethodGet, "/api/redirect/abc12345", nil)
		rec := httptest.NewRecorder()
		h.HandleAPIRedirect(rec, req)

		assert.Equal(t, http.StatusMovedPermanently, rec.Code)
		assert.Equal(t, "https://example.com/target", rec.Header().Get("Location"))
	})

	t.Run("errors are json", func(t *testing.T) {
		h, storage := newRedirectFixture(t)
		past := time.Now().Add(-time.Hour)
		seedRedirectLink(t, storage, "expired1", &past)

		req := httptest.NewRequest(http.MethodGet, "/api/redirect/missing1", nil)
		rec := httptest.NewRecorder()
		h.HandleAPIRedirect(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		req = httptest.NewRequest(http.MethodGet, "/api/redirect/expired1", nil)
		rec = httptest.NewRecorder()
		h.HandleAPIRedirect(rec, req)
		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})
}

func TestHostResolver_ShortURL(t *testing.T) {
	hr := NewHostResolver("sho.rt", []string{"alias.example.com"}, zap.NewNop())

	t.Run("uses request host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://alias.example.com/api/v1/shorten", nil)
		assert.Equal(t, "http://alias.example.com/abc", hr.ShortURL(req, "abc"))
	})

	t.Run("forwarded headers win", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://internal:8080/api/v1/shorten", nil)
		req.Header.Set("X-Forwarded-Host", "sho.rt")
		req.Header.Set("X-Forwarded-Proto", "https")
		assert.Equal(t, "https://sho.rt/abc", hr.ShortURL(req, "abc"))
	})

	t.Run("unrecognized host is served anyway", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://evil.example.com/api/v1/shorten", nil)
		assert.Equal(t, "http://evil.example.com/abc", hr.ShortURL(req, "abc"))
	})
}
