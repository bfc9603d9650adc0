package http

import (
	"Uplink-Backend/internal/auth"
	"Uplink-Backend/internal/config"
	"Uplink-Backend/internal/ratelimit"
	"Uplink-Backend/internal/repository/memory"
	"Uplink-Backend/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"
)

type shortenFixture struct {
	handler *ShortenHandler
	storage *memory.MemStorage
	secret  string
}

func newShortenFixture(t *testing.T, maxRequests int) *shortenFixture {
	t.Helper()

	storage := memory.New()
	log := zap.NewNop()

	tokenService := auth.NewTokenService(storage, nil, log)
	secret, _, err := tokenService.Issue(context.Background(), 1, "test", nil, "")
	require.NoError(t, err)

	linkService := service.NewLinkService(storage, &config.Shortener{CodeLength: 8, MaxAttempts: 10}, log)
	limiter := ratelimit.NewFixedWindow(maxRequests, time.Minute, 2*time.Hour, 0, log)
	t.Cleanup(limiter.Close)
	hosts := NewHostResolver("sho.rt", nil, log)

	return &shortenFixture{
		handler: NewShortenHandler(linkService, tokenService, limiter, hosts, log),
		storage: storage,
		secret:  secret,
	}
}

func (f *shortenFixture) do(body string, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	rec := httptest.NewRecorder()
	f.handler.Shorten(rec, req)
	return rec
}

func TestShortenHandler_Shorten(t *testing.T) {
	t.Run("creates link with generated code", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		rec := f.do(`{"url":"https://example.com/page"}`, "Bearer "+f.secret)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp ShortenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Len(t, resp.Code, 8)
		assert.Equal(t, "http://sho.rt/"+resp.Code, resp.ShortURL)
		assert.Equal(t, "https://example.com/page", resp.OriginalURL)
		assert.False(t, resp.Permanent)
		require.NotNil(t, resp.ExpiresAt)
		_, err := time.Parse(time.RFC3339, *resp.ExpiresAt)
		assert.NoError(t, err)

		assert.Equal(t, "30", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "29", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})

	t.Run("permanent link has null expiry", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		rec := f.do(`{"url":"https://example.com","permanent":true}`, "Bearer "+f.secret)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp ShortenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Permanent)
		assert.Nil(t, resp.ExpiresAt)
	})

	t.Run("all auth failures share one message", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		headers := []string{
			"",
			"Basic dXNlcjpwYXNz",
			"Bearer wrong-prefix",
			"Bearer uplink_nonexistent",
		}
		for _, header := range headers {
			rec := f.do(`{"url":"https://example.com"}`, header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)

			var resp APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, "Invalid API token", resp.Error, "header %q", header)
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		rec := f.do(`{"url":"not a url"}`, "Bearer "+f.secret)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing url", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		rec := f.do(`{}`, "Bearer "+f.secret)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		rec := f.do(`{"url":`, "Bearer "+f.secret)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		rec := f.do(`{"url":"https://example.com","slug":"taken"}`, "Bearer "+f.secret)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = f.do(`{"url":"https://other.com","slug":"taken"}`, "Bearer "+f.secret)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		f := newShortenFixture(t, 2)

		for i := 0; i < 2; i++ {
			rec := f.do(`{"url":"https://example.com"}`, "Bearer "+f.secret)
			require.Equal(t, http.StatusCreated, rec.Code)
		}

		rec := f.do(`{"url":"https://example.com"}`, "Bearer "+f.secret)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		var resp APIError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "Rate limit exceeded")
	})

	t.Run("rate limit applies before auth", func(t *testing.T) {
		f := newShortenFixture(t, 1)

		rec := f.do(`{"url":"https://example.com"}`, "Bearer "+f.secret)
		require.Equal(t, http.StatusCreated, rec.Code)

		// Запрос без токена все равно получает 429, а не 401
		rec = f.do(`{"url":"https://example.com"}`, "")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		f := newShortenFixture(t, 30)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/shorten", nil)
		rec := httptest.NewRecorder()
		f.handler.Shorten(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		want      string
	}{
		{"no header", "", "unknown"},
		{"single hop", "203.0.113.7", "203.0.113.7"},
		{"chain takes first hop", "203.0.113.7, 10.0.0.1, 10.0.0.2", "203.0.113.7"},
		{"whitespace trimmed", "  203.0.113.7 ", "203.0.113.7"},
		{"empty first hop", " , 10.0.0.1", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/shorten", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientKey(req))
		})
	}
}
