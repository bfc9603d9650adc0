package http

import (
	"Uplink-Backend/internal/auth"
	"Uplink-Backend/internal/ratelimit"
	"Uplink-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ShortenHandler обработчик публичного API создания коротких ссылок
type ShortenHandler struct {
	linkService  *service.LinkService
	tokenService *auth.TokenService
	limiter      ratelimit.Limiter
	hosts        *HostResolver
	log          *zap.Logger
}

// NewShortenHandler создает новый обработчик публичного API
func NewShortenHandler(
	linkService *service.LinkService,
	tokenService *auth.TokenService,
	limiter ratelimit.Limiter,
	hosts *HostResolver,
	log *zap.Logger,
) *ShortenHandler {
	return &ShortenHandler{
		linkService:  linkService,
		tokenService: tokenService,
		limiter:      limiter,
		hosts:        hosts,
		log:          log,
	}
}

// ShortenRequest структура запроса публичного API
type ShortenRequest struct {
	URL       string `json:"url"`
	Slug      string `json:"slug,omitempty"`
	Permanent bool   `json:"permanent,omitempty"`
}

// ShortenResponse структура успешного ответа публичного API
type ShortenResponse struct {
	Success     bool    `json:"success"`
	ShortURL    string  `json:"shortUrl"`
	Code        string  `json:"code"`
	OriginalURL string  `json:"originalUrl"`
	Permanent   bool    `json:"permanent"`
	ExpiresAt   *string `json:"expiresAt"`
}

// APIError структура ошибки публичного API
type APIError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Shorten обрабатывает POST /api/v1/shorten.
// Порядок: admission control -> аутентификация токена -> валидация -> создание.
// Заголовки X-RateLimit-* присутствуют на каждом ответе endpoint'а.
func (h *ShortenHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result, err := h.limiter.Check(r.Context(), clientKey(r))
	if err != nil {
		h.log.Error("rate limit check failed", zap.Error(err))
		h.writeError(w, "Internal server error. Please try again later.", http.StatusInternalServerError)
		return
	}
	setRateLimitHeaders(w, result)

	if !result.Allowed {
		h.writeError(w, "Rate limit exceeded. Max "+strconv.Itoa(result.Limit)+" requests per minute.", http.StatusTooManyRequests)
		return
	}

	token, err := h.tokenService.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		// Все причины отказа схлопываются в одно сообщение, чтобы ответ не
		// выдавал, существует ли токен; конкретика остается в логах
		h.log.Debug("api token authentication failed", zap.Error(err))
		h.writeError(w, "Invalid API token", http.StatusUnauthorized)
		return
	}

	var req ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if req.URL == "" {
		h.writeError(w, "URL is required. Use 'url' field in request body.", http.StatusBadRequest)
		return
	}

	link, err := h.linkService.Shorten(r.Context(), token.UserID, service.ShortenInput{
		URL:       req.URL,
		Slug:      req.Slug,
		Permanent: req.Permanent,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			h.writeError(w, "Invalid URL format. Must start with http:// or https://", http.StatusBadRequest)
		case errors.Is(err, service.ErrInvalidSlug):
			h.writeError(w, "Invalid slug. Use 2-50 alphanumeric characters, hyphens, or underscores.", http.StatusBadRequest)
		case errors.Is(err, service.ErrSlugTaken):
			h.writeError(w, "This slug is already taken. Try a different one.", http.StatusConflict)
		case errors.Is(err, service.ErrGenerationExhausted):
			h.writeError(w, "Failed to generate unique short code. Please try again.", http.StatusInternalServerError)
		default:
			h.log.Error("failed to create link", zap.Error(err))
			h.writeError(w, "Failed to create short URL. Please try again.", http.StatusInternalServerError)
		}
		return
	}

	var expiresAt *string
	if link.ExpiresAt != nil {
		s := link.ExpiresAt.UTC().Format(time.RFC3339)
		expiresAt = &s
	}

	response := ShortenResponse{
		Success:     true,
		ShortURL:    h.hosts.ShortURL(r, link.ShortCode),
		Code:        link.ShortCode,
		OriginalURL: link.OriginalURL,
		Permanent:   link.IsPermanent,
		ExpiresAt:   expiresAt,
	}

	h.writeJSON(w, response, http.StatusCreated)
}

func (h *ShortenHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ShortenHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, APIError{Success: false, Error: message}, statusCode)
}

// clientKey извлекает ключ клиента для rate limiting: первый hop цепочки
// X-Forwarded-For, иначе "unknown". Идентичность подделываемая, best-effort -
// это не граница безопасности.
func clientKey(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" {
		return "unknown"
	}
	if i := strings.IndexByte(forwarded, ','); i >= 0 {
		forwarded = forwarded[:i]
	}
	key := strings.TrimSpace(forwarded)
	if key == "" {
		return "unknown"
	}
	return key
}

func setRateLimitHeaders(w http.ResponseWriter, result ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
