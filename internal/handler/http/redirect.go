package http

import (
	"Uplink-Backend/internal/repository"
	"Uplink-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// RedirectHandler обработчик редиректов: браузерный путь GET /{code}
// и JSON-вариант GET /api/redirect/{code}. Оба пути - рендеринги одной
// машины состояний (NotFound -> 404, Expired -> 410, Active -> 301).
type RedirectHandler struct {
	redirectService *service.RedirectService
	log             *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(redirectService *service.RedirectService, log *zap.Logger) *RedirectHandler {
	return &RedirectHandler{
		redirectService: redirectService,
		log:             log,
	}
}

// HandleRedirect обрабатывает браузерный редирект по короткому коду
func (h *RedirectHandler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/")

	// Системные пути не являются короткими кодами
	if code == "" || strings.ContainsRune(code, '/') || isSystemPath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	link, err := h.redirectService.Resolve(r.Context(), code, clickInfo(r))
	if err != nil {
		h.renderError(w, r, code, err, false)
		return
	}

	http.Redirect(w, r, link.OriginalURL, http.StatusMovedPermanently)
}

// HandleAPIRedirect обрабатывает GET /api/redirect/{code} с JSON ошибками
func (h *RedirectHandler) HandleAPIRedirect(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/redirect/")
	if code == "" || strings.ContainsRune(code, '/') {
		h.writeError(w, "Short URL not found", http.StatusNotFound)
		return
	}

	link, err := h.redirectService.Resolve(r.Context(), code, clickInfo(r))
	if err != nil {
		h.renderError(w, r, code, err, true)
		return
	}

	http.Redirect(w, r, link.OriginalURL, http.StatusMovedPermanently)
}

func (h *RedirectHandler) renderError(w http.ResponseWriter, r *http.Request, code string, err error, asJSON bool) {
	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		h.log.Debug("short code not found", zap.String("code", code))
		if asJSON {
			h.writeError(w, "Short URL not found", http.StatusNotFound)
		} else {
			http.NotFound(w, r)
		}
	case errors.Is(err, service.ErrLinkExpired):
		h.log.Debug("short code expired", zap.String("code", code))
		if asJSON {
			h.writeError(w, "Short URL has expired", http.StatusGone)
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusGone)
			_, _ = w.Write([]byte("<html><body><h1>Link expired</h1><p>This short link is no longer available.</p></body></html>"))
		}
	default:
		h.log.Error("failed to process redirect", zap.String("code", code), zap.Error(err))
		if asJSON {
			h.writeError(w, "Internal server error", http.StatusInternalServerError)
		} else {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

func (h *RedirectHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func clickInfo(r *http.Request) service.ClickInfo {
	return service.ClickInfo{
		Referrer:  r.Referer(),
		UserAgent: r.UserAgent(),
	}
}
