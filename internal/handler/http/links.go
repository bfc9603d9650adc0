package http

import (
	"Uplink-Backend/internal/auth"
	"Uplink-Backend/internal/repository"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LinksHandler обработчик управляющей поверхности ссылок (сессионная аутентификация)
type LinksHandler struct {
	storage repository.Storage
	log     *zap.Logger
}

// NewLinksHandler создает новый обработчик ссылок
func NewLinksHandler(storage repository.Storage, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		storage: storage,
		log:     log,
	}
}

// LinkInfo информация о ссылке
type LinkInfo struct {
	Code        string `json:"code"`
	OriginalURL string `json:"original_url"`
	CustomSlug  bool   `json:"custom_slug"`
	Permanent   bool   `json:"permanent"`
	ClickCount  int64  `json:"click_count"`
	CreatedAt   string `json:"created_at"`
	ExpiresAt   string `json:"expires_at,omitempty"`
}

// ListLinksResponse структура ответа списка ссылок
type ListLinksResponse struct {
	Links []LinkInfo `json:"links"`
}

// StatsResponse структура ответа статистики
type StatsResponse struct {
	Code           string           `json:"code"`
	OriginalURL    string           `json:"original_url"`
	ClickCount     int64            `json:"click_count"`
	ClicksRecorded int64            `json:"clicks_recorded"`
	ClicksByDevice map[string]int64 `json:"clicks_by_device"`
	CreatedAt      string           `json:"created_at"`
	ExpiresAt      string           `json:"expires_at,omitempty"`
}

// ListLinks возвращает список ссылок пользователя
func (h *LinksHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	links, err := h.storage.ListUserLinks(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		h.writeError(w, "Failed to retrieve links", http.StatusInternalServerError)
		return
	}

	linkInfos := make([]LinkInfo, len(links))
	for i, link := range links {
		info := LinkInfo{
			Code:        link.ShortCode,
			OriginalURL: link.OriginalURL,
			CustomSlug:  link.IsCustomSlug,
			Permanent:   link.IsPermanent,
			ClickCount:  link.ClickCount,
			CreatedAt:   link.CreatedAt.Format(time.RFC3339),
		}
		if link.ExpiresAt != nil {
			info.ExpiresAt = link.ExpiresAt.Format(time.RFC3339)
		}
		linkInfos[i] = info
	}

	h.writeJSON(w, ListLinksResponse{Links: linkInfos}, http.StatusOK)
}

// GetStats возвращает статистику по ссылке.
// ClicksRecorded - авторитетное количество записей кликов; кешированный
// ClickCount сходится к нему.
func (h *LinksHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	code := pathSuffix(r.URL.Path, "/api/stats/")
	if code == "" {
		h.writeError(w, "Code is required", http.StatusBadRequest)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	link, err := h.storage.GetLinkByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to get link for stats", zap.String("code", code), zap.Error(err))
		h.writeError(w, "Failed to retrieve link", http.StatusInternalServerError)
		return
	}

	// Пользователь видит только свои ссылки
	if link.UserID != userID {
		h.writeError(w, "Access denied", http.StatusForbidden)
		return
	}

	recorded, err := h.storage.CountClicks(r.Context(), link.ID)
	if err != nil {
		h.log.Error("failed to count clicks", zap.Int64("link_id", link.ID), zap.Error(err))
		recorded = link.ClickCount
	}

	clicksByDevice, err := h.storage.GetClicksByDevice(r.Context(), link.ID)
	if err != nil {
		h.log.Error("failed to get clicks by device", zap.Int64("link_id", link.ID), zap.Error(err))
		clicksByDevice = make(map[string]int64)
	}

	response := StatsResponse{
		Code:           link.ShortCode,
		OriginalURL:    link.OriginalURL,
		ClickCount:     link.ClickCount,
		ClicksRecorded: recorded,
		ClicksByDevice: clicksByDevice,
		CreatedAt:      link.CreatedAt.Format(time.RFC3339),
	}
	if link.ExpiresAt != nil {
		response.ExpiresAt = link.ExpiresAt.Format(time.RFC3339)
	}

	h.writeJSON(w, response, http.StatusOK)
}

// DeleteLink удаляет ссылку пользователя вместе с кликами
func (h *LinksHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	code := pathSuffix(r.URL.Path, "/api/links/")
	if code == "" {
		h.writeError(w, "Code is required", http.StatusBadRequest)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.storage.DeleteLink(r.Context(), code, userID); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete link", zap.String("code", code), zap.Error(err))
		h.writeError(w, "Failed to delete link", http.StatusInternalServerError)
		return
	}

	h.log.Info("deleted link", zap.String("code", code), zap.Int64("user_id", userID))
	w.WriteHeader(http.StatusNoContent)
}

// Helper methods

func (h *LinksHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *LinksHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// pathSuffix извлекает последний сегмент пути после префикса
func pathSuffix(path, prefix string) string {
	suffix := strings.TrimPrefix(path, prefix)
	suffix = strings.Trim(suffix, "/")
	if strings.ContainsRune(suffix, '/') {
		return ""
	}
	return suffix
}
