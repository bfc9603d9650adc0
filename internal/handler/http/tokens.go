package http

import (
	"Uplink-Backend/internal/auth"
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TokensHandler обработчик управления API токенами (сессионная аутентификация).
// Является производителем записей ApiToken, потребляемых TokenService.
type TokensHandler struct {
	storage      repository.Storage
	tokenService *auth.TokenService
	log          *zap.Logger
}

// NewTokensHandler создает новый обработчик токенов
func NewTokensHandler(storage repository.Storage, tokenService *auth.TokenService, log *zap.Logger) *TokensHandler {
	return &TokensHandler{
		storage:      storage,
		tokenService: tokenService,
		log:          log,
	}
}

// CreateTokenRequest структура запроса выпуска токена
type CreateTokenRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ExpiresIn   string `json:"expires_in,omitempty"` // "7d", "30d", "90d", "1y" или пусто
}

// CreateTokenResponse структура ответа выпуска токена.
// Token присутствует только здесь: plaintext показывается ровно один раз.
type CreateTokenResponse struct {
	Token     string    `json:"token"`
	TokenInfo TokenInfo `json:"token_info"`
}

// TokenInfo информация о токене без хеша секрета
type TokenInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	LastUsedAt  *string `json:"last_used_at,omitempty"`
	IsActive    bool    `json:"is_active"`
}

// HandleTokens обрабатывает /api/tokens (GET список, POST выпуск)
func (h *TokensHandler) HandleTokens(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTokens(w, r)
	case http.MethodPost:
		h.createToken(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleTokenByID обрабатывает /api/tokens/{id} (DELETE) и /api/tokens/{id}/revoke (POST)
func (h *TokensHandler) HandleTokenByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/tokens/"), "/")

	if id, ok := strings.CutSuffix(rest, "/revoke"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.revokeToken(w, r, id)
		return
	}

	if rest == "" || strings.ContainsRune(rest, '/') {
		h.writeError(w, "Token ID is required", http.StatusBadRequest)
		return
	}

	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.deleteToken(w, r, rest)
}

func (h *TokensHandler) createToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	var req CreateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.writeError(w, "Token name is required", http.StatusBadRequest)
		return
	}
	if len(req.Name) > 100 {
		h.writeError(w, "Token name must be less than 100 characters", http.StatusBadRequest)
		return
	}
	if len(req.Description) > 500 {
		h.writeError(w, "Token description must be less than 500 characters", http.StatusBadRequest)
		return
	}

	var description *string
	if d := strings.TrimSpace(req.Description); d != "" {
		description = &d
	}

	secret, token, err := h.tokenService.Issue(r.Context(), userID, req.Name, description, req.ExpiresIn)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidExpirationPeriod) {
			h.writeError(w, "Invalid expires_in. Valid options: 7d, 30d, 90d, 1y", http.StatusBadRequest)
			return
		}
		h.log.Error("failed to issue token", zap.Int64("user_id", userID), zap.Error(err))
		h.writeError(w, "Failed to create token", http.StatusInternalServerError)
		return
	}

	response := CreateTokenResponse{
		Token:     secret,
		TokenInfo: tokenInfo(token),
	}
	h.writeJSON(w, response, http.StatusCreated)
}

func (h *TokensHandler) listTokens(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	tokens, err := h.storage.ListUserTokens(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list tokens", zap.Int64("user_id", userID), zap.Error(err))
		h.writeError(w, "Failed to fetch tokens", http.StatusInternalServerError)
		return
	}

	infos := make([]TokenInfo, len(tokens))
	for i, token := range tokens {
		infos[i] = tokenInfo(token)
	}

	h.writeJSON(w, infos, http.StatusOK)
}

func (h *TokensHandler) revokeToken(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.storage.RevokeToken(r.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			h.writeError(w, "Token not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to revoke token", zap.String("token_id", id), zap.Error(err))
		h.writeError(w, "Failed to revoke token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TokensHandler) deleteToken(w http.ResponseWriter, r *http.Request, id string) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "User ID not found in context", http.StatusUnauthorized)
		return
	}

	if err := h.storage.DeleteToken(r.Context(), id, userID); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			h.writeError(w, "Token not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to delete token", zap.String("token_id", id), zap.Error(err))
		h.writeError(w, "Failed to delete token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func tokenInfo(token *domain.APIToken) TokenInfo {
	info := TokenInfo{
		ID:          token.ID,
		Name:        token.Name,
		Description: token.Description,
		CreatedAt:   token.CreatedAt.Format(time.RFC3339),
		IsActive:    token.IsActive,
	}
	if token.ExpiresAt != nil {
		s := token.ExpiresAt.Format(time.RFC3339)
		info.ExpiresAt = &s
	}
	if token.LastUsedAt != nil {
		s := token.LastUsedAt.Format(time.RFC3339)
		info.LastUsedAt = &s
	}
	return info
}

func (h *TokensHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *TokensHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
