package auth

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"Uplink-Backend/internal/worker"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenPrefix фиксированный тег секрета: токены сервиса узнаваемы по виду.
const TokenPrefix = "uplink_"

const tokenSecretBytes = 32

var (
	ErrMissingHeader           = errors.New("missing authorization header")
	ErrMalformedHeader         = errors.New("malformed authorization header")
	ErrTokenNotFound           = errors.New("api token not found")
	ErrTokenInactive           = errors.New("api token is disabled")
	ErrTokenExpired            = errors.New("api token has expired")
	ErrInvalidExpirationPeriod = errors.New("invalid expiration period")
)

// expirationPeriods допустимые сроки жизни токена. Пустая строка - бессрочный.
var expirationPeriods = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// TokenService выпускает и проверяет API токены публичного API.
// Хранится только SHA-256 хеш секрета: plaintext возвращается владельцу
// ровно один раз при выпуске.
type TokenService struct {
	storage repository.Storage
	pool    *worker.Pool
	log     *zap.Logger
	now     func() time.Time
}

// NewTokenService создает новый сервис API токенов
func NewTokenService(storage repository.Storage, pool *worker.Pool, log *zap.Logger) *TokenService {
	return &TokenService{
		storage: storage,
		pool:    pool,
		log:     log,
		now:     time.Now,
	}
}

// Issue выпускает новый токен и возвращает plaintext секрет вместе с записью.
// expiresIn должен быть одним из "7d", "30d", "90d", "1y" или пустым (бессрочно).
func (s *TokenService) Issue(ctx context.Context, userID int64, name string, description *string, expiresIn string) (string, *domain.APIToken, error) {
	var expiresAt *time.Time
	if expiresIn != "" {
		ttl, ok := expirationPeriods[expiresIn]
		if !ok {
			return "", nil, ErrInvalidExpirationPeriod
		}
		t := s.now().Add(ttl)
		expiresAt = &t
	}

	secret, err := GenerateSecret()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token secret: %w", err)
	}

	token := &domain.APIToken{
		ID:          uuid.NewString(),
		UserID:      userID,
		TokenHash:   HashSecret(secret),
		Name:        name,
		Description: description,
		ExpiresAt:   expiresAt,
		IsActive:    true,
	}

	if err := s.storage.CreateToken(ctx, token); err != nil {
		return "", nil, fmt.Errorf("failed to persist token: %w", err)
	}

	s.log.Info("issued api token",
		zap.String("token_id", token.ID),
		zap.Int64("user_id", userID),
		zap.String("expires_in", expiresIn))

	return secret, token, nil
}

// Authenticate проверяет значение заголовка Authorization и возвращает запись
// токена владельца. Отметка последнего использования обновляется асинхронно:
// ее сбой никогда не валит запрос.
func (s *TokenService) Authenticate(ctx context.Context, authHeader string) (*domain.APIToken, error) {
	if authHeader == "" {
		return nil, ErrMissingHeader
	}

	secret := ExtractTokenFromBearer(authHeader)
	if secret == "" || !strings.HasPrefix(secret, TokenPrefix) {
		return nil, ErrMalformedHeader
	}

	presentedHash := HashSecret(secret)
	token, err := s.storage.GetTokenByHash(ctx, presentedHash)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	// Сравнение за постоянное время: время выполнения не зависит от позиции
	// первого несовпадающего байта
	if subtle.ConstantTimeCompare([]byte(presentedHash), []byte(token.TokenHash)) != 1 {
		return nil, ErrTokenNotFound
	}

	if !token.IsActive {
		return nil, ErrTokenInactive
	}

	if token.ExpiresAt != nil && s.now().After(*token.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	s.touchAsync(token.ID)

	return token, nil
}

// touchAsync обновляет last_used_at в фоне, best-effort
func (s *TokenService) touchAsync(tokenID string) {
	if s.pool == nil {
		return
	}

	usedAt := s.now()
	_ = s.pool.Submit(worker.Task{
		Name: "token-touch",
		Run: func(ctx context.Context) error {
			return s.storage.TouchToken(ctx, tokenID, usedAt)
		},
	})
}

// GenerateSecret генерирует секрет токена: uplink_ + base64url(32 случайных байта)
func GenerateSecret() (string, error) {
	raw := make([]byte, tokenSecretBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return TokenPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// HashSecret возвращает hex-представление SHA-256 хеша секрета
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
