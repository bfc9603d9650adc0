package service

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"Uplink-Backend/internal/worker"
	"Uplink-Backend/pkg/useragent"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrLinkExpired терминальное состояние редиректа: ссылка найдена, но срок истек.
var ErrLinkExpired = errors.New("link has expired")

// ClickInfo данные клика, снятые с входящего запроса
type ClickInfo struct {
	Referrer  string
	UserAgent string
}

// RedirectService реализует путь чтения: разрешение кода, проверка истечения,
// учет клика, выдача целевого URL.
//
// Состояния: Resolving -> Found|NotFound; Found -> Active|Expired; Active -> Redirected.
// Просроченным ссылкам клики не засчитываются - проверка истечения идет строго
// до любой записи, одинаково для браузерного и JSON путей.
type RedirectService struct {
	storage  repository.Storage
	pool     *worker.Pool
	uaParser *useragent.Parser
	log      *zap.Logger
	now      func() time.Time
}

// NewRedirectService создает новый сервис редиректов
func NewRedirectService(storage repository.Storage, pool *worker.Pool, uaParser *useragent.Parser, log *zap.Logger) *RedirectService {
	return &RedirectService{
		storage:  storage,
		pool:     pool,
		uaParser: uaParser,
		log:      log,
		now:      time.Now,
	}
}

// Resolve возвращает ссылку для редиректа, записав клик.
// Вставка клика и инкремент счетчика происходят до отправки ответа и в одной
// транзакции хранилища; сбой записи - транзиентная ошибка, редиректа без
// учтенного клика не бывает. Обогащение User-Agent уходит в фон.
func (s *RedirectService) Resolve(ctx context.Context, code string, info ClickInfo) (*domain.Link, error) {
	link, err := s.storage.GetLinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, repository.ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	if link.Expired(s.now()) {
		return nil, ErrLinkExpired
	}

	click := &domain.Click{
		LinkID:    link.ID,
		Referrer:  optional(info.Referrer),
		UserAgent: optional(info.UserAgent),
		ClickedAt: s.now(),
	}

	if err := s.storage.RecordClick(ctx, click); err != nil {
		return nil, fmt.Errorf("failed to record click: %w", err)
	}

	s.enrichAsync(click.ID, info.UserAgent)

	s.log.Info("resolved redirect",
		zap.String("code", code),
		zap.String("original_url", link.OriginalURL))

	return link, nil
}

// enrichAsync разбирает User-Agent и дописывает клик в фоне, best-effort
func (s *RedirectService) enrichAsync(clickID int64, userAgent string) {
	if s.pool == nil || s.uaParser == nil || userAgent == "" {
		return
	}

	_ = s.pool.Submit(worker.Task{
		Name: "click-enrich",
		Run: func(ctx context.Context) error {
			info := s.uaParser.Parse(userAgent)
			return s.storage.UpdateClickAgent(ctx, clickID, info.DeviceType, info.Browser, info.OS)
		},
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
