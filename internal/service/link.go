package service

import (
	"Uplink-Backend/internal/config"
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"Uplink-Backend/pkg/random"
	"Uplink-Backend/pkg/validate"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// linkTTL срок жизни непостоянной ссылки. Единственное правило истечения:
// permanent=true - никогда, permanent=false - 30 дней.
const linkTTL = 30 * 24 * time.Hour

var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidSlug         = errors.New("invalid custom slug")
	ErrSlugTaken           = errors.New("slug already taken")
	ErrGenerationExhausted = errors.New("failed to generate unique short code")
)

// ShortenInput параметры создания короткой ссылки
type ShortenInput struct {
	URL       string
	Slug      string // пустая строка - сгенерировать код
	Permanent bool
}

// LinkService реализует путь создания ссылки: валидация, разрешение кода,
// политика истечения, сохранение.
type LinkService struct {
	storage repository.Storage
	config  *config.Shortener
	log     *zap.Logger
	now     func() time.Time
}

// NewLinkService создает новый сервис создания ссылок
func NewLinkService(storage repository.Storage, cfg *config.Shortener, log *zap.Logger) *LinkService {
	return &LinkService{
		storage: storage,
		config:  cfg,
		log:     log,
		now:     time.Now,
	}
}

// Shorten создает короткую ссылку для пользователя.
// Проверка существования кода перед вставкой - только быстрый путь для
// дружелюбной ошибки: гонку двух конкурентных запросов с одинаковым слагом
// закрывает уникальный индекс хранилища, нарушение которого CreateLink
// возвращает как ErrCodeTaken.
func (s *LinkService) Shorten(ctx context.Context, userID int64, in ShortenInput) (*domain.Link, error) {
	if in.URL == "" || !validate.IsValidHTTPURL(in.URL) {
		return nil, ErrInvalidURL
	}

	if in.Slug != "" {
		return s.shortenWithSlug(ctx, userID, in)
	}
	return s.shortenGenerated(ctx, userID, in)
}

func (s *LinkService) shortenWithSlug(ctx context.Context, userID int64, in ShortenInput) (*domain.Link, error) {
	if !validate.IsValidCustomSlug(in.Slug) {
		return nil, ErrInvalidSlug
	}

	// Быстрый путь: заранее сообщаем о занятом слаге
	exists, err := s.storage.CodeExists(ctx, in.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug existence: %w", err)
	}
	if exists {
		return nil, ErrSlugTaken
	}

	link := s.newLink(userID, in.URL, in.Slug, true, in.Permanent)
	if err := s.storage.CreateLink(ctx, link); err != nil {
		if errors.Is(err, repository.ErrCodeTaken) {
			// Конкурентный запрос успел вставить тот же слаг между проверкой и вставкой
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	return link, nil
}

func (s *LinkService) shortenGenerated(ctx context.Context, userID int64, in ShortenInput) (*domain.Link, error) {
	for attempt := 0; attempt < s.config.MaxAttempts; attempt++ {
		code, err := random.NewCode(s.config.CodeLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		exists, err := s.storage.CodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to check code existence: %w", err)
		}
		if exists {
			continue
		}

		link := s.newLink(userID, in.URL, code, false, in.Permanent)
		err = s.storage.CreateLink(ctx, link)
		if err == nil {
			return link, nil
		}
		if errors.Is(err, repository.ErrCodeTaken) {
			// Коллизия на вставке - пробуем следующий кандидат
			continue
		}
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	// Исчерпание при пространстве 62^8 сигнализирует о проблеме хранилища,
	// а не о реальном дефиците кодов
	s.log.Error("short code generation exhausted",
		zap.Int("attempts", s.config.MaxAttempts),
		zap.Int("code_length", s.config.CodeLength))
	return nil, ErrGenerationExhausted
}

func (s *LinkService) newLink(userID int64, url, code string, custom, permanent bool) *domain.Link {
	return &domain.Link{
		UserID:       userID,
		OriginalURL:  url,
		ShortCode:    code,
		IsCustomSlug: custom,
		IsPermanent:  permanent,
		ExpiresAt:    computeExpiration(permanent, s.now()),
		ClickCount:   0,
	}
}

// computeExpiration вычисляет срок действия: nil тогда и только тогда,
// когда ссылка постоянная.
func computeExpiration(permanent bool, now time.Time) *time.Time {
	if permanent {
		return nil
	}
	t := now.Add(linkTTL)
	return &t
}
