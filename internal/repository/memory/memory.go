package memory

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"context"
	"strings"
	"sync"
	"time"
)

// MemStorage хранит все данные в памяти под одним мьютексом.
// Используется в тестах и локальной разработке. Семантика совпадает с
// postgres-реализацией: вставка ссылки - точка обеспечения уникальности кода,
// запись клика атомарно увеличивает счетчик.
type MemStorage struct {
	mu           sync.RWMutex
	linksByCode  map[string]*domain.Link
	clicks       map[int64]*domain.Click
	tokensByID   map[string]*domain.APIToken
	usersByEmail map[string]*domain.User
	linkCounter  int64
	clickCounter int64
	userCounter  int64
}

func New() *MemStorage {
	return &MemStorage{
		linksByCode:  make(map[string]*domain.Link),
		clicks:       make(map[int64]*domain.Click),
		tokensByID:   make(map[string]*domain.APIToken),
		usersByEmail: make(map[string]*domain.User),
	}
}

// --- User Methods ---

func (s *MemStorage) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.usersByEmail[key]; exists {
		return repository.ErrUserExists
	}

	s.userCounter++
	user.ID = s.userCounter
	user.CreatedAt = time.Now()
	user.IsActive = true
	s.usersByEmail[key] = user
	return nil
}

func (s *MemStorage) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok || !user.IsActive {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *MemStorage) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.usersByEmail {
		if user.ID == id && user.IsActive {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// --- Link Methods ---

func (s *MemStorage) CreateLink(_ context.Context, link *domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.linksByCode[link.ShortCode]; exists {
		return repository.ErrCodeTaken
	}

	s.linkCounter++
	link.ID = s.linkCounter
	link.CreatedAt = time.Now()
	s.linksByCode[link.ShortCode] = link
	return nil
}

func (s *MemStorage) GetLinkByCode(_ context.Context, code string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	link, ok := s.linksByCode[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (s *MemStorage) CodeExists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.linksByCode[code]
	return ok, nil
}

func (s *MemStorage) DeleteLink(_ context.Context, code string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.linksByCode[code]
	if !ok || link.UserID != userID {
		return repository.ErrLinkNotFound
	}

	// Сначала клики - каскадное удаление
	for id, click := range s.clicks {
		if click.LinkID == link.ID {
			delete(s.clicks, id)
		}
	}
	delete(s.linksByCode, code)
	return nil
}

func (s *MemStorage) ListUserLinks(_ context.Context, userID int64) ([]*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userLinks []*domain.Link
	for _, link := range s.linksByCode {
		if link.UserID == userID {
			cp := *link
			userLinks = append(userLinks, &cp)
		}
	}
	return userLinks, nil
}

// --- Click Methods ---

func (s *MemStorage) RecordClick(_ context.Context, click *domain.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var link *domain.Link
	for _, l := range s.linksByCode {
		if l.ID == click.LinkID {
			link = l
			break
		}
	}
	if link == nil {
		return repository.ErrLinkNotFound
	}

	s.clickCounter++
	click.ID = s.clickCounter
	if click.ClickedAt.IsZero() {
		click.ClickedAt = time.Now()
	}
	s.clicks[click.ID] = click
	link.ClickCount++
	return nil
}

func (s *MemStorage) UpdateClickAgent(_ context.Context, clickID int64, deviceType, browser, os string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	click, ok := s.clicks[clickID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	click.DeviceType = &deviceType
	click.Browser = &browser
	click.OS = &os
	return nil
}

func (s *MemStorage) CountClicks(_ context.Context, linkID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, click := range s.clicks {
		if click.LinkID == linkID {
			count++
		}
	}
	return count, nil
}

func (s *MemStorage) GetClicksByDevice(_ context.Context, linkID int64) (map[string]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDevice := make(map[string]int64)
	for _, click := range s.clicks {
		if click.LinkID != linkID {
			continue
		}
		device := "unknown"
		if click.DeviceType != nil {
			device = *click.DeviceType
		}
		byDevice[device]++
	}
	return byDevice, nil
}

// --- API Token Methods ---

func (s *MemStorage) CreateToken(_ context.Context, token *domain.APIToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	s.tokensByID[token.ID] = token
	return nil
}

func (s *MemStorage) GetTokenByHash(_ context.Context, hash string) (*domain.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, token := range s.tokensByID {
		if token.TokenHash == hash {
			cp := *token
			return &cp, nil
		}
	}
	return nil, repository.ErrTokenNotFound
}

func (s *MemStorage) ListUserTokens(_ context.Context, userID int64) ([]*domain.APIToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var tokens []*domain.APIToken
	for _, token := range s.tokensByID {
		if token.UserID == userID {
			cp := *token
			tokens = append(tokens, &cp)
		}
	}
	return tokens, nil
}

func (s *MemStorage) RevokeToken(_ context.Context, id string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[id]
	if !ok || token.UserID != userID {
		return repository.ErrTokenNotFound
	}
	token.IsActive = false
	return nil
}

func (s *MemStorage) DeleteToken(_ context.Context, id string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[id]
	if !ok || token.UserID != userID {
		return repository.ErrTokenNotFound
	}
	delete(s.tokensByID, id)
	return nil
}

func (s *MemStorage) TouchToken(_ context.Context, id string, usedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokensByID[id]
	if !ok {
		return repository.ErrTokenNotFound
	}
	token.LastUsedAt = &usedAt
	return nil
}
