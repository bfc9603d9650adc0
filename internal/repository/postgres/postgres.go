package postgres

import (
	"Uplink-Backend/internal/domain"
	"Uplink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage реализует интерфейс Storage для PostgreSQL
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

// New создает новый экземпляр PostgreSQL storage
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- User Methods ---

// CreateUser создает нового пользователя
func (s *PostgresStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrUserExists
		}
		s.log.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail получает активного пользователя по email
func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("email = ? AND is_active = ?", email, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByID получает активного пользователя по ID
func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var user domain.User
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user by id", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// --- Link Methods ---

// CreateLink сохраняет новую ссылку. Гарантия уникальности short_code - уникальный
// индекс таблицы: нарушение транслируется в ErrCodeTaken. Предварительная проверка
// CodeExists нужна только для дружелюбной ошибки, гонку check-then-insert закрывает
// именно этот insert.
func (s *PostgresStorage) CreateLink(ctx context.Context, link *domain.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrCodeTaken
		}
		s.log.Error("failed to create link", zap.String("code", link.ShortCode), zap.Error(err))
		return fmt.Errorf("failed to create link: %w", err)
	}

	s.log.Info("created link", zap.String("code", link.ShortCode), zap.Int64("user_id", link.UserID))
	return nil
}

// GetLinkByCode получает ссылку по короткому коду.
// Проверка срока действия - ответственность вызывающего (RedirectService),
// поэтому просроченные ссылки здесь не отфильтровываются.
func (s *PostgresStorage) GetLinkByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link
	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// CodeExists проверяет, занят ли короткий код
func (s *PostgresStorage) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check code existence", zap.String("code", code), zap.Error(err))
		return false, fmt.Errorf("failed to check code: %w", err)
	}
	return count > 0, nil
}

// DeleteLink удаляет ссылку пользователя вместе с кликами.
// Клики удаляются первыми - у них нет самостоятельного жизненного цикла.
func (s *PostgresStorage) DeleteLink(ctx context.Context, code string, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link domain.Link
		err := tx.Where("short_code = ? AND user_id = ?", code, userID).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrLinkNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get link for deletion: %w", err)
		}

		if err := tx.Where("link_id = ?", link.ID).Delete(&domain.Click{}).Error; err != nil {
			return fmt.Errorf("failed to delete clicks: %w", err)
		}

		if err := tx.Delete(&link).Error; err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}

		s.log.Info("deleted link", zap.String("code", code), zap.Int64("user_id", userID))
		return nil
	})
}

// ListUserLinks возвращает список ссылок пользователя
func (s *PostgresStorage) ListUserLinks(ctx context.Context, userID int64) ([]*domain.Link, error) {
	var links []*domain.Link
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&links).Error
	if err != nil {
		s.log.Error("failed to list user links", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list user links: %w", err)
	}
	return links, nil
}

// --- Click Methods ---

// RecordClick записывает клик и увеличивает счетчик ссылки в одной транзакции.
// Инкремент выполняется на стороне БД (click_count = click_count + 1), никогда
// через read-modify-write: конкурентные редиректы не теряют обновления.
func (s *PostgresStorage) RecordClick(ctx context.Context, click *domain.Click) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(click).Error; err != nil {
			return fmt.Errorf("failed to create click: %w", err)
		}

		result := tx.Model(&domain.Link{}).Where("id = ?", click.LinkID).
			Update("click_count", gorm.Expr("click_count + 1"))
		if result.Error != nil {
			return fmt.Errorf("failed to increment click count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return repository.ErrLinkNotFound
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrLinkNotFound) {
			s.log.Error("failed to record click", zap.Int64("link_id", click.LinkID), zap.Error(err))
		}
		return err
	}

	return nil
}

// UpdateClickAgent заполняет поля обогащения клика после разбора User-Agent
func (s *PostgresStorage) UpdateClickAgent(ctx context.Context, clickID int64, deviceType, browser, os string) error {
	err := s.db.WithContext(ctx).Model(&domain.Click{}).Where("id = ?", clickID).
		Updates(map[string]interface{}{
			"device_type": deviceType,
			"browser":     browser,
			"os":          os,
		}).Error
	if err != nil {
		s.log.Error("failed to update click agent info", zap.Int64("click_id", clickID), zap.Error(err))
		return fmt.Errorf("failed to update click: %w", err)
	}
	return nil
}

// CountClicks возвращает количество записей кликов ссылки.
// Это авторитетный счетчик: кешированное поле click_count сходится к нему.
func (s *PostgresStorage) CountClicks(ctx context.Context, linkID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Click{}).Where("link_id = ?", linkID).Count(&count).Error
	if err != nil {
		s.log.Error("failed to count clicks", zap.Int64("link_id", linkID), zap.Error(err))
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}
	return count, nil
}

// GetClicksByDevice возвращает статистику кликов по типам устройств для ссылки
func (s *PostgresStorage) GetClicksByDevice(ctx context.Context, linkID int64) (map[string]int64, error) {
	var results []struct {
		DeviceType string `gorm:"column:device_type"`
		Count      int64  `gorm:"column:count"`
	}

	err := s.db.WithContext(ctx).
		Model(&domain.Click{}).
		Select("COALESCE(device_type, 'unknown') as device_type, count(*) as count").
		Where("link_id = ?", linkID).
		Group("device_type").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to get clicks by device", zap.Int64("link_id", linkID), zap.Error(err))
		return nil, fmt.Errorf("failed to get clicks by device: %w", err)
	}

	clicksByDevice := make(map[string]int64)
	for _, result := range results {
		clicksByDevice[result.DeviceType] = result.Count
	}
	return clicksByDevice, nil
}

// --- API Token Methods ---

// CreateToken сохраняет новый API токен (только хеш секрета)
func (s *PostgresStorage) CreateToken(ctx context.Context, token *domain.APIToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		s.log.Error("failed to create api token", zap.String("token_id", token.ID), zap.Error(err))
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// GetTokenByHash находит токен по хешу секрета
func (s *PostgresStorage) GetTokenByHash(ctx context.Context, hash string) (*domain.APIToken, error) {
	var token domain.APIToken
	err := s.db.WithContext(ctx).Where("token_hash = ?", hash).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrTokenNotFound
	}
	if err != nil {
		s.log.Error("failed to get token by hash", zap.Error(err))
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &token, nil
}

// ListUserTokens возвращает токены пользователя (хеши не покидают слой хранения)
func (s *PostgresStorage) ListUserTokens(ctx context.Context, userID int64) ([]*domain.APIToken, error) {
	var tokens []*domain.APIToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Find(&tokens).Error
	if err != nil {
		s.log.Error("failed to list user tokens", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// RevokeToken деактивирует токен пользователя
func (s *PostgresStorage) RevokeToken(ctx context.Context, id string, userID int64) error {
	result := s.db.WithContext(ctx).Model(&domain.APIToken{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if result.Error != nil {
		s.log.Error("failed to revoke token", zap.String("token_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to revoke token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrTokenNotFound
	}

	s.log.Info("revoked api token", zap.String("token_id", id), zap.Int64("user_id", userID))
	return nil
}

// DeleteToken удаляет токен пользователя
func (s *PostgresStorage) DeleteToken(ctx context.Context, id string, userID int64) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.APIToken{})
	if result.Error != nil {
		s.log.Error("failed to delete token", zap.String("token_id", id), zap.Error(result.Error))
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrTokenNotFound
	}
	return nil
}

// TouchToken обновляет отметку последнего использования токена
func (s *PostgresStorage) TouchToken(ctx context.Context, id string, usedAt time.Time) error {
	err := s.db.WithContext(ctx).Model(&domain.APIToken{}).
		Where("id = ?", id).
		Update("last_used_at", usedAt).Error
	if err != nil {
		s.log.Error("failed to touch token", zap.String("token_id", id), zap.Error(err))
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}
