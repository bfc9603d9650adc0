package domain

import "time"

// APIToken представляет API токен для публичного API сокращения ссылок.
// Хранится только SHA-256 хеш секрета: plaintext генерируется один раз,
// возвращается владельцу один раз и нигде не сохраняется.
type APIToken struct {
	ID          string     `gorm:"primaryKey;column:id;size:36" json:"id"` // UUID
	UserID      int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	TokenHash   string     `gorm:"column:token_hash;size:64;uniqueIndex;not null" json:"-"`
	Name        string     `gorm:"column:name;size:100;not null" json:"name"`
	Description *string    `gorm:"column:description;size:500" json:"description,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ExpiresAt   *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	LastUsedAt  *time.Time `gorm:"column:last_used_at" json:"last_used_at,omitempty"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
}

// TableName возвращает название таблицы для GORM
func (APIToken) TableName() string {
	return "api_tokens"
}
