package domain

import "time"

// Link представляет сокращенную ссылку.
// ShortCode глобально уникален - это обеспечивает уникальный индекс хранилища,
// а не проверка перед вставкой. ExpiresAt равен nil тогда и только тогда,
// когда IsPermanent = true.
type Link struct {
	ID           int64      `gorm:"primaryKey;column:id" json:"id"`
	UserID       int64      `gorm:"column:user_id;not null;index" json:"user_id"`
	OriginalURL  string     `gorm:"column:original_url;type:text;not null" json:"original_url"`
	ShortCode    string     `gorm:"column:short_code;size:50;uniqueIndex;not null" json:"short_code"`
	IsCustomSlug bool       `gorm:"column:is_custom_slug;not null;default:false" json:"is_custom_slug"`
	IsPermanent  bool       `gorm:"column:is_permanent;not null;default:false" json:"is_permanent"`
	ExpiresAt    *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	ClickCount   int64      `gorm:"column:click_count;not null;default:0" json:"click_count"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	// Relationships
	Clicks []Click `gorm:"foreignKey:LinkID" json:"clicks,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (Link) TableName() string {
	return "links"
}

// Expired сообщает, истек ли срок действия ссылки на момент now.
func (l *Link) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}
