package domain

import "time"

// User представляет аккаунт сервиса. Владеет ссылками и API токенами.
type User struct {
	ID           int64     `gorm:"primaryKey;column:id" json:"id"`
	Email        string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:password_hash;not null" json:"-"` // скрываем хеш в JSON
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	IsActive     bool      `gorm:"column:is_active;default:true" json:"is_active"`

	// Relationships
	Links     []Link     `gorm:"foreignKey:UserID" json:"links,omitempty"`
	APITokens []APIToken `gorm:"foreignKey:UserID" json:"api_tokens,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (User) TableName() string {
	return "users"
}
