package domain

import "time"

// Click представляет один успешный редирект по сокращенной ссылке.
// Запись иммутабельна после создания, за исключением полей обогащения
// (DeviceType/Browser/OS), которые заполняет фоновый обработчик User-Agent.
type Click struct {
	ID         int64     `gorm:"primaryKey;column:id" json:"id"`
	LinkID     int64     `gorm:"column:link_id;not null;index" json:"link_id"`
	Referrer   *string   `gorm:"column:referrer;size:500" json:"referrer,omitempty"`
	UserAgent  *string   `gorm:"column:user_agent;type:text" json:"user_agent,omitempty"`
	DeviceType *string   `gorm:"column:device_type;size:10" json:"device_type,omitempty"` // 'desktop', 'mobile', 'tablet', 'bot'
	Browser    *string   `gorm:"column:browser;size:50" json:"browser,omitempty"`
	OS         *string   `gorm:"column:os;size:50" json:"os,omitempty"`
	ClickedAt  time.Time `gorm:"column:clicked_at;autoCreateTime;index" json:"clicked_at"`

	// Relationships
	Link *Link `gorm:"foreignKey:LinkID" json:"link,omitempty"`
}

// TableName возвращает название таблицы для GORM
func (Click) TableName() string {
	return "clicks"
}
