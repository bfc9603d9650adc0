package validate

import (
	"net/url"
	"regexp"
)

// slugRegex допустимый формат пользовательского слага: 2-50 символов, якоря по всей строке.
var slugRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{2,50}$`)

// IsValidURL проверяет, что строка парсится как абсолютный URL со схемой и хостом.
// Ограничение схемы до http/https - отдельная проверка уровнем выше (IsValidHTTPURL).
func IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// IsValidHTTPURL дополнительно к IsValidURL требует схему http или https.
// Публичный API создания ссылок применяет обе проверки вместе.
func IsValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// IsValidCustomSlug проверяет слаг на полное соответствие ^[A-Za-z0-9_-]{2,50}$.
func IsValidCustomSlug(slug string) bool {
	return slugRegex.MatchString(slug)
}
