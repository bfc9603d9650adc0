package random

import (
	"fmt"
	"math/rand"
)

// Alphabet набор символов для генерации коротких кодов: цифры, строчные и заглавные буквы.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewCode генерирует случайный короткий код заданной длины из 62-символьного алфавита.
// Генератор не криптографический: защита от коллизий обеспечивается уникальным
// индексом хранилища, а не энтропией кода. Top-level функции math/rand
// безопасны для конкурентного использования.
func NewCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	code := make([]byte, length)
	for i := range code {
		code[i] = Alphabet[rand.Intn(len(Alphabet))]
	}

	return string(code), nil
}
