// Package sms отправляет SMS с кодами подтверждения через внешнего провайдера.
package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Sender доставляет текстовое сообщение на номер телефона.
type Sender interface {
	Send(ctx context.Context, phone, text string) error
}

var (
	// ErrNotConfigured означает, что у клиента нет учётных данных провайдера.
	ErrNotConfigured = errors.New("sms: provider credentials not configured")
	// ErrUnauthorized означает, что провайдер отклонил учётные данные.
	ErrUnauthorized = errors.New("sms: provider rejected credentials")
)

// Category грубая классификация ошибок провайдера для безопасных сообщений пользователю.
type Category int

const (
	CategoryUnknown Category = iota
	// CategoryInvalidNumber номер отклонён провайдером.
	CategoryInvalidNumber
	// CategoryAccount проблема на стороне аккаунта: баланс, подпись отправителя, тариф.
	CategoryAccount
)

// ProviderError ошибка, которую вернул провайдер в ответе.
type ProviderError struct {
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("sms: provider error (status %d): %s", e.Status, e.Message)
}

// Category определяет категорию ошибки по словам в тексте провайдера.
func (e *ProviderError) Category() Category {
	words := messageWords(e.Message)
	switch {
	case hasWord(words, "balance", "money", "sign", "signature", "tariff") ||
		hasStem(words, "баланс", "подпис", "тариф"):
		return CategoryAccount
	case hasWord(words, "number", "phone") || hasStem(words, "номер", "телефон"):
		return CategoryInvalidNumber
	default:
		return CategoryUnknown
	}
}

// messageWords разбивает текст на слова в нижнем регистре.
func messageWords(msg string) []string {
	return strings.FieldsFunc(strings.ToLower(msg), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hasWord ищет точное совпадение слова.
func hasWord(words []string, targets ...string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}

// hasStem ищет слово, начинающееся с основы. Нужен для русских окончаний.
func hasStem(words []string, stems ...string) bool {
	for _, w := range words {
		for _, st := range stems {
			if strings.HasPrefix(w, st) {
				return true
			}
		}
	}
	return false
}
