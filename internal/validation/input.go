package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MaxEmailLength       = 254
	MinMessageLength     = 1
	MaxMessageLength     = 10000
	MaxChatMessagesCount = 50
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._%+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+)*\.[a-z]{2,}$`)
)

// NormalizeEmail приводит email к каноническому виду: без пробелов по краям и в нижнем регистре.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email. Ожидает уже нормализованное значение.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("некорректный email")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный email")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("некорректный email")
	}
	if strings.HasPrefix(localPart, ".") || strings.HasSuffix(localPart, ".") || strings.Contains(localPart, "..") {
		return fmt.Errorf("некорректный email")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("некорректный email")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("некорректный email")
	}

	return nil
}

// ValidateMessageContent проверяет содержимое сообщения чата.
func ValidateMessageContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}

	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}
