package validation

import (
	"fmt"
	"unicode/utf8"
)

// MinPasswordLength минимальная длина пароля в символах.
const MinPasswordLength = 6

// MaxPasswordBytes ограничение bcrypt на длину входа.
const MaxPasswordBytes = 72

// ValidatePassword проверяет пароль на соответствие политике.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("пароль слишком длинный")
	}
	return nil
}
