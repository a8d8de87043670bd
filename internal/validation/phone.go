package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// CountryCode код страны в каноническом номере.
	CountryCode = "7"
	// TrunkPrefix национальный префикс, который заменяется кодом страны.
	TrunkPrefix = "8"
)

var canonicalPhoneRegex = regexp.MustCompile(`^7\d{10}$`)

// NormalizePhone убирает всё, кроме цифр, и приводит номер к международному виду 7XXXXXXXXXX.
// Номера другой длины возвращаются только цифрами и не пройдут IsValidPhone.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)

	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, TrunkPrefix):
		return CountryCode + digits[1:]
	case len(digits) == 10:
		return CountryCode + digits
	default:
		return digits
	}
}

// IsValidPhone проверяет канонический номер.
func IsValidPhone(canonical string) bool {
	return canonicalPhoneRegex.MatchString(canonical)
}

// ValidatePhone нормализует номер и возвращает ошибку, если он некорректен.
func ValidatePhone(raw string) (string, error) {
	phone := NormalizePhone(raw)
	if phone == "" {
		return "", fmt.Errorf("номер телефона обязателен")
	}
	if !IsValidPhone(phone) {
		return "", fmt.Errorf("некорректный номер телефона")
	}
	return phone, nil
}
