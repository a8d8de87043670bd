package common

import (
	"errors"

	"github.com/lib/pq"
)

// pgUniqueViolation код ошибки PostgreSQL при нарушении уникального ограничения.
const pgUniqueViolation = "23505"

// IsUniqueViolation сообщает, нарушено ли уникальное ограничение, и возвращает его имя.
func IsUniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
