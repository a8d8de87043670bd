package service

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// newID возвращает 128-битный случайный идентификатор в виде 32 hex-символов.
func newID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
