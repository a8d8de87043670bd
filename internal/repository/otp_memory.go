package repository

import (
	"context"
	"sync"
	"time"

	"github.com/kyberwheel/backend/internal/models"
)

// MemoryOTPStore хранит коды в памяти процесса.
// Состояние не разделяется между экземплярами, подходит только для одного процесса и тестов.
type MemoryOTPStore struct {
	mu    sync.Mutex
	codes map[string]models.OTPCode
}

// NewMemoryOTPStore создаёт пустое хранилище.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{codes: make(map[string]models.OTPCode)}
}

func (s *MemoryOTPStore) Upsert(_ context.Context, code *models.OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code.Phone] = *code
	return nil
}

func (s *MemoryOTPStore) Get(_ context.Context, phone string) (*models.OTPCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[phone]
	if !ok {
		return nil, ErrOTPNotFound
	}
	return &code, nil
}

func (s *MemoryOTPStore) Delete(_ context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, phone)
	return nil
}

// Consume удаляет код под мьютексом, если он совпадает и не истёк.
func (s *MemoryOTPStore) Consume(_ context.Context, phone, code string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.codes[phone]
	if !ok || stored.Code != code || stored.Expired(now) {
		return false, nil
	}
	delete(s.codes, phone)
	return true, nil
}

func (s *MemoryOTPStore) PurgeExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for phone, code := range s.codes {
		if code.ExpiresAt.Before(before) {
			delete(s.codes, phone)
			n++
		}
	}
	return n, nil
}

// Len возвращает количество хранимых кодов.
func (s *MemoryOTPStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.codes)
}
