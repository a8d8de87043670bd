package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/repository"
)

const (
	defaultOTPPrefix = "otp:phone"

	fieldCode      = "code"
	fieldExpiresAt = "expires_at"

	// retention сколько ключ живёт после истечения кода, чтобы проверка могла отличить
	// истёкший код от незапрошенного.
	retention = time.Hour
)

// consumeScript удаляет ключ, только если код совпадает и expires_at (мс) не меньше now.
var consumeScript = red.NewScript(`
local code = redis.call("HGET", KEYS[1], "code")
if not code or code ~= ARGV[1] then
	return 0
end
local expires = tonumber(redis.call("HGET", KEYS[1], "expires_at"))
if not expires or expires < tonumber(ARGV[2]) then
	return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

// OTPStore хранит коды в Redis: hash на номер, ключ удаляется самим Redis по TTL.
type OTPStore struct {
	client *red.Client
	prefix string
}

// NewOTPStore создаёт хранилище с заданным префиксом ключей.
func NewOTPStore(client *red.Client, keyPrefix string) *OTPStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultOTPPrefix
	}
	return &OTPStore{client: client, prefix: prefix}
}

// Upsert сохраняет код, перезаписывая предыдущий.
func (s *OTPStore) Upsert(ctx context.Context, code *models.OTPCode) error {
	key := s.key(code.Phone)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		fieldCode:      code.Code,
		fieldExpiresAt: strconv.FormatInt(code.ExpiresAt.UnixMilli(), 10),
	})
	pipe.ExpireAt(ctx, key, code.ExpiresAt.Add(retention))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis otp store: upsert %w", err)
	}
	return nil
}

// Get возвращает код номера.
func (s *OTPStore) Get(ctx context.Context, phone string) (*models.OTPCode, error) {
	values, err := s.client.HGetAll(ctx, s.key(phone)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis otp store: get %w", err)
	}
	code := strings.TrimSpace(values[fieldCode])
	if len(values) == 0 || code == "" {
		return nil, repository.ErrOTPNotFound
	}

	ms, err := strconv.ParseInt(values[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("redis otp store: parse expires_at: %w", err)
	}

	return &models.OTPCode{
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.UnixMilli(ms).UTC(),
	}, nil
}

// Delete удаляет код номера.
func (s *OTPStore) Delete(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, s.key(phone)).Err(); err != nil && !errors.Is(err, red.Nil) {
		return fmt.Errorf("redis otp store: delete %w", err)
	}
	return nil
}

// Consume атомарно удаляет совпавший и неистёкший код.
func (s *OTPStore) Consume(ctx context.Context, phone, code string, now time.Time) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{s.key(phone)}, code, now.UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("redis otp store: consume %w", err)
	}
	return n == 1, nil
}

// PurgeExpired ничего не делает: просроченные ключи удаляет Redis.
func (s *OTPStore) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *OTPStore) key(phone string) string {
	return s.prefix + ":" + phone
}
