package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL срок жизни токена сессии.
const DefaultTokenTTL = 7 * 24 * time.Hour

// ErrTokenInvalid возвращается при любой ошибке проверки токена.
var ErrTokenInvalid = errors.New("token invalid")

// Claims полезная нагрузка токена сессии.
type Claims struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет подписанные токены сессии (HS256).
// Токены не хранятся на сервере и не отзываются до истечения срока.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock подменяет часы, используется в тестах.
func (m *TokenManager) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

// Issue выпускает токен для пользователя.
func (m *TokenManager) Issue(userID, email, phone string) (string, error) {
	now := m.now().Truncate(time.Second)
	claims := Claims{
		Email: email,
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token manager: sign: %w", err)
	}
	return signed, nil
}

// Verify проверяет структуру, подпись и срок действия токена и возвращает клеймы.
func (m *TokenManager) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
