package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/repository"
	"github.com/kyberwheel/backend/internal/sms"
	"github.com/kyberwheel/backend/internal/validation"
)

// UserStore описывает зависимости AuthService от хранилища пользователей.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindOrCreateByPhone(ctx context.Context, phone, newID string) (*models.User, bool, error)
}

// OTPStore хранит по одному коду на номер телефона.
type OTPStore interface {
	Upsert(ctx context.Context, code *models.OTPCode) error
	Get(ctx context.Context, phone string) (*models.OTPCode, error)
	Delete(ctx context.Context, phone string) error
	// Consume удаляет код, только если он совпадает и не истёк к now.
	// true означает, что код погашен именно этим вызовом.
	Consume(ctx context.Context, phone, code string, now time.Time) (bool, error)
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// DefaultOTPTTL срок жизни одноразового кода.
const DefaultOTPTTL = 5 * time.Minute

// AuthService инкапсулирует регистрацию, вход по паролю и вход по коду из SMS.
type AuthService struct {
	users  UserStore
	otps   OTPStore
	sender sms.Sender
	tokens *TokenManager
	otpTTL time.Duration
	now    func() time.Time
}

// AuthResult возвращает токен сессии и публичные данные пользователя.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserStore, otps OTPStore, sender sms.Sender, tokens *TokenManager) *AuthService {
	return &AuthService{
		users:  users,
		otps:   otps,
		sender: sender,
		tokens: tokens,
		otpTTL: DefaultOTPTTL,
		now:    time.Now,
	}
}

// WithClock подменяет часы, используется в тестах.
func (s *AuthService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// WithOTPTTL задаёт срок жизни кода.
func (s *AuthService) WithOTPTTL(ttl time.Duration) {
	if ttl > 0 {
		s.otpTTL = ttl
	}
}

// Register создаёт пользователя с паролем и выпускает токен.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = validation.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Validation(err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, apperror.Validation(err.Error())
	}

	// Быстрая проверка, окончательно уникальность гарантирует ограничение в базе.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, apperror.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	passwordHash := string(hash)

	user := &models.User{
		ID:           newID(),
		Email:        &email,
		PasswordHash: &passwordHash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, apperror.ErrEmailTaken
		}
		return nil, apperror.Internal(err)
	}

	logger.Log.WithField("user_id", user.ID).Info("auth service: пользователь зарегистрирован")

	return s.issue(user)
}

// Login проверяет email и пароль. Отсутствующий пользователь и неверный пароль
// дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = validation.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Internal(err)
	}
	if user.PasswordHash == nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.issue(user)
}

// GetSession проверяет токен и возвращает пользователя из его клеймов.
func (s *AuthService) GetSession(_ context.Context, token string) (*models.PublicUser, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}
	return ClaimsUser(claims), nil
}

// ClaimsUser собирает публичного пользователя из проверенных клеймов.
func ClaimsUser(claims *Claims) *models.PublicUser {
	return &models.PublicUser{ID: claims.Subject, Email: claims.Email, Phone: claims.Phone}
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.EmailOrEmpty(), user.PhoneOrEmpty())
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}
