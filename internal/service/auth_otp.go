package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/repository"
	"github.com/kyberwheel/backend/internal/sms"
	"github.com/kyberwheel/backend/internal/validation"
)

const (
	otpMin = 100000
	otpMax = 999999

	// OTPSentMessage ответ на успешную отправку кода.
	OTPSentMessage = "Код отправлен"
)

var (
	errDeliveryInvalidNumber = apperror.New(apperror.ErrCodeDelivery, "не удалось отправить SMS на этот номер")
	errDeliveryFailed        = apperror.New(apperror.ErrCodeDelivery, "Ошибка отправки SMS. Проверьте номер.")
)

// PurgeExpiredOTP удаляет коды, истёкшие к текущему моменту.
func (s *AuthService) PurgeExpiredOTP(ctx context.Context) (int64, error) {
	n, err := s.otps.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Log.WithField("purged", n).Debug("auth service: удалены истёкшие коды")
	}
	return n, nil
}

// RequestOTP выдаёт новый код для номера и отправляет его в SMS.
// Предыдущий код номера перестаёт действовать.
func (s *AuthService) RequestOTP(ctx context.Context, rawPhone string) error {
	phone, err := validation.ValidatePhone(rawPhone)
	if err != nil {
		return apperror.Validation(err.Error())
	}

	now := s.now()
	if _, err := s.PurgeExpiredOTP(ctx); err != nil {
		logger.Log.WithError(err).Warn("auth service: не удалось очистить истёкшие коды")
	}

	code, err := generateOTP()
	if err != nil {
		return apperror.Internal(err)
	}

	record := &models.OTPCode{
		Phone:     phone,
		Code:      code,
		ExpiresAt: now.Add(s.otpTTL),
	}
	if err := s.otps.Upsert(ctx, record); err != nil {
		return apperror.Internal(err)
	}

	if err := s.sender.Send(ctx, phone, "Ваш код входа: "+code); err != nil {
		return deliveryError(phone, err)
	}

	logger.Log.WithField("phone", phone).Info("auth service: код отправлен")
	return nil
}

// VerifyOTP проверяет код и при совпадении выпускает токен сессии.
// Пользователь создаётся при первом входе с этим номером.
func (s *AuthService) VerifyOTP(ctx context.Context, rawPhone, submitted string) (*AuthResult, error) {
	phone, err := validation.ValidatePhone(rawPhone)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	submitted = strings.TrimSpace(submitted)
	if submitted == "" {
		return nil, apperror.Validation("код обязателен")
	}

	record, err := s.otps.Get(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return nil, apperror.ErrOTPNotRequested
		}
		return nil, apperror.Internal(err)
	}

	if record.Expired(s.now()) {
		if err := s.otps.Delete(ctx, phone); err != nil {
			logger.Log.WithError(err).WithField("phone", phone).Warn("auth service: не удалось удалить истёкший код")
		}
		return nil, apperror.ErrOTPExpired
	}

	if record.Code != submitted {
		return nil, apperror.ErrOTPMismatch
	}

	// Код одноразовый: сессию получает только тот, кто его погасил.
	consumed, err := s.otps.Consume(ctx, phone, submitted, s.now())
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !consumed {
		return nil, apperror.ErrOTPNotRequested
	}

	user, created, err := s.users.FindOrCreateByPhone(ctx, phone, newID())
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if created {
		logger.Log.WithField("user_id", user.ID).Info("auth service: создан пользователь по номеру телефона")
	}

	return s.issue(user)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", fmt.Errorf("auth service: generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpMin), nil
}

// deliveryError переводит ошибку провайдера в безопасную для пользователя.
// Подробности провайдера остаются в логе.
func deliveryError(phone string, err error) error {
	entry := logger.Log.WithFields(logrus.Fields{
		"phone": phone,
		"error": err.Error(),
	})

	if errors.Is(err, sms.ErrNotConfigured) || errors.Is(err, sms.ErrUnauthorized) {
		entry.Error("auth service: SMS провайдер не настроен")
		return apperror.Wrap(err, apperror.ErrCodeDeliveryMisconfigured, apperror.ErrSMSMisconfigured.Message)
	}

	var perr *sms.ProviderError
	if errors.As(err, &perr) {
		entry = entry.WithField("provider_status", perr.Status)
		switch perr.Category() {
		case sms.CategoryInvalidNumber:
			entry.Warn("auth service: провайдер отклонил номер")
			return apperror.Wrap(err, apperror.ErrCodeDelivery, errDeliveryInvalidNumber.Message)
		case sms.CategoryAccount:
			entry.Error("auth service: проблема с аккаунтом SMS провайдера")
			return apperror.Wrap(err, apperror.ErrCodeDeliveryMisconfigured, apperror.ErrSMSMisconfigured.Message)
		default:
			entry.Warn("auth service: ошибка SMS провайдера")
			return apperror.Wrap(err, apperror.ErrCodeDelivery, errDeliveryFailed.Message)
		}
	}

	entry.Error("auth service: SMS провайдер недоступен")
	return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отправить SMS, попробуйте позже")
}
