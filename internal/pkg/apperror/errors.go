package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeValidation            ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict              ErrorCode = "CONFLICT"
	ErrCodeUnauthorized          ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound              ErrorCode = "NOT_FOUND"
	ErrCodeOTPNotRequested       ErrorCode = "OTP_NOT_REQUESTED"
	ErrCodeOTPExpired            ErrorCode = "OTP_EXPIRED"
	ErrCodeOTPMismatch           ErrorCode = "OTP_MISMATCH"
	ErrCodeDelivery              ErrorCode = "DELIVERY_ERROR"
	ErrCodeDeliveryMisconfigured ErrorCode = "DELIVERY_MISCONFIGURED"
	ErrCodeAI                    ErrorCode = "AI_ERROR"
	ErrCodeAIRateLimited         ErrorCode = "AI_RATE_LIMITED"
	ErrCodeRateLimited           ErrorCode = "RATE_LIMITED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// AppError несёт код ошибки, сообщение для пользователя и исходную причину.
// Причина попадает только в логи.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду, чтобы errors.Is работал с обёрнутыми копиями.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с заданным сообщением.
func Validation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// Internal оборачивает внутреннюю ошибку с безопасным сообщением.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternal, "внутренняя ошибка сервера")
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidation, ErrCodeOTPNotRequested, ErrCodeOTPExpired, ErrCodeOTPMismatch, ErrCodeDelivery:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeAIRateLimited, ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или ErrCodeInternal для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsValidation(err error) bool {
	return CodeOf(err) == ErrCodeValidation
}

var (
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверный email или пароль")
	ErrAuthRequired       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrInvalidToken       = New(ErrCodeUnauthorized, "невалидный токен")
	ErrEmailTaken         = New(ErrCodeConflict, "пользователь с таким email уже существует")
	ErrOTPNotRequested    = New(ErrCodeOTPNotRequested, "сначала запросите код")
	ErrOTPExpired         = New(ErrCodeOTPExpired, "код истёк, запросите новый")
	ErrOTPMismatch        = New(ErrCodeOTPMismatch, "неверный код")
	ErrSMSMisconfigured   = New(ErrCodeDeliveryMisconfigured, "сервис SMS временно недоступен")
	ErrChatEntryNotFound  = New(ErrCodeNotFound, "запись не найдена")
)

// Response тело ответа с ошибкой.
type Response struct {
	Error string    `json:"error"`
	Code  ErrorCode `json:"code"`
}

// ResponseOf возвращает HTTP статус и тело ответа для ошибки.
// Неизвестные ошибки отдаются как внутренние без подробностей.
func ResponseOf(err error) (int, Response) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = Internal(err)
	}
	return appErr.HTTPStatus, Response{Error: appErr.Message, Code: appErr.Code}
}
