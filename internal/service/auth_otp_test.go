package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/repository"
	"github.com/kyberwheel/backend/internal/sms"
)

func TestAuthService_RequestOTP_SendsCode(t *testing.T) {
	env := newTestEnv()

	require.NoError(t, env.svc.RequestOTP(context.Background(), "+7 (999) 123-45-67"))

	require.Len(t, env.sender.sent, 1)
	assert.Equal(t, "79991234567", env.sender.sent[0].phone)
	assert.Regexp(t, regexp.MustCompile(`^Ваш код входа: \d{6}$`), env.sender.sent[0].text)

	record, err := env.otps.Get(context.Background(), "79991234567")
	require.NoError(t, err)
	assert.Equal(t, env.sender.lastCode(t), record.Code)
	assert.Equal(t, env.now.Add(5*time.Minute), record.ExpiresAt)
}

func TestAuthService_RequestOTP_InvalidPhone(t *testing.T) {
	env := newTestEnv()

	for _, phone := range []string{"", "123", "+1 555 123 4567", "799912345678"} {
		err := env.svc.RequestOTP(context.Background(), phone)
		assert.True(t, apperror.IsValidation(err), "номер %q", phone)
	}
	assert.Empty(t, env.sender.sent)
	assert.Zero(t, env.otps.Len())
}

func TestAuthService_OTP_SingleUse(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestOTP(ctx, "+79991234567"))
	code := env.sender.lastCode(t)

	res, err := env.svc.VerifyOTP(ctx, "+79991234567", code)
	require.NoError(t, err)
	assert.Equal(t, "79991234567", res.User.Phone)
	assert.Empty(t, res.User.Email)

	claims, err := env.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, "79991234567", claims.Phone)

	_, err = env.svc.VerifyOTP(ctx, "+79991234567", code)
	assert.ErrorIs(t, err, apperror.ErrOTPNotRequested)
}

// barrierOTPStore задерживает Get, пока все проверки не прочитают запись.
type barrierOTPStore struct {
	*repository.MemoryOTPStore
	read sync.WaitGroup
}

func (s *barrierOTPStore) Get(ctx context.Context, phone string) (*models.OTPCode, error) {
	code, err := s.MemoryOTPStore.Get(ctx, phone)
	s.read.Done()
	s.read.Wait()
	return code, err
}

func TestAuthService_OTP_ConcurrentVerifyIssuesOneSession(t *testing.T) {
	const attempts = 2

	env := newTestEnv()
	ctx := context.Background()
	store := &barrierOTPStore{MemoryOTPStore: env.otps}
	store.read.Add(attempts)
	env.svc.otps = store

	require.NoError(t, store.Upsert(ctx, &models.OTPCode{Phone: "79991234567", Code: "424242", ExpiresAt: env.now.Add(time.Minute)}))

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	results := make([]*AuthResult, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.svc.VerifyOTP(ctx, "79991234567", "424242")
		}(i)
	}
	wg.Wait()

	var issued int
	for i := range errs {
		if errs[i] == nil {
			issued++
			assert.NotEmpty(t, results[i].Token)
			continue
		}
		assert.ErrorIs(t, errs[i], apperror.ErrOTPNotRequested)
	}
	assert.Equal(t, 1, issued)
	assert.Zero(t, env.otps.Len())
}

func TestAuthService_OTP_Expiry(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestOTP(ctx, "79991234567"))
	code := env.sender.lastCode(t)

	env.advance(5*time.Minute + time.Second)

	_, err := env.svc.VerifyOTP(ctx, "79991234567", code)
	assert.ErrorIs(t, err, apperror.ErrOTPExpired)
	assert.Zero(t, env.otps.Len())

	_, err = env.svc.VerifyOTP(ctx, "79991234567", code)
	assert.ErrorIs(t, err, apperror.ErrOTPNotRequested)
}

func TestAuthService_OTP_ValidAtBoundary(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestOTP(ctx, "79991234567"))
	code := env.sender.lastCode(t)

	env.advance(5 * time.Minute)

	_, err := env.svc.VerifyOTP(ctx, "79991234567", code)
	assert.NoError(t, err)
}

func TestAuthService_OTP_Overwrite(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// фиксированные коды вместо случайных, чтобы они гарантированно различались
	require.NoError(t, env.svc.RequestOTP(ctx, "79991234567"))
	require.NoError(t, env.otps.Upsert(ctx, &models.OTPCode{Phone: "79991234567", Code: "111111", ExpiresAt: env.now.Add(5 * time.Minute)}))
	require.NoError(t, env.svc.RequestOTP(ctx, "79991234567"))
	second := env.sender.lastCode(t)
	if second == "111111" {
		t.Skip("совпадение случайного кода")
	}

	_, err := env.svc.VerifyOTP(ctx, "79991234567", "111111")
	assert.ErrorIs(t, err, apperror.ErrOTPMismatch)

	_, err = env.svc.VerifyOTP(ctx, "79991234567", second)
	assert.NoError(t, err)
}

func TestAuthService_OTP_MismatchKeepsRecord(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.RequestOTP(ctx, "79991234567"))
	code := env.sender.lastCode(t)
	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	_, err := env.svc.VerifyOTP(ctx, "79991234567", wrong)
	assert.ErrorIs(t, err, apperror.ErrOTPMismatch)
	assert.Equal(t, 1, env.otps.Len())

	_, err = env.svc.VerifyOTP(ctx, "79991234567", " "+code+" ")
	assert.NoError(t, err)
}

func TestAuthService_OTP_PhoneNormalization(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	var userID string
	for _, phone := range []string{"89991234567", "+79991234567", "9991234567"} {
		require.NoError(t, env.svc.RequestOTP(ctx, phone))
		assert.Equal(t, "79991234567", env.sender.sent[len(env.sender.sent)-1].phone)

		res, err := env.svc.VerifyOTP(ctx, phone, env.sender.lastCode(t))
		require.NoError(t, err, "номер %q", phone)
		if userID == "" {
			userID = res.User.ID
		}
		assert.Equal(t, userID, res.User.ID)
	}
	assert.Len(t, env.users.byPhone, 1)
}

func TestAuthService_OTP_NotRequested(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.VerifyOTP(context.Background(), "79991234567", "123456")
	assert.ErrorIs(t, err, apperror.ErrOTPNotRequested)
}

func TestAuthService_VerifyOTP_EmptyCode(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.VerifyOTP(context.Background(), "79991234567", "  ")
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_RequestOTP_PurgesExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.otps.Upsert(ctx, &models.OTPCode{Phone: "79990000000", Code: "123456", ExpiresAt: env.now.Add(-time.Minute)}))
	require.NoError(t, env.svc.RequestOTP(ctx, "79991234567"))

	_, err := env.otps.Get(ctx, "79990000000")
	assert.Error(t, err)
	assert.Equal(t, 1, env.otps.Len())
}

func TestAuthService_PurgeExpiredOTP(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.otps.Upsert(ctx, &models.OTPCode{Phone: "79990000000", Code: "123456", ExpiresAt: env.now.Add(-time.Second)}))
	require.NoError(t, env.otps.Upsert(ctx, &models.OTPCode{Phone: "79990000001", Code: "654321", ExpiresAt: env.now.Add(time.Minute)}))

	n, err := env.svc.PurgeExpiredOTP(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, env.otps.Len())
}

func TestAuthService_RequestOTP_DeliveryErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		code    apperror.ErrorCode
		status  int
		leakStr string
	}{
		{"not configured", sms.ErrNotConfigured, apperror.ErrCodeDeliveryMisconfigured, http.StatusInternalServerError, "credentials"},
		{"bad credentials", sms.ErrUnauthorized, apperror.ErrCodeDeliveryMisconfigured, http.StatusInternalServerError, "credentials"},
		{"account", &sms.ProviderError{Status: 400, Message: "Not enough money on balance"}, apperror.ErrCodeDeliveryMisconfigured, http.StatusInternalServerError, "balance"},
		{"invalid number", &sms.ProviderError{Status: 400, Message: "Invalid number"}, apperror.ErrCodeDelivery, http.StatusBadRequest, "Invalid"},
		{"unknown", &sms.ProviderError{Status: 400, Message: "internal gateway code 17"}, apperror.ErrCodeDelivery, http.StatusBadRequest, "gateway"},
		{"transport", errors.New("dial tcp: i/o timeout"), apperror.ErrCodeInternal, http.StatusInternalServerError, "dial"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv()
			env.sender.err = tc.err

			err := env.svc.RequestOTP(context.Background(), "79991234567")

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tc.code, appErr.Code)
			assert.Equal(t, tc.status, appErr.HTTPStatus)
			assert.NotContains(t, appErr.Message, tc.leakStr)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestGenerateOTP_Range(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
