package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/service"
)

// stubAuth реализует AuthUseCase с заданными ответами.
type stubAuth struct {
	result  *service.AuthResult
	user    *models.PublicUser
	err     error
	gotArgs []string
}

func (s *stubAuth) Register(_ context.Context, email, password string) (*service.AuthResult, error) {
	s.gotArgs = []string{email, password}
	return s.result, s.err
}

func (s *stubAuth) Login(_ context.Context, email, password string) (*service.AuthResult, error) {
	s.gotArgs = []string{email, password}
	return s.result, s.err
}

func (s *stubAuth) GetSession(_ context.Context, token string) (*models.PublicUser, error) {
	s.gotArgs = []string{token}
	return s.user, s.err
}

func (s *stubAuth) RequestOTP(_ context.Context, phone string) error {
	s.gotArgs = []string{phone}
	return s.err
}

func (s *stubAuth) VerifyOTP(_ context.Context, phone, code string) (*service.AuthResult, error) {
	s.gotArgs = []string{phone, code}
	return s.result, s.err
}

func newAuthRouter(auth AuthUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAuthHandler(auth)
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/session", h.Session)
	r.POST("/api/auth/otp/send", h.SendOTP)
	r.POST("/api/auth/otp/verify", h.VerifyOTP)
	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) apperror.Response {
	t.Helper()
	var body apperror.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthHandler_Register(t *testing.T) {
	auth := &stubAuth{result: &service.AuthResult{
		Token: "tok",
		User:  models.PublicUser{ID: "abc", Email: "a@x.com"},
	}}
	r := newAuthRouter(auth)

	w := doJSON(r, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"token":"tok","user":{"id":"abc","email":"a@x.com"}}`, w.Body.String())
	assert.Equal(t, []string{"a@x.com", "secret1"}, auth.gotArgs)
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	r := newAuthRouter(&stubAuth{err: apperror.ErrEmailTaken})

	w := doJSON(r, http.MethodPost, "/api/auth/register", `{"email":"a@x.com","password":"secret1"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, apperror.ErrCodeConflict, body.Code)
	assert.NotEmpty(t, body.Error)
}

func TestAuthHandler_MalformedJSON(t *testing.T) {
	r := newAuthRouter(&stubAuth{})

	for _, path := range []string{"/api/auth/register", "/api/auth/login", "/api/auth/otp/send", "/api/auth/otp/verify"} {
		w := doJSON(r, http.MethodPost, path, `{"email":`)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Equal(t, apperror.ErrCodeValidation, errorBody(t, w).Code, path)
	}
}

func TestAuthHandler_Login_Unauthorized(t *testing.T) {
	r := newAuthRouter(&stubAuth{err: apperror.ErrInvalidCredentials})

	w := doJSON(r, http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "неверный email или пароль", errorBody(t, w).Error)
}

func TestAuthHandler_Session(t *testing.T) {
	auth := &stubAuth{user: &models.PublicUser{ID: "abc", Email: "a@x.com"}}
	r := newAuthRouter(auth)

	req, _ := http.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":{"id":"abc","email":"a@x.com"}}`, w.Body.String())
	assert.Equal(t, []string{"tok"}, auth.gotArgs)
}

func TestAuthHandler_Session_NoToken(t *testing.T) {
	auth := &stubAuth{}
	r := newAuthRouter(auth)

	w := doJSON(r, http.MethodGet, "/api/auth/session", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "требуется авторизация", errorBody(t, w).Error)
	assert.Nil(t, auth.gotArgs)
}

func TestAuthHandler_SendOTP(t *testing.T) {
	auth := &stubAuth{}
	r := newAuthRouter(auth)

	w := doJSON(r, http.MethodPost, "/api/auth/otp/send", `{"phone":"+79991234567"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Код отправлен"}`, w.Body.String())
	assert.Equal(t, []string{"+79991234567"}, auth.gotArgs)
}

func TestAuthHandler_SendOTP_Misconfigured(t *testing.T) {
	r := newAuthRouter(&stubAuth{err: apperror.Wrap(assert.AnError, apperror.ErrCodeDeliveryMisconfigured, "сервис SMS временно недоступен")})

	w := doJSON(r, http.MethodPost, "/api/auth/otp/send", `{"phone":"+79991234567"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := errorBody(t, w)
	assert.Equal(t, apperror.ErrCodeDeliveryMisconfigured, body.Code)
	assert.NotContains(t, body.Error, assert.AnError.Error())
}

func TestAuthHandler_VerifyOTP(t *testing.T) {
	auth := &stubAuth{result: &service.AuthResult{
		Token: "tok",
		User:  models.PublicUser{ID: "abc", Phone: "79991234567"},
	}}
	r := newAuthRouter(auth)

	w := doJSON(r, http.MethodPost, "/api/auth/otp/verify", `{"phone":"89991234567","code":"123456"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"token":"tok","user":{"id":"abc","email":"","phone":"79991234567"}}`, w.Body.String())
	assert.Equal(t, []string{"89991234567", "123456"}, auth.gotArgs)
}

func TestAuthHandler_VerifyOTP_Errors(t *testing.T) {
	cases := map[string]struct {
		err  error
		code apperror.ErrorCode
	}{
		"not requested": {apperror.ErrOTPNotRequested, apperror.ErrCodeOTPNotRequested},
		"expired":       {apperror.ErrOTPExpired, apperror.ErrCodeOTPExpired},
		"mismatch":      {apperror.ErrOTPMismatch, apperror.ErrCodeOTPMismatch},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			r := newAuthRouter(&stubAuth{err: tc.err})

			w := doJSON(r, http.MethodPost, "/api/auth/otp/verify", `{"phone":"79991234567","code":"1"}`)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, errorBody(t, w).Code)
		})
	}
}
