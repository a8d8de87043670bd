package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kyberwheel/backend/internal/http/handlers/common"
	"github.com/kyberwheel/backend/internal/http/middleware"
	"github.com/kyberwheel/backend/internal/models"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/service"
)

// AuthUseCase операции аутентификации, которые нужны HTTP слою.
type AuthUseCase interface {
	Register(ctx context.Context, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	GetSession(ctx context.Context, token string) (*models.PublicUser, error)
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (*service.AuthResult, error)
}

// AuthHandler предоставляет HTTP слой для регистрации, логина и входа по SMS.
type AuthHandler struct {
	auth AuthUseCase
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth AuthUseCase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Session обрабатывает GET /api/auth/session.
func (h *AuthHandler) Session(c *gin.Context) {
	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		common.RespondError(c, apperror.ErrAuthRequired)
		return
	}

	user, err := h.auth.GetSession(c.Request.Context(), token)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type otpRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// SendOTP обрабатывает POST /api/auth/otp/send.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req otpRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	if err := h.auth.RequestOTP(c.Request.Context(), req.Phone); err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": service.OTPSentMessage})
}

// VerifyOTP обрабатывает POST /api/auth/otp/verify.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req otpRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.RespondError(c, err)
		return
	}

	result, err := h.auth.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   result.Token,
		"user":    result.User,
	})
}
