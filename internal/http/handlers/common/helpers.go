package common

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyberwheel/backend/internal/http/middleware"
	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
)

var errNoUserInContext = errors.New("пользователь не найден в контексте")

// CurrentUserID извлекает идентификатор пользователя, положенный AuthMiddleware.
func CurrentUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserIDKey)
	if userID == "" {
		return "", apperror.Wrap(errNoUserInContext, apperror.ErrCodeUnauthorized, apperror.ErrAuthRequired.Message)
	}
	return userID, nil
}

// BindJSON разбирает тело запроса. Ошибка разбора отдаётся как ошибка валидации.
func BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, "некорректный формат запроса")
	}
	return nil
}

// RespondError пишет ошибку в формате {"error", "code"}.
// Внутренние причины попадают только в лог.
func RespondError(c *gin.Context, err error) {
	status, body := apperror.ResponseOf(err)

	entry := logger.Log.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
		"code":   body.Code,
		"error":  err.Error(),
	})
	if status >= 500 {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	c.AbortWithStatusJSON(status, body)
}
