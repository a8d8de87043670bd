package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/kyberwheel/backend/internal/pkg/apperror"
	"github.com/kyberwheel/backend/internal/service"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextEmailKey  = "email"
	ContextPhoneKey  = "phone"
)

// TokenVerifier проверяет токен сессии.
type TokenVerifier interface {
	Verify(raw string) (*service.Claims, error)
}

var bearerRegex = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// BearerToken извлекает токен из заголовка Authorization.
func BearerToken(header string) (string, bool) {
	m := bearerRegex.FindStringSubmatch(header)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AuthMiddleware пропускает запрос только с валидным токеном сессии
// и кладёт данные пользователя в контекст.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, apperror.ErrAuthRequired)
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			abortWithError(c, apperror.ErrInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, claims.Subject)
		c.Set(ContextEmailKey, claims.Email)
		c.Set(ContextPhoneKey, claims.Phone)
		c.Next()
	}
}

func abortWithError(c *gin.Context, err error) {
	status, body := apperror.ResponseOf(err)
	c.AbortWithStatusJSON(status, body)
}
