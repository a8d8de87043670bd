package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/kyberwheel/backend/internal/pkg/apperror"
)

var hexIDRegex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// HexIDValidator проверяет, что параметр маршрута является идентификатором из 32 hex-символов.
// Использование: router.DELETE("/chat-history/:id", HexIDValidator("id"), handler.Delete)
func HexIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param(paramName)
		if id == "" {
			abortWithError(c, apperror.Validation("ID не указан"))
			return
		}
		if !hexIDRegex.MatchString(id) {
			abortWithError(c, apperror.Validation("некорректный ID"))
			return
		}
		c.Next()
	}
}
