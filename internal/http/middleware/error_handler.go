package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
)

// Recovery перехватывает панику в обработчике и отвечает 500 без подробностей.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic":  fmt.Sprint(r),
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("panic в обработчике")

				if !c.Writer.Written() {
					abortWithError(c, apperror.Internal(fmt.Errorf("panic: %v", r)))
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
