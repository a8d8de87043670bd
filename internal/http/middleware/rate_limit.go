package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/kyberwheel/backend/internal/logger"
	"github.com/kyberwheel/backend/internal/pkg/apperror"
)

var errTooManyRequests = apperror.New(apperror.ErrCodeRateLimited, "слишком много запросов, попробуйте позже")

// RateLimitMiddleware ограничивает число запросов с одного IP за period.
// При limit <= 0 ограничение выключено.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		state, err := instance.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Log.WithError(err).Error("rate limit: ошибка хранилища")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))

		if state.Reached {
			abortWithError(c, errTooManyRequests)
			return
		}

		c.Next()
	}
}
