package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter учет запросов по ключу
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// RateLimit ограничивает частоту запросов одного водителя, без токена по IP.
// Если счетчик недоступен, запрос пропускается.
func RateLimit(limiter RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if driverID := CurrentDriverID(c); driverID != "" {
			key = "driver:" + driverID
		}

		allowed, retryAfter, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, request allowed",
				zap.Error(err),
				zap.String("key", key),
			)
			c.Next()
			return
		}

		if !allowed {
			seconds := int(math.Ceil(retryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"code":  "RATE_LIMITED",
			})
			return
		}

		c.Next()
	}
}
