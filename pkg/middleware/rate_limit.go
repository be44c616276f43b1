package middleware

import (
	"fmt"
	"net/http"

	"autocaption/internal/service"
	"autocaption/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitMiddleware creates a middleware for rate limiting
func RateLimitMiddleware(rateLimitService *service.RateLimitService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		// Check rate limit
		if !rateLimitService.IsAllowed(ip) {
			logger.Logger.Warn("Rate limit exceeded", zap.String("ip", ip))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please try again later.",
				"code":    http.StatusTooManyRequests,
			})
			c.Abort()
			return
		}

		// Set remaining requests header
		remaining := rateLimitService.GetRemaining(ip)
		if remaining >= 0 {
			c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		}

		c.Next()
	}
}
