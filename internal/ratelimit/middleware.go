package ratelimit

import (
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

// Middleware enforces the per-IP limit on every request
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := rl.AllowIP(c.Request.Context(), c.ClientIP())
		if err != nil {
			// Never fail requests because the limiter itself broke
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))

		if !result.Allowed {
			appErr := apperrors.NewRateLimitError(result.RetryAfter.String())
			c.Header("Retry-After", result.RetryAfter.String())
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr)
			return
		}

		c.Next()
	}
}
