package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/renovahq/crm-api/internal/handler"
)

// RateLimiterConfig sets the steady rate and burst allowance for the
// request throttle.
type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
}

// RateLimiter throttles all requests through one shared token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{limiter: rate.NewLimiter(cfg.Rate, cfg.Burst)}
}

// RateLimit rejects requests over the configured rate with 429.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, handler.NewErrorResponse("rate limit exceeded"))
			c.Abort()
			return
		}
		c.Next()
	}
}
