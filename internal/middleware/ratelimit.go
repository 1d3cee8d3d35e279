package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/punjabready/portal-api/pkg/apperror"
	"github.com/punjabready/portal-api/pkg/logging"
	"github.com/punjabready/portal-api/pkg/metrics"
	"github.com/punjabready/portal-api/pkg/ratelimiter"
	"github.com/punjabready/portal-api/pkg/response"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimit applies limiter per client IP. A limiter failure lets the request
// through so a Redis outage does not take the API down.
func RateLimit(limiter ratelimiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logging.Warn().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			metrics.RateLimitedTotal.Inc()
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
			response.ResponseError(c, apperror.New(http.StatusTooManyRequests, rateLimitMessage, apperror.ErrRateLimitExceeded))
			return
		}
		c.Next()
	}
}
