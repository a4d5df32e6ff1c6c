package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/ratelimit"
)

// RateLimitMiddleware throttles credential-issuing endpoints per client IP
// with a fixed window. Best effort; counters are process local.
// This function is used as the middleware of fiber.
func RateLimitMiddleware(limiter *ratelimit.Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r := limiter.Allow(ClientIP(c))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(r.Remaining))
		if !r.OK {
			c.Set("Retry-After", strconv.FormatInt(r.ResetAt.Unix(), 10))
			c.Status(fiber.StatusTooManyRequests)
			return http.WithRepErrMsg(c, http.TooManyRequests.Code, http.TooManyRequests.Msg, c.Path())
		}
		return c.Next()
	}
}
