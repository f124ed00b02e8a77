package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window duration, keyed by the given name so different
// endpoints get independent budgets. Counters live in Redis so the limit
// holds across server restarts and replicas. Returns 429 when exceeded.
//
// The limiter fails open: if Redis is unreachable the request proceeds and
// a warning is logged. Locking users out of the login page because the
// cache is down would be worse than briefly losing the limit.
func RateLimit(rdb *redis.Client, name string, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s", name, c.RealIP())

			// INCR and EXPIRE run in one pipeline so a crash between the two
			// cannot leave an immortal counter. The expiry is only set when
			// the counter is created (first request of the window).
			pipe := rdb.TxPipeline()
			count := pipe.Incr(ctx, key)
			pipe.ExpireNX(ctx, key, window)
			if _, err := pipe.Exec(ctx); err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("limiter", name),
					slog.String("error", err.Error()),
				)
				return next(c)
			}

			if count.Val() > int64(maxRequests) {
				slog.Warn("rate limit exceeded",
					slog.String("limiter", name),
					slog.String("ip", c.RealIP()),
					slog.Int64("count", count.Val()),
				)
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   "Too Many Requests",
					"message": "Rate limit exceeded. Please try again later.",
				})
			}

			return next(c)
		}
	}
}
