package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// requestIDContextKey is the Echo context key for the request ID.
const requestIDContextKey = "request_id"

// requestIDHeader carries the ID back to the client and across proxies.
const requestIDHeader = "X-Request-ID"

// WithRequestID returns middleware that tags every request with a UUID.
// An inbound X-Request-ID from a trusted proxy is reused so one request
// keeps one ID across hops; otherwise a fresh ID is generated.
func WithRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}

			c.Set(requestIDContextKey, id)
			c.Response().Header().Set(requestIDHeader, id)

			return next(c)
		}
	}
}

// RequestID retrieves the request ID from the Echo context, or "".
func RequestID(c echo.Context) string {
	id, _ := c.Get(requestIDContextKey).(string)
	return id
}
