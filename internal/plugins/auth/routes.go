package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/steward/internal/middleware"
)

// RegisterRoutes sets up the auth routes on the given Echo instance. The
// guard middleware is registered globally by the app, so these handlers
// always find a hydrated session context.
//
// POST /login is rate-limited to blunt brute-force and credential
// stuffing: 10 attempts per IP per minute.
func RegisterRoutes(e *echo.Echo, h *Handler, rdb *redis.Client) {
	e.GET("/login", h.LoginForm)
	e.POST("/login", h.Login, middleware.RateLimit(rdb, "login", 10, time.Minute))
	e.POST("/logout", h.Logout)

	e.GET("/api/session", h.Session)
	e.POST("/api/session/refresh", h.RefreshSession)
}
