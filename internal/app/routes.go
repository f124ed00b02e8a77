package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/guard"
	"github.com/keyxmakerx/steward/internal/plugins/auth"
	"github.com/keyxmakerx/steward/internal/plugins/dashboard"
	"github.com/keyxmakerx/steward/internal/plugins/menus"
	"github.com/keyxmakerx/steward/internal/plugins/roles"
	"github.com/keyxmakerx/steward/internal/plugins/users"
	"github.com/keyxmakerx/steward/internal/views"
)

// RegisterRoutes sets up all application routes. It registers public
// routes directly and delegates to each plugin's route registration
// function. This is the single place where all routes are aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// The guard runs on every route: it hydrates the session from the
	// cookie pair, applies the routing decision (redirect to login,
	// redirect off login, loading, render), and stows the session context
	// and bearer token for everything downstream.
	e.Use(auth.Guard(a.Sessions))

	// Root navigates to wherever the guard will route the visitor.
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusSeeOther, guard.DefaultLanding)
	})

	// Health check endpoint for container health monitoring.
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Auth plugin: login/logout views and the session JSON endpoints.
	auth.RegisterRoutes(e, auth.NewHandler(), a.Redis)

	// Management API: every entity screen's data plane. Unauthenticated
	// calls still reach the upstream without a bearer and come back 401,
	// which the client wrapper turns into a session invalidation.
	api := e.Group("/api")
	users.RegisterRoutes(api, a.Client)
	roles.RegisterRoutes(api, a.Client)
	menus.RegisterRoutes(api, a.Client)

	// Dashboard shell and summary.
	dashboard.NewHandler(a.Client).RegisterRoutes(e, api)

	// Anything else is a 404 page (or JSON via the error handler for /api).
	e.RouteNotFound("/*", func(c echo.Context) error {
		if isAPIRequest(c) {
			return echo.NewHTTPError(http.StatusNotFound, "The requested resource does not exist.")
		}
		return views.RenderNotFound(c)
	})
}
