package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/guard"
	"github.com/keyxmakerx/steward/internal/session"
)

// Context keys for storing session data in Echo context. Feature plugins
// use these keys (via the exported getter functions below) to access the
// session and the authenticated user.
const (
	contextKeySession = "auth_session"
	contextKeyUser    = "auth_user"
)

// Guard returns middleware that materializes the session from the cookie
// pair, evaluates the routing decision for the requested URL, and applies
// it: redirect, loading placeholder, or proceed. On proceed, the session
// context is stowed in the Echo context and the bearer token is attached
// to the request context for upstream calls.
func Guard(manager *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			sc := manager.Begin(c.Response(), req)
			st := sc.Hydrate()

			decision := guard.Evaluate(st, req.URL)
			switch decision.Action {
			case guard.ActionRedirect:
				// API requests get a JSON 401 instead of a login redirect;
				// the caller is a script, not a navigating browser.
				if isAPIRequest(c) && !st.IsAuthenticated() {
					return c.JSON(http.StatusUnauthorized, map[string]string{
						"error":   "unauthorized",
						"message": "authentication required",
					})
				}
				return c.Redirect(http.StatusSeeOther, decision.Location)

			case guard.ActionLoading:
				// Unresolved session state never redirects. Hydrate always
				// resolves server-side, so this only renders when a handler
				// evaluates mid-login.
				return c.HTML(http.StatusOK, loadingPlaceholder)
			}

			c.Set(contextKeySession, sc)
			if user := st.User(); user != nil {
				c.Set(contextKeyUser, user)
			}

			// Attach the bearer token and the session context for every
			// upstream call this request makes; a 401 reply reaches back
			// through the context to invalidate the session.
			ctx := apiclient.WithBearer(req.Context(), sc.Token())
			ctx = session.With(ctx, sc)
			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}

// loadingPlaceholder is the minimal markup shown while a session is
// unresolved.
const loadingPlaceholder = `<!DOCTYPE html><html><body><p>Loading…</p></body></html>`

// --- Exported getters for other plugins ---

// SessionContext retrieves the request's session context. Returns nil if
// the guard middleware was not applied.
func SessionContext(c echo.Context) *session.Context {
	sc, ok := c.Get(contextKeySession).(*session.Context)
	if !ok {
		return nil
	}
	return sc
}

// CurrentUser retrieves the authenticated user from the Echo context.
// Returns nil if the request is anonymous.
func CurrentUser(c echo.Context) *session.UserRecord {
	user, ok := c.Get(contextKeyUser).(*session.UserRecord)
	if !ok {
		return nil
	}
	return user
}

// isAPIRequest returns true if the request targets the /api/ path.
func isAPIRequest(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api")
}
