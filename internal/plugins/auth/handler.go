package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apperror"
	"github.com/keyxmakerx/steward/internal/guard"
	"github.com/keyxmakerx/steward/internal/middleware"
	"github.com/keyxmakerx/steward/internal/sanitize"
	"github.com/keyxmakerx/steward/internal/session"
	"github.com/keyxmakerx/steward/internal/views"
)

// Handler handles HTTP requests for sign-in, sign-out, and the session
// JSON endpoints. Handlers are thin: they bind the request, drive the
// session context the guard middleware stowed, and render the response.
type Handler struct{}

// NewHandler creates the auth handler.
func NewHandler() *Handler {
	return &Handler{}
}

// LoginForm renders the login page (GET /login). An already-authenticated
// visitor never reaches this handler -- the guard middleware redirects
// them to their preserved return target first.
func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", views.LoginData{
		RedirectTo: guard.SanitizeTarget(c.QueryParam(guard.RedirectParam)),
		CSRFToken:  middleware.GetCSRFToken(c),
	})
}

// Login processes the login form submission (POST /login).
func (h *Handler) Login(c echo.Context) error {
	sc := SessionContext(c)
	if sc == nil {
		return apperror.NewInternal(errors.New("login handler reached without session context"))
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	req.Username = sanitize.Text(req.Username)

	target := guard.SanitizeTarget(req.Redirect)

	_, err := sc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		// A superseded attempt was displaced by a newer one; its outcome
		// is discarded without touching the page the newer attempt owns.
		if errors.Is(err, session.ErrSuperseded) {
			return c.NoContent(http.StatusNoContent)
		}

		// Re-render the login form with the failure message.
		return c.Render(http.StatusOK, "login.html", views.LoginData{
			RedirectTo: target,
			Error:      apperror.SafeMessage(err),
			CSRFToken:  middleware.GetCSRFToken(c),
		})
	}

	return c.Redirect(http.StatusSeeOther, target)
}

// Logout tears down the session and returns to the login page (POST /logout).
func (h *Handler) Logout(c echo.Context) error {
	sc := SessionContext(c)
	if sc == nil {
		return apperror.NewInternal(errors.New("logout handler reached without session context"))
	}

	sc.Logout(c.Request().Context())

	return c.Redirect(http.StatusSeeOther, guard.LoginPath)
}

// sessionResponse is the JSON shape of the session endpoints.
type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
	User          any  `json:"user,omitempty"`
}

// Session reports the current session state (GET /api/session). Anonymous
// requests get a 200 with authenticated=false, not a 401 -- asking about
// the session is always allowed.
func (h *Handler) Session(c echo.Context) error {
	sc := SessionContext(c)
	if sc == nil {
		return apperror.NewInternal(errors.New("session handler reached without session context"))
	}

	st := sc.State()
	resp := sessionResponse{Authenticated: st.IsAuthenticated()}
	if user := st.User(); user != nil {
		resp.User = user
	}
	return c.JSON(http.StatusOK, resp)
}

// RefreshSession extends the session by re-issuing the token with fresh
// timestamps (POST /api/session/refresh). A request with no valid session
// is a silent no-op that still reports the (anonymous) state.
func (h *Handler) RefreshSession(c echo.Context) error {
	sc := SessionContext(c)
	if sc == nil {
		return apperror.NewInternal(errors.New("refresh handler reached without session context"))
	}

	sc.Refresh()

	st := sc.State()
	resp := sessionResponse{Authenticated: st.IsAuthenticated()}
	if user := st.User(); user != nil {
		resp.User = user
	}
	return c.JSON(http.StatusOK, resp)
}
