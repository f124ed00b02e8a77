// Package guard decides what happens before a view renders: render it,
// show a loading placeholder, or redirect. The decision is a pure function
// of session state and the requested URL, so it can be re-evaluated on
// every request without side effects or redirect loops. Applying the
// decision (the actual HTTP redirect) is the caller's job.
package guard

import (
	"net/url"
	"strings"

	"github.com/keyxmakerx/steward/internal/session"
)

// Route surface constants.
const (
	// LoginPath is the public login view.
	LoginPath = "/login"

	// ProtectedPrefix covers every authenticated view.
	ProtectedPrefix = "/dashboard"

	// DefaultLanding is where an authenticated user lands with no
	// preserved return target.
	DefaultLanding = "/dashboard"

	// RedirectParam carries the originally requested path through the
	// login redirect so the user returns where they were headed.
	RedirectParam = "redirect"
)

// Action is what the caller should do with the request.
type Action int

const (
	// ActionRender proceeds to the requested view.
	ActionRender Action = iota

	// ActionLoading renders a placeholder because the session has not
	// resolved yet. Never a redirect.
	ActionLoading

	// ActionRedirect navigates to Decision.Location.
	ActionRedirect
)

// Decision is the guard's verdict for one request.
type Decision struct {
	Action   Action
	Location string
}

// Evaluate produces the routing decision for the given session state and
// requested URL.
//
// Unresolved sessions get a loading placeholder. Unauthenticated access to
// a protected path redirects to the login view with the requested path
// preserved as the return target. Authenticated access to the login view
// redirects to the preserved target, or the default landing view.
// Everything else renders. An unauthenticated request for the login view
// renders it, so redirecting to login can never loop.
func Evaluate(st session.State, u *url.URL) Decision {
	if st.IsLoading() {
		return Decision{Action: ActionLoading}
	}

	if isProtected(u.Path) && !st.IsAuthenticated() {
		return Decision{
			Action:   ActionRedirect,
			Location: LoginPath + "?" + RedirectParam + "=" + u.Path,
		}
	}

	if u.Path == LoginPath && st.IsAuthenticated() {
		return Decision{
			Action:   ActionRedirect,
			Location: returnTarget(u),
		}
	}

	return Decision{Action: ActionRender}
}

// isProtected reports whether the path requires an authenticated session.
func isProtected(path string) bool {
	return path == ProtectedPrefix || strings.HasPrefix(path, ProtectedPrefix+"/")
}

// returnTarget extracts the preserved return target from the login URL,
// falling back to the default landing view.
func returnTarget(u *url.URL) string {
	return SanitizeTarget(u.Query().Get(RedirectParam))
}

// SanitizeTarget validates a preserved return target. Only local paths
// are honored so the redirect parameter cannot send the user off-site;
// anything else collapses to the default landing view.
func SanitizeTarget(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return DefaultLanding
	}
	return target
}
