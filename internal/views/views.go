// Package views renders the console's HTML page shells. The console is an
// API-first application; these templates provide the login form, the
// authenticated application shell, and error pages. Templates are embedded
// in the binary so deployment is a single artifact.
package views

import (
	"embed"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	templates *template.Template
}

// NewRenderer parses the embedded templates. Panics on parse failure since
// a broken template is a build defect, not a runtime condition.
func NewRenderer() *Renderer {
	return &Renderer{
		templates: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// LoginData is the template payload for the login page.
type LoginData struct {
	// RedirectTo is the path to return to after a successful sign-in,
	// carried through the form as a hidden field.
	RedirectTo string

	// Error is a user-facing failure message from a previous attempt.
	Error string

	// CSRFToken is embedded as a hidden form field.
	CSRFToken string
}

// ShellData is the template payload for the authenticated app shell.
type ShellData struct {
	Username  string
	Role      string
	CSRFToken string
}

// ErrorData is the template payload for the error page.
type ErrorData struct {
	Status  int
	Message string
}

// RenderError renders the error page with the given status and message.
func RenderError(c echo.Context, status int, message string) error {
	return c.Render(status, "error.html", ErrorData{Status: status, Message: message})
}

// RenderNotFound renders the 404 page.
func RenderNotFound(c echo.Context) error {
	return RenderError(c, http.StatusNotFound, "The page you are looking for does not exist.")
}
