// Package dashboard serves the authenticated application shell and the
// summary endpoint that greets the operator with headline counts pulled
// from the upstream backend.
package dashboard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/middleware"
	"github.com/keyxmakerx/steward/internal/plugins/auth"
	"github.com/keyxmakerx/steward/internal/views"
)

// Summary is the headline counts shown on the dashboard landing view.
// Counts that could not be fetched are -1 so the UI can show a dash
// instead of a lying zero.
type Summary struct {
	Users int `json:"users"`
	Roles int `json:"roles"`
	Menus int `json:"menus"`
}

// Handler serves the dashboard shell and summary.
type Handler struct {
	client *apiclient.Client
}

// NewHandler creates the dashboard handler.
func NewHandler(client *apiclient.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes mounts the shell views and the summary endpoint. The
// guard middleware has already established that /dashboard requests are
// authenticated by the time these handlers run.
func (h *Handler) RegisterRoutes(e *echo.Echo, api *echo.Group) {
	e.GET("/dashboard", h.Shell)
	e.GET("/dashboard/*", h.Shell)
	api.GET("/dashboard/summary", h.Summary)
}

// Shell renders the authenticated application shell (GET /dashboard*).
func (h *Handler) Shell(c echo.Context) error {
	user := auth.CurrentUser(c)
	if user == nil {
		// The guard redirects anonymous visitors before this handler.
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	return c.Render(http.StatusOK, "shell.html", views.ShellData{
		Username:  user.Username,
		Role:      string(user.Role),
		CSRFToken: middleware.GetCSRFToken(c),
	})
}

// Summary aggregates headline counts from the upstream (GET /api/dashboard/summary).
// Each count is fetched independently; one failing collection does not
// take down the whole summary.
func (h *Handler) Summary(c echo.Context) error {
	ctx := c.Request().Context()

	return c.JSON(http.StatusOK, Summary{
		Users: h.pagedTotal(ctx, "/api/users"),
		Roles: h.pagedTotal(ctx, "/api/roles"),
		Menus: h.treeCount(ctx, "/api/menus"),
	})
}

// pagedTotal fetches one minimal page of a paginated collection and
// returns its total, or -1 on failure.
func (h *Handler) pagedTotal(ctx context.Context, path string) int {
	query := url.Values{"page": {"1"}, "pageSize": {"1"}}
	var page apiclient.Page
	if err := h.client.Get(ctx, path, query, &page); err != nil {
		slog.Warn("dashboard summary fetch failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return -1
	}
	return page.Total
}

// treeCount fetches a tree-shaped collection and counts its nodes
// recursively, or returns -1 on failure.
func (h *Handler) treeCount(ctx context.Context, path string) int {
	var tree []treeNode
	if err := h.client.Get(ctx, path, nil, &tree); err != nil {
		slog.Warn("dashboard summary fetch failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return -1
	}
	return countNodes(tree)
}

// treeNode is the minimal tree shape needed for counting.
type treeNode struct {
	Children []treeNode `json:"children"`
}

func countNodes(nodes []treeNode) int {
	count := len(nodes)
	for _, n := range nodes {
		count += countNodes(n.Children)
	}
	return count
}
