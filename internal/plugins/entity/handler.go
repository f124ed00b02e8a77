package entity

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/apperror"
)

// List pagination bounds. The upstream enforces its own limits; these
// keep obviously bad values from ever leaving the console.
const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListPage is the paginated list shape the console returns to its own
// callers, mirroring the upstream's.
type ListPage struct {
	List     json.RawMessage `json:"list"`
	Total    int             `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
}

// Handler proxies CRUD operations for one entity schema to the upstream
// backend. The bearer token rides in on the request context, put there by
// the guard middleware.
type Handler struct {
	client *apiclient.Client
	schema Schema
}

// NewHandler creates a CRUD handler for the given schema.
func NewHandler(client *apiclient.Client, schema Schema) *Handler {
	return &Handler{client: client, schema: schema}
}

// RegisterRoutes mounts the CRUD routes for this entity on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	base := "/" + h.schema.Name
	g.GET(base, h.List)
	g.GET(base+"/:id", h.Detail)
	g.POST(base, h.Create)
	g.PUT(base+"/:id", h.Update)
	g.DELETE(base+"/:id", h.Delete)
}

// List returns the entity collection: a page for paginated schemas, the
// raw tree for non-paginated ones (GET /api/<name>).
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()

	if !h.schema.Paginated {
		var tree json.RawMessage
		if err := h.client.Get(ctx, h.schema.BasePath, nil, &tree); err != nil {
			return apiclient.ToAppError(err)
		}
		return c.JSONBlob(http.StatusOK, tree)
	}

	page, pageSize := listParams(c)
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"pageSize": {strconv.Itoa(pageSize)},
	}
	if keyword := c.QueryParam("keyword"); keyword != "" {
		query.Set("keyword", keyword)
	}

	var upstream apiclient.Page
	if err := h.client.Get(ctx, h.schema.BasePath, query, &upstream); err != nil {
		return apiclient.ToAppError(err)
	}

	// Items and total come from their own envelope fields; an empty list
	// stays an empty array, never null.
	list := upstream.List
	if len(list) == 0 {
		list = json.RawMessage("[]")
	}
	return c.JSON(http.StatusOK, ListPage{
		List:     list,
		Total:    upstream.Total,
		Page:     upstream.Page,
		PageSize: upstream.PageSize,
	})
}

// Detail returns one record (GET /api/<name>/:id).
func (h *Handler) Detail(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.NewBadRequest(h.schema.Singular + " id is required")
	}

	var record json.RawMessage
	if err := h.client.Get(c.Request().Context(), h.schema.BasePath+"/"+url.PathEscape(id), nil, &record); err != nil {
		return apiclient.ToAppError(err)
	}
	return c.JSONBlob(http.StatusOK, record)
}

// Create validates and forwards a new record (POST /api/<name>).
func (h *Handler) Create(c echo.Context) error {
	body, err := h.bindBody(c, true)
	if err != nil {
		return err
	}

	var created json.RawMessage
	if err := h.client.Post(c.Request().Context(), h.schema.BasePath, body, &created); err != nil {
		return apiclient.ToAppError(err)
	}
	if len(created) == 0 {
		return c.NoContent(http.StatusCreated)
	}
	return c.JSONBlob(http.StatusCreated, created)
}

// Update validates and forwards changes to a record (PUT /api/<name>/:id).
func (h *Handler) Update(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.NewBadRequest(h.schema.Singular + " id is required")
	}

	body, err := h.bindBody(c, false)
	if err != nil {
		return err
	}

	var updated json.RawMessage
	if err := h.client.Put(c.Request().Context(), h.schema.BasePath+"/"+url.PathEscape(id), body, &updated); err != nil {
		return apiclient.ToAppError(err)
	}
	if len(updated) == 0 {
		return c.NoContent(http.StatusOK)
	}
	return c.JSONBlob(http.StatusOK, updated)
}

// Delete removes a record (DELETE /api/<name>/:id).
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return apperror.NewBadRequest(h.schema.Singular + " id is required")
	}

	if err := h.client.Delete(c.Request().Context(), h.schema.BasePath+"/"+url.PathEscape(id)); err != nil {
		return apiclient.ToAppError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// bindBody decodes and validates a write body against the schema.
func (h *Handler) bindBody(c echo.Context, requireAll bool) (map[string]any, error) {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return nil, apperror.NewBadRequest("invalid request body")
	}
	if err := h.schema.ValidateWrite(body, requireAll); err != nil {
		return nil, err
	}
	return body, nil
}

// listParams extracts and clamps the pagination parameters.
func listParams(c echo.Context) (page, pageSize int) {
	page = defaultPage
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v > 0 {
		page = v
	}
	pageSize = defaultPageSize
	if v, err := strconv.Atoi(c.QueryParam("pageSize")); err == nil && v > 0 {
		pageSize = v
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
