// Package menus manages the upstream navigation menu tree through the
// console. Menus are the one non-paginated entity: the upstream returns
// the whole tree at once and the console passes it through.
package menus

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/plugins/entity"
)

// Menu is one node of the upstream navigation tree.
type Menu struct {
	ID       string `json:"id"`
	ParentID string `json:"parentId,omitempty"`
	Title    string `json:"title"`
	Path     string `json:"path,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Sort     int    `json:"sort"`
	Hidden   bool   `json:"hidden"`
	Children []Menu `json:"children,omitempty"`
}

// Schema describes the menu entity for the generic CRUD handler.
var Schema = entity.Schema{
	Name:      "menus",
	Singular:  "menu",
	BasePath:  "/api/menus",
	Paginated: false,
	Fields: []entity.Field{
		{Name: "parentId", MaxLen: 64},
		{Name: "title", Required: true, MaxLen: 100},
		{Name: "path", MaxLen: 255},
		{Name: "icon", MaxLen: 100},
		{Name: "sort"},
		{Name: "hidden"},
	},
}

// RegisterRoutes mounts the menu CRUD endpoints on the API group.
func RegisterRoutes(g *echo.Group, client *apiclient.Client) {
	entity.NewHandler(client, Schema).RegisterRoutes(g)
}
