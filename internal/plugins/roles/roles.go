// Package roles manages the upstream role records through the console.
package roles

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/plugins/entity"
)

// Role is an upstream role record.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Status      int       `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Schema describes the role entity for the generic CRUD handler.
var Schema = entity.Schema{
	Name:      "roles",
	Singular:  "role",
	BasePath:  "/api/roles",
	Paginated: true,
	Fields: []entity.Field{
		{Name: "name", Required: true, MaxLen: 100},
		{Name: "code", Required: true, MaxLen: 50},
		{Name: "description", MaxLen: 500},
		{Name: "status"},
		{Name: "menuIds"},
	},
}

// RegisterRoutes mounts the role CRUD endpoints on the API group.
func RegisterRoutes(g *echo.Group, client *apiclient.Client) {
	entity.NewHandler(client, Schema).RegisterRoutes(g)
}
