// Package users manages the user records of the upstream system through
// the console. All CRUD mechanics come from the entity package; this
// package contributes the user schema and model.
package users

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/steward/internal/apiclient"
	"github.com/keyxmakerx/steward/internal/plugins/entity"
	"github.com/keyxmakerx/steward/internal/token"
)

// User is an upstream user record as listed in the console.
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Avatar    string     `json:"avatar,omitempty"`
	Role      token.Role `json:"role"`
	Status    int        `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// Schema describes the user entity for the generic CRUD handler.
var Schema = entity.Schema{
	Name:      "users",
	Singular:  "user",
	BasePath:  "/api/users",
	Paginated: true,
	Fields: []entity.Field{
		{Name: "username", Required: true, MaxLen: 100},
		{Name: "email", Required: true, MaxLen: 255},
		{Name: "password", Required: true, MaxLen: 128},
		{Name: "role", Required: true, MaxLen: 50},
		{Name: "avatar", MaxLen: 500},
		{Name: "status"},
	},
}

// RegisterRoutes mounts the user CRUD endpoints on the API group.
func RegisterRoutes(g *echo.Group, client *apiclient.Client) {
	entity.NewHandler(client, Schema).RegisterRoutes(g)
}
