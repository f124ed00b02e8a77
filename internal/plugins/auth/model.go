// Package auth handles operator sign-in for the Steward console: the
// login and logout views, the session JSON endpoints, and the guard
// middleware that decides per request whether a view renders, shows a
// loading placeholder, or redirects.
//
// Credentials are checked against one of two sources depending on
// configuration: the local accounts table, or the upstream backend's
// /auth/login contract.
package auth

import (
	"time"

	"github.com/keyxmakerx/steward/internal/token"
)

// Account is a row in the local accounts table. Only used when the
// console runs with the local credential source.
type Account struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Avatar       *string    `json:"avatar,omitempty"`
	PasswordHash string     `json:"-"` // Never expose in JSON responses.
	Role         token.Role `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty"`
}

// LoginRequest holds the data submitted by the login form or the JSON
// login endpoint.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=100"`
	Password string `json:"password" form:"password" validate:"required,max=128"`
	Redirect string `json:"-" form:"redirect"`
}
