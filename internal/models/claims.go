package models

import "github.com/golang-jwt/jwt/v5"

// Roles recognized by the admin surface.
const (
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
	RoleOperator   = "operator"
)

// UserClaims is the authenticated principal extracted from a JWT.
type UserClaims struct {
	Account      string `json:"account"`
	Role         string `json:"role"`
	OperatorCode string `json:"op_code,omitempty"`
	jwt.RegisteredClaims
}
