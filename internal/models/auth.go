package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the RBAC middleware.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEducator UserRole = "EDUCATOR"
	RoleStudent  UserRole = "STUDENT"
)

// JWTClaims represents the JWT payload issued by the external identity provider.
// For students UserID is the student id; for educators it is the educator id.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email,omitempty"`
	FullName string   `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}
