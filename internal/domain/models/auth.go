package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims are the JWT claims the backend cares about. The subject claim
// is the user id that scopes every document, thread and message.
type AuthClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
