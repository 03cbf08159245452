package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the account role stored on a user row.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleUser    Role = "User"
	RoleContact Role = "Contacto"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleContact:
		return true
	}
	return false
}

// User is an account that can own folders and files.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      Role      `json:"rol"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user bypasses ownership and grant checks.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Session is a server-side login session. ID holds the SHA-256 hex digest of
// the session identifier carried inside the token, never the raw identifier.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionClaims is the payload of a signed session token.
type SessionClaims struct {
	jwt.RegisteredClaims        // sub = user id, iss, iat
	SessionID            string `json:"sid"`
}
