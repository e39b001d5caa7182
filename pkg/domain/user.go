package domain

import (
	"fmt"
	"strings"
	"time"
)

// Roles a user account can hold.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// DefaultColor is assigned to accounts created without an explicit cursor color.
const DefaultColor = "#3498db"

// User is a persisted account. PasswordHash is the bcrypt digest; it is
// stored with the record but must never cross the HTTP surface.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"password_hash"`
	DisplayName  string     `json:"display_name,omitempty"`
	Email        string     `json:"email,omitempty"`
	Color        string     `json:"color"`
	Role         string     `json:"role"`
	Active       bool       `json:"active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

// Identity is the verified identity attached to a connection. It is a
// value derived from a User at authentication time; the collaboration
// core treats it as immutable and never persists it.
type Identity struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Color       string `json:"color"`
	Role        string `json:"role,omitempty"`
}

// IsZero reports whether the identity carries no user.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// IdentityOf derives the connection-facing identity from an account.
func IdentityOf(u *User) Identity {
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	return Identity{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: name,
		Color:       u.Color,
		Role:        u.Role,
	}
}

// ValidRole reports whether role is one of the accepted account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// ValidateColor checks that a cursor color is a hex color code.
func ValidateColor(color string) error {
	if !strings.HasPrefix(color, "#") {
		return fmt.Errorf("color must be a hex color code starting with #: %q", color)
	}
	return nil
}
