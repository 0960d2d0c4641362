package models

import (
	"time"
)

// Role is the authorization role carried by the request identity
type Role string

const (
	RoleUser      Role = "user"
	RoleAuthor    Role = "author"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ValidRoles defines allowed user roles
var ValidRoles = map[Role]bool{
	RoleUser:      true,
	RoleAuthor:    true,
	RoleModerator: true,
	RoleAdmin:     true,
}

// IsModerator reports whether the role may moderate comments
func (r Role) IsModerator() bool {
	return r == RoleAdmin || r == RoleModerator
}

// IsStaff reports whether comments by this role skip spam classification
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleModerator || r == RoleAuthor
}

// User is the read-only view of an account used for trust scoring and fan-out
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      Role      `json:"role" db:"role"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the identity of the current request as supplied by the auth layer.
// An empty UserID means a guest.
type Actor struct {
	UserID string
	Role   Role
}

// Guest returns the anonymous actor
func Guest() Actor {
	return Actor{}
}

// IsGuest reports whether the request is unauthenticated
func (a Actor) IsGuest() bool {
	return a.UserID == ""
}
