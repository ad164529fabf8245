package model

import "time"

// Role enumerates platform access levels.
type Role string

const (
	RoleCandidate Role = "CANDIDATE"
	RoleCreator   Role = "CREATOR"
	RoleAdmin     Role = "ADMIN"
)

// CreatorOrAbove reports whether the role may access creator-only surfaces
// such as analytics and proctoring detail.
func (r Role) CreatorOrAbove() bool {
	return r == RoleCreator || r == RoleAdmin
}

// User represents a platform account (candidate, creator or admin).
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}
