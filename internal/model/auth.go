package model

import (
	"time"
)

// Actor is the authenticated caller passed explicitly into every core
// operation.
type Actor struct {
	ID       int64  `json:"id"`
	Role     Role   `json:"role"`
	Username string `json:"username"`
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsDoctor() bool  { return a.Role == RoleDoctor }
func (a Actor) IsPatient() bool { return a.Role == RolePatient }

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Role        Role      `json:"role"`
	UserID      int64     `json:"user_id"`
}
