package model

import (
	"time"
)

// Role is fixed at user creation.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// DefaultSpecialization is stored for doctors created without one.
const DefaultSpecialization = "General"

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User represents a system user
type User struct {
	ID             int64     `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Username       string    `json:"username" db:"username"`
	Password       string    `json:"password,omitempty" db:"-"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Role           Role      `json:"role" db:"role"`
	Specialization *string   `json:"specialization,omitempty" db:"specialization"`
	Experience     *string   `json:"experience,omitempty" db:"experience"`
	Email          *string   `json:"email,omitempty" db:"email"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// SpecializationOrDefault mirrors how doctors without a specialization are
// shown and matched against the blacklist.
func (u *User) SpecializationOrDefault() string {
	if u.Specialization == nil || *u.Specialization == "" {
		return DefaultSpecialization
	}
	return *u.Specialization
}

// DoctorSummary is the public directory entry for a doctor.
type DoctorSummary struct {
	ID             int64  `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	Specialization string `json:"specialization" db:"specialization"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	Pagination
	Role       Role   `json:"role" form:"role"`
	SearchTerm string `json:"search_term" form:"search_term"`
}

// CreateDoctorRequest represents admin doctor creation parameters
type CreateDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Username       string `json:"username" binding:"required,min=3"`
	Password       string `json:"password" binding:"required,min=6"`
	Specialization string `json:"specialization"`
	Experience     string `json:"experience"`
	Email          string `json:"email" binding:"omitempty,email"`
}

// UpdateDoctorRequest replaces the editable doctor fields.
type UpdateDoctorRequest struct {
	Name           string  `json:"name" binding:"required"`
	Username       string  `json:"username" binding:"required,min=3"`
	Specialization *string `json:"specialization"`
	Experience     *string `json:"experience"`
}

// CreatePatientRequest is used by doctors and admins to register a patient.
type CreatePatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Email    string `json:"email" binding:"omitempty,email"`
}
