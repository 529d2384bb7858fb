package model

import (
	"time"
)

// DoctorPatientRelation records that a doctor has treated or registered a
// patient. Relations are only ever added.
type DoctorPatientRelation struct {
	DoctorID  int64     `db:"doctor_id" json:"doctor_id"`
	PatientID int64     `db:"patient_id" json:"patient_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BlacklistEntry blocks an admin from creating a doctor account whose name,
// username and specialization all match.
type BlacklistEntry struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name" binding:"required"`
	Username       string    `db:"username" json:"username" binding:"required"`
	Specialization string    `db:"specialization" json:"specialization"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Matches reports whether a doctor with the given identity is blocked.
func (b *BlacklistEntry) Matches(name, username, specialization string) bool {
	if specialization == "" {
		specialization = DefaultSpecialization
	}
	spec := b.Specialization
	if spec == "" {
		spec = DefaultSpecialization
	}
	return b.Name == name && b.Username == username && spec == specialization
}
