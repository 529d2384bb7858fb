package model

import (
	"time"
)

// PatientHistory is a visit record attached to an appointment. PatientID and
// DoctorID are copied from that appointment when the record is created.
type PatientHistory struct {
	ID            int64     `db:"id" json:"id"`
	AppointmentID int64     `db:"appointment_id" json:"appointment_id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	DoctorID      int64     `db:"doctor_id" json:"doctor_id"`
	VisitNotes    string    `db:"visit_notes" json:"visit_notes"`
	Prescription  string    `db:"prescription" json:"prescription"`
	Date          string    `db:"date" json:"date"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// HistoryInput carries the writable history fields. A nil ID means create.
type HistoryInput struct {
	ID            *int64 `json:"id,omitempty"`
	AppointmentID int64  `json:"appointment_id" binding:"omitempty,gt=0"`
	VisitNotes    string `json:"visit_notes" binding:"max=8000"`
	Prescription  string `json:"prescription" binding:"max=4000"`
	Date          string `json:"date" binding:"omitempty,hmsdate"`
}
