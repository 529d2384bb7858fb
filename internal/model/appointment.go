package model

import (
	"time"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked    AppointmentStatus = "Booked"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// Appointment is a (doctor, patient, date, time) reservation. Date is kept in
// canonical YYYY-MM-DD form and Time as HH:MM.
type Appointment struct {
	ID           int64             `db:"id" json:"id"`
	DoctorID     int64             `db:"doctor_id" json:"doctor_id"`
	PatientID    int64             `db:"patient_id" json:"patient_id"`
	Date         string            `db:"date" json:"date"`
	Time         string            `db:"time" json:"time"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Diagnosis    *string           `db:"diagnosis" json:"diagnosis,omitempty"`
	Prescription *string           `db:"prescription" json:"prescription,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

func (a *Appointment) IsBooked() bool {
	return a.Status == AppointmentStatusBooked
}

// AppointmentDetail joins the participant names for dashboard listings.
type AppointmentDetail struct {
	Appointment
	DoctorName  string `db:"doctor_name" json:"doctor_name"`
	PatientName string `db:"patient_name" json:"patient_name"`
}

// BookedSlot is a Booked appointment projected onto the slot it occupies.
type BookedSlot struct {
	AppointmentID int64  `db:"id" json:"appointment_id"`
	Date          string `db:"date" json:"date"`
	Time          string `db:"time" json:"time"`
	PatientID     int64  `db:"patient_id" json:"patient_id"`
	PatientName   string `db:"patient_name" json:"patient_name"`
}

type BookAppointmentRequest struct {
	DoctorID  int64  `json:"doctor_id" binding:"required,gt=0"`
	PatientID int64  `json:"patient_id" binding:"omitempty,gt=0"`
	Date      string `json:"date" binding:"required,hmsdate"`
	Time      string `json:"time" binding:"required,hmstime"`
}

type RescheduleAppointmentRequest struct {
	Date string `json:"date" binding:"required,hmsdate"`
	Time string `json:"time" binding:"required,hmstime"`
}

type CompleteAppointmentRequest struct {
	Diagnosis    string `json:"diagnosis" binding:"max=4000"`
	Prescription string `json:"prescription" binding:"max=4000"`
}

type AppointmentFilters struct {
	DoctorID  int64
	PatientID int64
	Status    AppointmentStatus
}

// TimeSlot is one of the fixed daily slots offered for a doctor.
type TimeSlot struct {
	Label     string `json:"label"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Available bool   `json:"available"`

	// Set on doctor-facing schedules for occupied slots only.
	AppointmentID *int64  `json:"appointment_id,omitempty"`
	PatientID     *int64  `json:"patient_id,omitempty"`
	PatientName   *string `json:"patient_name,omitempty"`
}

// ScheduleDay groups the slots for one calendar day.
type ScheduleDay struct {
	Date    string     `json:"date"`
	Weekday string     `json:"weekday"`
	Slots   []TimeSlot `json:"slots"`
}

// DoctorSchedule is the slot engine's output for one doctor.
type DoctorSchedule struct {
	DoctorID int64         `json:"doctor_id"`
	From     string        `json:"from"`
	To       string        `json:"to"`
	Days     []ScheduleDay `json:"days"`
}
