package model

import (
	"time"
)

type AppointmentEventType string

const (
	EventAppointmentBooked      AppointmentEventType = "APPOINTMENT_BOOKED"
	EventAppointmentCancelled   AppointmentEventType = "APPOINTMENT_CANCELLED"
	EventAppointmentRescheduled AppointmentEventType = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCompleted   AppointmentEventType = "APPOINTMENT_COMPLETED"
)

// AppointmentEvent is published after an appointment changes state.
type AppointmentEvent struct {
	Type        AppointmentEventType `json:"type"`
	Appointment Appointment          `json:"appointment"`
	ActorID     int64                `json:"actor_id"`
	PrevDate    string               `json:"prev_date,omitempty"`
	PrevTime    string               `json:"prev_time,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}
