package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/hms-api/internal/email"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/messaging"
)

// DefaultChannel carries appointment lifecycle events.
const DefaultChannel = "hms:appointments"

// Service fans an appointment event out to the broker and to the patient's
// mailbox. Either sink may be absent.
type Service struct {
	users    repository.UserRepository
	emailSvc email.Service
	broker   messaging.Broker
	channel  string
	log      *logger.Logger
}

func NewService(users repository.UserRepository, emailSvc email.Service, broker messaging.Broker, channel string, log *logger.Logger) *Service {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:    users,
		emailSvc: emailSvc,
		broker:   broker,
		channel:  channel,
		log:      log.Component("notification"),
	}
}

// AppointmentChanged publishes the event and emails the patient. Both sinks
// are attempted; the first error is returned.
func (s *Service) AppointmentChanged(ctx context.Context, event *model.AppointmentEvent) error {
	var errs []string

	if s.broker != nil {
		if err := s.broker.Publish(ctx, s.channel, event); err != nil {
			errs = append(errs, fmt.Sprintf("publish: %v", err))
		}
	}

	if s.emailSvc != nil {
		if err := s.sendEmail(ctx, event); err != nil {
			errs = append(errs, fmt.Sprintf("email: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to deliver %s: %s", event.Type, strings.Join(errs, "; "))
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, event *model.AppointmentEvent) error {
	apt := event.Appointment

	patient, err := s.users.Get(ctx, apt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to load patient: %w", err)
	}
	if patient.Email == nil || *patient.Email == "" {
		s.log.Debug("Patient has no email, skipping", "patient_id", apt.PatientID)
		return nil
	}

	doctorName := fmt.Sprintf("doctor #%d", apt.DoctorID)
	if doctor, err := s.users.Get(ctx, apt.DoctorID); err == nil {
		doctorName = doctor.Name
	}

	subject, body := render(event, patient.Name, doctorName)
	return s.emailSvc.SendCustom(ctx, *patient.Email, subject, body)
}

func render(event *model.AppointmentEvent, patientName, doctorName string) (string, string) {
	apt := event.Appointment
	when := apt.Date + " at " + apt.Time

	switch event.Type {
	case model.EventAppointmentBooked:
		return "Appointment booked",
			fmt.Sprintf("Dear %s,\n\nYour appointment with %s is booked for %s.\n", patientName, doctorName, when)
	case model.EventAppointmentCancelled:
		return "Appointment cancelled",
			fmt.Sprintf("Dear %s,\n\nYour appointment with %s on %s has been cancelled.\n", patientName, doctorName, when)
	case model.EventAppointmentRescheduled:
		return "Appointment rescheduled",
			fmt.Sprintf("Dear %s,\n\nYour appointment with %s has moved from %s at %s to %s.\n",
				patientName, doctorName, event.PrevDate, event.PrevTime, when)
	default:
		return "Appointment completed",
			fmt.Sprintf("Dear %s,\n\nYour visit with %s on %s has been completed.\n", patientName, doctorName, when)
	}
}
