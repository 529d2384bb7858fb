package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/datetime"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/logger"
)

// Authorizer decides who may read and write patient visit history.
type Authorizer struct {
	relations     repository.RelationRepository
	appointments  repository.AppointmentRepository
	strictUpdates bool
	loc           *time.Location
	log           *logger.Logger
}

type AuthorizerConfig struct {
	// StrictUpdates limits doctors to updating records they authored.
	StrictUpdates bool
	// Location interprets appointment dates and times.
	Location *time.Location
}

func NewAuthorizer(relations repository.RelationRepository, appointments repository.AppointmentRepository, cfg AuthorizerConfig, log *logger.Logger) *Authorizer {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Authorizer{
		relations:     relations,
		appointments:  appointments,
		strictUpdates: cfg.StrictUpdates,
		loc:           cfg.Location,
		log:           log.Component("history-authorizer"),
	}
}

// CanRead allows admins, the patient themself, and any doctor related to the
// patient either explicitly or through an appointment of any status.
func (a *Authorizer) CanRead(ctx context.Context, actor model.Actor, patientID int64) error {
	switch actor.Role {
	case model.RoleAdmin:
		return nil
	case model.RolePatient:
		if actor.ID == patientID {
			return nil
		}
		return errors.Forbidden("patients can only view their own history")
	case model.RoleDoctor:
		related, err := a.relations.Exists(ctx, actor.ID, patientID)
		if err != nil {
			return errors.Internal(fmt.Errorf("failed to check relation: %w", err))
		}
		if related {
			return nil
		}
		treated, err := a.appointments.HasAppointmentWith(ctx, actor.ID, patientID)
		if err != nil {
			return errors.Internal(fmt.Errorf("failed to check appointments: %w", err))
		}
		if treated {
			return nil
		}
		return errors.Forbidden("doctor has no relation to this patient")
	}
	return errors.Forbidden("")
}

// CanCreate requires a doctor on the appointment (or an admin) and, unless
// the visit is already Completed, an appointment time strictly before now.
func (a *Authorizer) CanCreate(ctx context.Context, actor model.Actor, apt *model.Appointment, now time.Time) error {
	switch {
	case actor.IsAdmin():
	case actor.IsDoctor():
		if apt.DoctorID != actor.ID {
			return errors.Forbidden("appointment belongs to another doctor")
		}
	default:
		return errors.Forbidden("only doctors can add visit history")
	}

	if apt.Status == model.AppointmentStatusCompleted {
		return nil
	}

	at, err := datetime.Combine(apt.Date, apt.Time, a.loc)
	if err != nil {
		return errors.InvalidDateTime("invalid appointment date/time format", err)
	}
	if !at.Before(now) {
		return errors.InvalidDateTime("cannot add history before appointment time", nil)
	}
	return nil
}

// CanUpdate checks only the role. With strict updates enabled a doctor must
// also be the record's author; otherwise cross-doctor edits are allowed and
// logged.
func (a *Authorizer) CanUpdate(ctx context.Context, actor model.Actor, record *model.PatientHistory) error {
	switch {
	case actor.IsAdmin():
		return nil
	case actor.IsDoctor():
		if record.DoctorID == actor.ID {
			return nil
		}
		if a.strictUpdates {
			return errors.Forbidden("record belongs to another doctor")
		}
		a.log.Warn("Doctor updating another doctor's history record",
			"history_id", record.ID,
			"actor_id", actor.ID,
			"author_id", record.DoctorID,
		)
		return nil
	}
	return errors.Forbidden("only doctors can edit visit history")
}
