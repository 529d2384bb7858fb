package appointment

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/datetime"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/logger"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

// Notifier is told about every committed state change. Failures are logged
// and never undo the change.
type Notifier interface {
	AppointmentChanged(ctx context.Context, event *model.AppointmentEvent) error
}

type Service struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	notifier     Notifier
	metrics      *metrics.Metrics
	log          *logger.Logger
	now          func() time.Time
}

func NewService(
	users repository.UserRepository,
	appointments repository.AppointmentRepository,
	notifier Notifier,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:        users,
		appointments: appointments,
		notifier:     notifier,
		metrics:      m,
		log:          log.Component("appointment"),
		now:          time.Now,
	}
}

// SetClock replaces time.Now, used for "now" comparisons and event stamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Book reserves (doctor, date, time) for a patient. Patients book only for
// themselves, doctors only into their own calendar, admins for anyone.
func (s *Service) Book(ctx context.Context, actor model.Actor, doctorID, patientID int64, date, clock string) (*model.Appointment, error) {
	if actor.IsPatient() && patientID == 0 {
		patientID = actor.ID
	}
	if doctorID == 0 || patientID == 0 {
		return nil, errors.Validation("doctor_id and patient_id are required")
	}

	switch {
	case actor.IsAdmin():
	case actor.IsPatient() && actor.ID != patientID:
		return nil, errors.Forbidden("patients can only book for themselves")
	case actor.IsDoctor() && actor.ID != doctorID:
		return nil, errors.Forbidden("doctors can only book into their own calendar")
	case !actor.IsPatient() && !actor.IsDoctor():
		return nil, errors.Forbidden("")
	}

	isoDate, clock, err := normalizeSlot(date, clock)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRole(ctx, doctorID, model.RoleDoctor); err != nil {
		return nil, err
	}
	if err := s.ensureRole(ctx, patientID, model.RolePatient); err != nil {
		return nil, err
	}

	taken, err := s.appointments.IsSlotBooked(ctx, doctorID, isoDate, clock, nil)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to check slot: %w", err))
	}
	if taken {
		s.metrics.SlotConflicts.WithLabelValues("book").Inc()
		return nil, errors.SlotConflict("")
	}

	apt := &model.Appointment{
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      isoDate,
		Time:      clock,
		Status:    model.AppointmentStatusBooked,
	}
	if err := s.appointments.Book(ctx, apt); err != nil {
		if stderrors.Is(err, repository.ErrSlotTaken) {
			s.metrics.SlotConflicts.WithLabelValues("book").Inc()
			return nil, errors.SlotConflict("")
		}
		return nil, errors.Internal(fmt.Errorf("failed to book appointment: %w", err))
	}

	s.metrics.AppointmentsBooked.Inc()
	s.log.Info("Appointment booked",
		"appointment_id", apt.ID,
		"doctor_id", doctorID,
		"patient_id", patientID,
		"date", isoDate,
		"time", clock,
	)
	s.notify(ctx, model.EventAppointmentBooked, apt, actor, "", "")

	return apt, nil
}

// Cancel marks a Booked appointment Cancelled. Patients see appointments
// they do not own as missing. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, actor model.Actor, id int64) (*model.Appointment, error) {
	apt, err := s.ownedAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	switch apt.Status {
	case model.AppointmentStatusCancelled:
		return apt, nil
	case model.AppointmentStatusCompleted:
		return nil, errors.Validation("completed appointments cannot be cancelled")
	}

	apt.Status = model.AppointmentStatusCancelled
	if err := s.appointments.UpdateStatus(ctx, apt, model.AppointmentStatusBooked); err != nil {
		return nil, s.mapRepoError("appointment", err)
	}

	s.metrics.AppointmentsCancelled.Inc()
	s.log.Info("Appointment cancelled", "appointment_id", apt.ID, "actor_id", actor.ID)
	s.notify(ctx, model.EventAppointmentCancelled, apt, actor, "", "")

	return apt, nil
}

// Reschedule moves a Booked appointment to a new date and time in place.
func (s *Service) Reschedule(ctx context.Context, actor model.Actor, id int64, date, clock string) (*model.Appointment, error) {
	apt, err := s.ownedAppointment(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !apt.IsBooked() {
		return nil, errors.Validation(fmt.Sprintf("cannot reschedule a %s appointment", apt.Status))
	}

	isoDate, clock, err := normalizeSlot(date, clock)
	if err != nil {
		return nil, err
	}
	if isoDate == apt.Date && clock == apt.Time {
		return apt, nil
	}

	taken, err := s.appointments.IsSlotBooked(ctx, apt.DoctorID, isoDate, clock, &apt.ID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to check slot: %w", err))
	}
	if taken {
		s.metrics.SlotConflicts.WithLabelValues("reschedule").Inc()
		return nil, errors.SlotConflict("")
	}

	if err := s.appointments.Reschedule(ctx, apt.ID, isoDate, clock); err != nil {
		if stderrors.Is(err, repository.ErrSlotTaken) {
			s.metrics.SlotConflicts.WithLabelValues("reschedule").Inc()
			return nil, errors.SlotConflict("")
		}
		return nil, s.mapRepoError("appointment", err)
	}

	prevDate, prevTime := apt.Date, apt.Time
	apt.Date, apt.Time = isoDate, clock

	s.metrics.AppointmentsRescheduled.Inc()
	s.log.Info("Appointment rescheduled",
		"appointment_id", apt.ID,
		"from", prevDate+" "+prevTime,
		"to", isoDate+" "+clock,
	)
	s.notify(ctx, model.EventAppointmentRescheduled, apt, actor, prevDate, prevTime)

	return apt, nil
}

// Complete records the outcome of a visit. Only the assigned doctor may
// complete, and there is no check that the visit time has passed.
func (s *Service) Complete(ctx context.Context, actor model.Actor, id int64, diagnosis, prescription string) (*model.Appointment, error) {
	apt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsDoctor() || apt.DoctorID != actor.ID {
		return nil, errors.Forbidden("only the assigned doctor can complete this appointment")
	}
	if apt.Status == model.AppointmentStatusCancelled {
		return nil, errors.Validation("cancelled appointments cannot be completed")
	}

	// a Completed visit may be completed again to amend its notes
	from := apt.Status
	apt.Status = model.AppointmentStatusCompleted
	apt.Diagnosis = &diagnosis
	apt.Prescription = &prescription
	if err := s.appointments.UpdateStatus(ctx, apt, from); err != nil {
		return nil, s.mapRepoError("appointment", err)
	}

	s.metrics.AppointmentsCompleted.Inc()
	s.log.Info("Appointment completed", "appointment_id", apt.ID, "doctor_id", actor.ID)
	s.notify(ctx, model.EventAppointmentCompleted, apt, actor, "", "")

	return apt, nil
}

// Get returns an appointment visible to the actor: admins see everything,
// doctors and patients only their own.
func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (*model.Appointment, error) {
	apt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !visibleTo(actor, apt) {
		return nil, errors.NotFound("appointment", nil)
	}
	return apt, nil
}

// List returns the actor's appointments ordered by date and time. Admins may
// filter freely; everyone else is pinned to their own id.
func (s *Service) List(ctx context.Context, actor model.Actor, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error) {
	if filters == nil {
		filters = &model.AppointmentFilters{}
	}
	switch {
	case actor.IsPatient():
		filters.PatientID = actor.ID
	case actor.IsDoctor():
		filters.DoctorID = actor.ID
	case !actor.IsAdmin():
		return nil, errors.Forbidden("")
	}

	list, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list appointments: %w", err))
	}
	if list == nil {
		list = []*model.AppointmentDetail{}
	}
	return list, nil
}

// ListForPatient and ListForDoctor back the admin views of one user's
// appointments.
func (s *Service) ListForPatient(ctx context.Context, patientID int64) ([]*model.AppointmentDetail, error) {
	return s.List(ctx, model.Actor{ID: patientID, Role: model.RolePatient}, nil)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID int64) ([]*model.AppointmentDetail, error) {
	return s.List(ctx, model.Actor{ID: doctorID, Role: model.RoleDoctor}, nil)
}

// ownedAppointment applies the cancel/reschedule ownership rule.
func (s *Service) ownedAppointment(ctx context.Context, actor model.Actor, id int64) (*model.Appointment, error) {
	apt, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		return apt, nil
	case actor.IsPatient() && apt.PatientID == actor.ID:
		return apt, nil
	case actor.IsPatient():
		return nil, errors.NotFound("appointment", nil)
	default:
		return nil, errors.Forbidden("only the patient can change this appointment")
	}
}

func (s *Service) get(ctx context.Context, id int64) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, s.mapRepoError("appointment", err)
	}
	return apt, nil
}

func (s *Service) ensureRole(ctx context.Context, id int64, role model.Role) error {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return s.mapRepoError(string(role), err)
	}
	if u.Role != role {
		return errors.NotFound(string(role), nil)
	}
	return nil
}

func (s *Service) mapRepoError(resource string, err error) error {
	switch {
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFound(resource, err)
	case stderrors.Is(err, repository.ErrStatusChanged):
		return errors.Validation(fmt.Sprintf("%s was changed by another request", resource))
	}
	return errors.Internal(err)
}

func (s *Service) notify(ctx context.Context, eventType model.AppointmentEventType, apt *model.Appointment, actor model.Actor, prevDate, prevTime string) {
	if s.notifier == nil {
		return
	}
	event := &model.AppointmentEvent{
		Type:        eventType,
		Appointment: *apt,
		ActorID:     actor.ID,
		PrevDate:    prevDate,
		PrevTime:    prevTime,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.notifier.AppointmentChanged(ctx, event); err != nil {
		s.metrics.EventsFailed.WithLabelValues(string(eventType)).Inc()
		s.log.Error(err, "Failed to notify appointment change", "appointment_id", apt.ID, "event", eventType)
		return
	}
	s.metrics.EventsPublished.WithLabelValues(string(eventType)).Inc()
}

func visibleTo(actor model.Actor, apt *model.Appointment) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.IsDoctor():
		return apt.DoctorID == actor.ID
	case actor.IsPatient():
		return apt.PatientID == actor.ID
	}
	return false
}

func normalizeSlot(date, clock string) (string, string, error) {
	isoDate, err := datetime.NormalizeDate(date)
	if err != nil {
		return "", "", errors.InvalidDateTime("date must be DD/MM/YYYY or YYYY-MM-DD", err)
	}
	if !datetime.ValidClock(clock) {
		return "", "", errors.InvalidDateTime("time must be HH:MM", nil)
	}
	return isoDate, clock, nil
}
