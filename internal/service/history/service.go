package history

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/datetime"
	"github.com/jwalitptl/hms-api/pkg/errors"
	"github.com/jwalitptl/hms-api/pkg/metrics"
)

type Service struct {
	repo         repository.HistoryRepository
	appointments repository.AppointmentRepository
	authz        *Authorizer
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(repo repository.HistoryRepository, appointments repository.AppointmentRepository, authz *Authorizer, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Service{
		repo:         repo,
		appointments: appointments,
		authz:        authz,
		metrics:      m,
		now:          time.Now,
	}
}

func (s *Service) List(ctx context.Context, actor model.Actor, patientID int64) ([]*model.PatientHistory, error) {
	if err := s.authz.CanRead(ctx, actor, patientID); err != nil {
		s.denied("read", actor, err)
		return nil, err
	}

	records, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to list history: %w", err))
	}
	if records == nil {
		records = []*model.PatientHistory{}
	}
	return records, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id int64) (*model.PatientHistory, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanRead(ctx, actor, record.PatientID); err != nil {
		s.denied("read", actor, err)
		return nil, err
	}
	return record, nil
}

// SetClock replaces time.Now for the appointment-time check in Create.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Save creates a record when input carries no id and updates otherwise.
func (s *Service) Save(ctx context.Context, actor model.Actor, input *model.HistoryInput) (*model.PatientHistory, error) {
	if input.ID != nil {
		return s.Update(ctx, actor, *input.ID, input)
	}
	return s.Create(ctx, actor, input)
}

// Create attaches a visit record to an appointment. Patient and doctor are
// taken from the appointment, and the date defaults to the appointment date.
func (s *Service) Create(ctx context.Context, actor model.Actor, input *model.HistoryInput) (*model.PatientHistory, error) {
	if input.AppointmentID == 0 {
		return nil, errors.Validation("appointment_id is required")
	}

	apt, err := s.appointments.Get(ctx, input.AppointmentID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("appointment", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load appointment: %w", err))
	}

	if err := s.authz.CanCreate(ctx, actor, apt, s.now()); err != nil {
		s.denied("create", actor, err)
		return nil, err
	}

	date := apt.Date
	if input.Date != "" {
		if date, err = datetime.NormalizeDate(input.Date); err != nil {
			return nil, errors.InvalidDateTime("invalid history date", err)
		}
	}

	record := &model.PatientHistory{
		AppointmentID: apt.ID,
		PatientID:     apt.PatientID,
		DoctorID:      apt.DoctorID,
		VisitNotes:    input.VisitNotes,
		Prescription:  input.Prescription,
		Date:          date,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("appointment", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to create history: %w", err))
	}

	s.metrics.HistoryWrites.WithLabelValues("create").Inc()
	return record, nil
}

// Update rewrites the notes, prescription and (optionally) date of a record.
func (s *Service) Update(ctx context.Context, actor model.Actor, id int64, input *model.HistoryInput) (*model.PatientHistory, error) {
	record, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanUpdate(ctx, actor, record); err != nil {
		s.denied("update", actor, err)
		return nil, err
	}

	record.VisitNotes = input.VisitNotes
	record.Prescription = input.Prescription
	if input.Date != "" {
		if record.Date, err = datetime.NormalizeDate(input.Date); err != nil {
			return nil, errors.InvalidDateTime("invalid history date", err)
		}
	}

	if err := s.repo.Update(ctx, record); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("history record", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to update history: %w", err))
	}

	s.metrics.HistoryWrites.WithLabelValues("update").Inc()
	return record, nil
}

func (s *Service) load(ctx context.Context, id int64) (*model.PatientHistory, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("history record", err)
		}
		return nil, errors.Internal(fmt.Errorf("failed to load history: %w", err))
	}
	return record, nil
}

func (s *Service) denied(operation string, actor model.Actor, err error) {
	if errors.KindOf(err) == errors.KindForbidden {
		s.metrics.HistoryAccessDenials.WithLabelValues(operation, string(actor.Role)).Inc()
	}
}
