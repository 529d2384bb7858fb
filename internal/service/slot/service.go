// Package slot builds the rolling booking calendar for a doctor. Every day in
// the window offers the same two fixed slots; a slot is unavailable while a
// Booked appointment sits at its exact start time.
package slot

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/datetime"
	"github.com/jwalitptl/hms-api/pkg/errors"
)

// WindowDays is the number of consecutive calendar days examined. Sundays
// inside the window are dropped, not replaced.
const WindowDays = 7

// Definition is one fixed daily slot.
type Definition struct {
	Label string
	Start string
	End   string
}

// DailySlots are offered on every working day. The second slot's bounds are
// kept exactly as the clinic has always published them.
var DailySlots = []Definition{
	{Label: "morning", Start: "08:00", End: "12:00"},
	{Label: "second", Start: "04:00", End: "09:00"},
}

type Service struct {
	users        repository.UserRepository
	appointments repository.AppointmentRepository
	loc          *time.Location
	now          func() time.Time
}

type Option func(*Service)

// WithClock overrides the reference instant source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the hospital's time zone used to decide "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func NewService(users repository.UserRepository, appointments repository.AppointmentRepository, opts ...Option) *Service {
	s := &Service{
		users:        users,
		appointments: appointments,
		loc:          time.Local,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DoctorSchedule is the doctor-facing view: the window starts today and
// occupied slots carry the patient's id and name.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID int64) (*model.DoctorSchedule, error) {
	return s.build(ctx, doctorID, 0, true)
}

// PatientAvailability is the booking view: the window starts tomorrow since
// same-day booking is not offered.
func (s *Service) PatientAvailability(ctx context.Context, doctorID int64) (*model.DoctorSchedule, error) {
	return s.build(ctx, doctorID, 1, false)
}

// WindowDates lists the ISO dates of the window starting offset days after
// the reference day, Sundays removed.
func WindowDates(ref time.Time, offset int) []time.Time {
	start := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location()).AddDate(0, 0, offset)

	dates := make([]time.Time, 0, WindowDays)
	for i := 0; i < WindowDays; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

func (s *Service) build(ctx context.Context, doctorID int64, offset int, withPatients bool) (*model.DoctorSchedule, error) {
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return nil, err
	}

	dates := WindowDates(s.now().In(s.loc), offset)
	schedule := &model.DoctorSchedule{
		DoctorID: doctorID,
		Days:     make([]model.ScheduleDay, 0, len(dates)),
	}
	if len(dates) == 0 {
		return schedule, nil
	}
	schedule.From = dates[0].Format(datetime.ISODate)
	schedule.To = dates[len(dates)-1].Format(datetime.ISODate)

	booked, err := s.appointments.ListBookedSlots(ctx, doctorID, schedule.From, schedule.To)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to load booked slots: %w", err))
	}
	occupied := make(map[string]*model.BookedSlot, len(booked))
	for _, b := range booked {
		occupied[b.Date+" "+b.Time] = b
	}

	for _, d := range dates {
		iso := d.Format(datetime.ISODate)
		day := model.ScheduleDay{
			Date:    iso,
			Weekday: d.Weekday().String(),
			Slots:   make([]model.TimeSlot, 0, len(DailySlots)),
		}
		for _, def := range DailySlots {
			slot := model.TimeSlot{
				Label:     def.Label,
				Start:     def.Start,
				End:       def.End,
				Available: true,
			}
			if b, ok := occupied[iso+" "+def.Start]; ok {
				slot.Available = false
				if withPatients {
					apptID, patientID, name := b.AppointmentID, b.PatientID, b.PatientName
					slot.AppointmentID = &apptID
					slot.PatientID = &patientID
					slot.PatientName = &name
				}
			}
			day.Slots = append(day.Slots, slot)
		}
		schedule.Days = append(schedule.Days, day)
	}

	return schedule, nil
}

func (s *Service) ensureDoctor(ctx context.Context, doctorID int64) error {
	u, err := s.users.Get(ctx, doctorID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("doctor", err)
		}
		return errors.Internal(fmt.Errorf("failed to load doctor: %w", err))
	}
	if u.Role != model.RoleDoctor {
		return errors.NotFound("doctor", nil)
	}
	return nil
}
