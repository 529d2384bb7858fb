package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/hms-api/internal/model"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrSlotTaken         = errors.New("slot already booked")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrStatusChanged     = errors.New("appointment status changed")
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id int64) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id int64) error
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
		ListDoctors(ctx context.Context) ([]*model.DoctorSummary, error)
	}

	// AppointmentRepository stores appointments. Book and Reschedule return
	// ErrSlotTaken when another Booked row already holds (doctor, date, time).
	// Reschedule only moves Booked rows and UpdateStatus only writes when the
	// stored status still equals from; otherwise both return ErrStatusChanged.
	AppointmentRepository interface {
		Book(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id int64) (*model.Appointment, error)
		Reschedule(ctx context.Context, id int64, date, clock string) error
		UpdateStatus(ctx context.Context, appointment *model.Appointment, from model.AppointmentStatus) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, error)
		IsSlotBooked(ctx context.Context, doctorID int64, date, clock string, excludeID *int64) (bool, error)
		ListBookedSlots(ctx context.Context, doctorID int64, from, to string) ([]*model.BookedSlot, error)
		HasAppointmentWith(ctx context.Context, doctorID, patientID int64) (bool, error)
	}

	HistoryRepository interface {
		Create(ctx context.Context, history *model.PatientHistory) error
		Get(ctx context.Context, id int64) (*model.PatientHistory, error)
		Update(ctx context.Context, history *model.PatientHistory) error
		ListByPatient(ctx context.Context, patientID int64) ([]*model.PatientHistory, error)
	}

	// RelationRepository tracks doctor-patient relations. Add is idempotent.
	RelationRepository interface {
		Add(ctx context.Context, doctorID, patientID int64) error
		Exists(ctx context.Context, doctorID, patientID int64) (bool, error)
		ListPatients(ctx context.Context, doctorID int64) ([]*model.User, error)
	}

	BlacklistRepository interface {
		Add(ctx context.Context, entry *model.BlacklistEntry) error
		List(ctx context.Context) ([]*model.BlacklistEntry, error)
		IsBlacklisted(ctx context.Context, name, username, specialization string) (bool, error)
	}

	StatsRepository interface {
		DashboardCounts(ctx context.Context) (*model.DashboardCounts, error)
		DoctorsBySpecialization(ctx context.Context) ([]*model.SpecializationCount, error)
	}
)

// Store bundles every repository behind one backend.
type Store struct {
	Users        UserRepository
	Appointments AppointmentRepository
	History      HistoryRepository
	Relations    RelationRepository
	Blacklist    BlacklistRepository
	Stats        StatsRepository
}
