// Package memory is an in-process implementation of the repository
// interfaces. It backs the service tests and the `serve --memory` mode, and
// enforces the same uniqueness rules as the postgres schema.
package memory

import (
	"sync"
	"time"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type relationKey struct {
	doctorID  int64
	patientID int64
}

// DB holds every table behind one lock so multi-table operations are atomic.
type DB struct {
	mu sync.RWMutex

	seq          int64
	users        map[int64]*model.User
	appointments map[int64]*model.Appointment
	history      map[int64]*model.PatientHistory
	relations    map[relationKey]time.Time
	blacklist    []*model.BlacklistEntry

	now func() time.Time
}

func NewDB() *DB {
	return &DB{
		users:        make(map[int64]*model.User),
		appointments: make(map[int64]*model.Appointment),
		history:      make(map[int64]*model.PatientHistory),
		relations:    make(map[relationKey]time.Time),
		now:          time.Now,
	}
}

// NewStore returns a repository.Store backed by a fresh DB.
func NewStore() *repository.Store {
	return NewDB().Store()
}

func (db *DB) Store() *repository.Store {
	return &repository.Store{
		Users:        &userRepository{db},
		Appointments: &appointmentRepository{db},
		History:      &historyRepository{db},
		Relations:    &relationRepository{db},
		Blacklist:    &blacklistRepository{db},
		Stats:        &statsRepository{db},
	}
}

// nextID must be called with mu held for writing.
func (db *DB) nextID() int64 {
	db.seq++
	return db.seq
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Password = ""
	return &c
}

func cloneAppointment(a *model.Appointment) *model.Appointment {
	c := *a
	return &c
}

func cloneHistory(h *model.PatientHistory) *model.PatientHistory {
	c := *h
	return &c
}
