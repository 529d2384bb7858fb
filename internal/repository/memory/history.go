package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type historyRepository struct {
	db *DB
}

func (r *historyRepository) Create(ctx context.Context, history *model.PatientHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.appointments[history.AppointmentID]; !ok {
		return fmt.Errorf("appointment %d: %w", history.AppointmentID, repository.ErrNotFound)
	}

	now := r.db.now()
	history.ID = r.db.nextID()
	history.CreatedAt = now
	history.UpdatedAt = now
	r.db.history[history.ID] = cloneHistory(history)
	return nil
}

func (r *historyRepository) Get(ctx context.Context, id int64) (*model.PatientHistory, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	h, ok := r.db.history[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneHistory(h), nil
}

func (r *historyRepository) Update(ctx context.Context, history *model.PatientHistory) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	h, ok := r.db.history[history.ID]
	if !ok {
		return repository.ErrNotFound
	}

	h.VisitNotes = history.VisitNotes
	h.Prescription = history.Prescription
	h.Date = history.Date
	h.UpdatedAt = r.db.now()
	history.UpdatedAt = h.UpdatedAt
	return nil
}

func (r *historyRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.PatientHistory, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var records []*model.PatientHistory
	for _, h := range r.db.history {
		if h.PatientID == patientID {
			records = append(records, cloneHistory(h))
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date > records[j].Date
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}
