package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

const historyColumns = `id, appointment_id, patient_id, doctor_id, visit_notes, prescription, date, created_at, updated_at`

type historyRepository struct {
	BaseRepository
}

func NewHistoryRepository(base BaseRepository) repository.HistoryRepository {
	return &historyRepository{base}
}

func (r *historyRepository) Create(ctx context.Context, history *model.PatientHistory) error {
	query := `
		INSERT INTO patient_history (
			appointment_id, patient_id, doctor_id, visit_notes, prescription, date
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		history.AppointmentID,
		history.PatientID,
		history.DoctorID,
		history.VisitNotes,
		history.Prescription,
		history.Date,
	).Scan(&history.ID, &history.CreatedAt, &history.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create history: %w", translate(err))
	}
	return nil
}

func (r *historyRepository) Get(ctx context.Context, id int64) (*model.PatientHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM patient_history WHERE id = $1`

	var history model.PatientHistory
	if err := r.db.GetContext(ctx, &history, query, id); err != nil {
		return nil, fmt.Errorf("failed to get history: %w", translate(err))
	}
	return &history, nil
}

func (r *historyRepository) Update(ctx context.Context, history *model.PatientHistory) error {
	query := `
		UPDATE patient_history
		SET visit_notes = $1, prescription = $2, date = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		history.VisitNotes,
		history.Prescription,
		history.Date,
		history.ID,
	).Scan(&history.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update history: %w", translate(err))
	}
	return nil
}

func (r *historyRepository) ListByPatient(ctx context.Context, patientID int64) ([]*model.PatientHistory, error) {
	query := `SELECT ` + historyColumns + ` FROM patient_history WHERE patient_id = $1 ORDER BY date DESC, id DESC`

	var records []*model.PatientHistory
	if err := r.db.SelectContext(ctx, &records, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}
