package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type relationRepository struct {
	BaseRepository
}

func NewRelationRepository(base BaseRepository) repository.RelationRepository {
	return &relationRepository{base}
}

func (r *relationRepository) Add(ctx context.Context, doctorID, patientID int64) error {
	query := `
		INSERT INTO doctor_patient_relations (doctor_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT (doctor_id, patient_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, doctorID, patientID); err != nil {
		return fmt.Errorf("failed to add relation: %w", err)
	}
	return nil
}

func (r *relationRepository) Exists(ctx context.Context, doctorID, patientID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM doctor_patient_relations WHERE doctor_id = $1 AND patient_id = $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doctorID, patientID); err != nil {
		return false, fmt.Errorf("failed to check relation: %w", err)
	}
	return exists, nil
}

func (r *relationRepository) ListPatients(ctx context.Context, doctorID int64) ([]*model.User, error) {
	query := `
		SELECT u.id, u.name, u.username, u.password_hash, u.role,
			   u.specialization, u.experience, u.email, u.created_at
		FROM doctor_patient_relations r
		JOIN users u ON u.id = r.patient_id
		WHERE r.doctor_id = $1
		ORDER BY u.name
	`
	var patients []*model.User
	if err := r.db.SelectContext(ctx, &patients, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list related patients: %w", err)
	}
	return patients, nil
}
