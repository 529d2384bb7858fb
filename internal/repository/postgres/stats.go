package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type statsRepository struct {
	BaseRepository
}

func NewStatsRepository(base BaseRepository) repository.StatsRepository {
	return &statsRepository{base}
}

func (r *statsRepository) DashboardCounts(ctx context.Context) (*model.DashboardCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'doctor')  AS doctors,
			(SELECT COUNT(*) FROM users WHERE role = 'patient') AS patients,
			(SELECT COUNT(*) FROM appointments)                 AS appointments
	`
	var counts model.DashboardCounts
	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to count dashboard totals: %w", err)
	}
	return &counts, nil
}

func (r *statsRepository) DoctorsBySpecialization(ctx context.Context) ([]*model.SpecializationCount, error) {
	query := `
		SELECT COALESCE(NULLIF(specialization, ''), 'General') AS specialization, COUNT(*) AS count
		FROM users
		WHERE role = 'doctor'
		GROUP BY 1
		ORDER BY 1
	`
	var counts []*model.SpecializationCount
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, fmt.Errorf("failed to group doctors by specialization: %w", err)
	}
	return counts, nil
}
