package stats

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
	"github.com/jwalitptl/hms-api/pkg/errors"
)

type Service struct {
	repo repository.StatsRepository
}

func NewService(repo repository.StatsRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Dashboard(ctx context.Context) (*model.DashboardCounts, error) {
	counts, err := s.repo.DashboardCounts(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to count dashboard totals: %w", err))
	}
	return counts, nil
}

// DoctorsBySpecialization returns chart-ready labels and values. Doctors
// without a specialization are counted under General.
func (s *Service) DoctorsBySpecialization(ctx context.Context) (*model.SpecializationStats, error) {
	rows, err := s.repo.DoctorsBySpecialization(ctx)
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("failed to group doctors: %w", err))
	}

	stats := &model.SpecializationStats{
		Labels: make([]string, 0, len(rows)),
		Values: make([]int64, 0, len(rows)),
	}
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		label := row.Specialization
		if label == "" {
			label = model.DefaultSpecialization
		}
		if i, ok := index[label]; ok {
			stats.Values[i] += row.Count
			continue
		}
		index[label] = len(stats.Labels)
		stats.Labels = append(stats.Labels, label)
		stats.Values = append(stats.Values, row.Count)
	}
	return stats, nil
}
