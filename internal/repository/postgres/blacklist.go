package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

type blacklistRepository struct {
	BaseRepository
}

func NewBlacklistRepository(base BaseRepository) repository.BlacklistRepository {
	return &blacklistRepository{base}
}

func (r *blacklistRepository) Add(ctx context.Context, entry *model.BlacklistEntry) error {
	if entry.Specialization == "" {
		entry.Specialization = model.DefaultSpecialization
	}
	query := `
		INSERT INTO blacklisted_doctors (name, username, specialization)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query, entry.Name, entry.Username, entry.Specialization).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add blacklist entry: %w", err)
	}
	return nil
}

func (r *blacklistRepository) List(ctx context.Context) ([]*model.BlacklistEntry, error) {
	query := `SELECT id, name, username, specialization, created_at FROM blacklisted_doctors ORDER BY id`

	entries := []*model.BlacklistEntry{}
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to list blacklist: %w", err)
	}
	return entries, nil
}

// IsBlacklisted treats an empty specialization on either side as General.
func (r *blacklistRepository) IsBlacklisted(ctx context.Context, name, username, specialization string) (bool, error) {
	if specialization == "" {
		specialization = model.DefaultSpecialization
	}
	query := `
		SELECT EXISTS (
			SELECT 1 FROM blacklisted_doctors
			WHERE name = $1
			AND username = $2
			AND COALESCE(NULLIF(specialization, ''), 'General') = $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, username, specialization); err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return exists, nil
}
