package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/hms-api/internal/repository"
)

// NewStore wires every postgres repository onto one connection pool.
func NewStore(db *sqlx.DB) *repository.Store {
	base := NewBaseRepository(db)
	return &repository.Store{
		Users:        NewUserRepository(base),
		Appointments: NewAppointmentRepository(base),
		History:      NewHistoryRepository(base),
		Relations:    NewRelationRepository(base),
		Blacklist:    NewBlacklistRepository(base),
		Stats:        NewStatsRepository(base),
	}
}
