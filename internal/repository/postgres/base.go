package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/hms-api/internal/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"

	bookedSlotIndex  = "appointments_booked_slot_key"
	usernameIndex    = "users_username_key"
	historyAppointFK = "patient_history_appointment_id_fkey"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case uniqueViolation:
			switch pqErr.Constraint {
			case bookedSlotIndex:
				return repository.ErrSlotTaken
			case usernameIndex:
				return repository.ErrDuplicateUsername
			}
		case foreignKeyViolation:
			if pqErr.Constraint == historyAppointFK {
				return repository.ErrNotFound
			}
		}
	}
	return err
}

// requireRows turns an UPDATE or DELETE that touched nothing into ErrNotFound.
func requireRows(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
