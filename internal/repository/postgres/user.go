package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/repository"
)

const userColumns = `id, name, username, password_hash, role, specialization, experience, email, created_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			name, username, password_hash, role, specialization, experience, email
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.Name,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Specialization,
		user.Experience,
		user.Email,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translate(err))
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", translate(err))
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", translate(err))
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, username = $2, specialization = $3, experience = $4, email = $5
		WHERE id = $6
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Name,
		user.Username,
		user.Specialization,
		user.Experience,
		user.Email,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translate(err))
	}
	return requireRows(result)
}

// Delete relies on ON DELETE CASCADE for appointments, history and relations.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRows(result)
}

func (r *userRepository) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	if filter == nil {
		filter = &model.UserFilter{}
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filter.Role != "" {
		query += fmt.Sprintf(" AND role = $%d", argCount)
		args = append(args, filter.Role)
		argCount++
	}

	if filter.SearchTerm != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR username ILIKE $%d)", argCount, argCount)
		args = append(args, "%"+filter.SearchTerm+"%")
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filter.Limit(), filter.Offset())

	var users []*model.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *userRepository) ListDoctors(ctx context.Context) ([]*model.DoctorSummary, error) {
	query := `
		SELECT id, name, COALESCE(NULLIF(specialization, ''), 'General') AS specialization
		FROM users
		WHERE role = 'doctor'
		ORDER BY id
	`
	var doctors []*model.DoctorSummary
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
