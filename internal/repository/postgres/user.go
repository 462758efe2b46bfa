package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/repository"
)

const userColumns = `
	id, email, password_hash, first_name, last_name, phone, role, showroom_id,
	status, failed_logins, last_login_attempt, last_login_at,
	created_at, updated_at, deleted_at
`

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone, role,
			showroom_id, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.ShowroomID,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, phone = $4, role = $5,
		    showroom_id = $6, status = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`
	user.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.ShowroomID,
		user.Status,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateLoginState persists only the lockout bookkeeping columns.
func (r *userRepository) UpdateLoginState(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET status = $1, failed_logins = $2, last_login_attempt = $3, last_login_at = $4, updated_at = $5
		WHERE id = $6
	`
	user.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		user.Status,
		user.FailedLogins,
		user.LastLoginAttempt,
		user.LastLoginAt,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update login state: %w", err)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE deleted_at IS NULL`
	var args []interface{}
	idx := 1

	if filter != nil {
		if filter.ShowroomID != nil {
			query += fmt.Sprintf(" AND showroom_id = $%d", idx)
			args = append(args, *filter.ShowroomID)
			idx++
		}
		if filter.Role != nil {
			query += fmt.Sprintf(" AND role = $%d", idx)
			args = append(args, *filter.Role)
			idx++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", idx)
			args = append(args, *filter.Status)
			idx++
		}
		if filter.Search != "" {
			query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", idx, idx, idx)
			args = append(args, "%"+filter.Search+"%")
			idx++
		}
	}

	query += " ORDER BY created_at DESC"

	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
