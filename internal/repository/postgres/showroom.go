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

func (r *showroomRepository) Create(ctx context.Context, showroom *model.Showroom) error {
	query := `
		INSERT INTO showrooms (id, name, address, city, postcode, phone, email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	showroom.ID = uuid.New()
	showroom.CreatedAt = time.Now()
	showroom.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		showroom.ID,
		showroom.Name,
		showroom.Address,
		showroom.City,
		showroom.Postcode,
		showroom.Phone,
		showroom.Email,
		showroom.Active,
		showroom.CreatedAt,
		showroom.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create showroom: %w", err)
	}
	return nil
}

func (r *showroomRepository) Get(ctx context.Context, id uuid.UUID) (*model.Showroom, error) {
	query := `
		SELECT id, name, address, city, postcode, phone, email, active, created_at, updated_at, deleted_at
		FROM showrooms
		WHERE id = $1 AND deleted_at IS NULL
	`
	var showroom model.Showroom
	err := r.db.GetContext(ctx, &showroom, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get showroom: %w", err)
	}
	return &showroom, nil
}

func (r *showroomRepository) Update(ctx context.Context, showroom *model.Showroom) error {
	query := `
		UPDATE showrooms
		SET name = $1, address = $2, city = $3, postcode = $4, phone = $5, email = $6, active = $7, updated_at = $8
		WHERE id = $9 AND deleted_at IS NULL
	`
	showroom.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		showroom.Name,
		showroom.Address,
		showroom.City,
		showroom.Postcode,
		showroom.Phone,
		showroom.Email,
		showroom.Active,
		showroom.UpdatedAt,
		showroom.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update showroom: %w", err)
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

func (r *showroomRepository) List(ctx context.Context) ([]*model.Showroom, error) {
	query := `
		SELECT id, name, address, city, postcode, phone, email, active, created_at, updated_at, deleted_at
		FROM showrooms
		WHERE deleted_at IS NULL
		ORDER BY name ASC
	`
	var showrooms []*model.Showroom
	err := r.db.SelectContext(ctx, &showrooms, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list showrooms: %w", err)
	}
	return showrooms, nil
}
