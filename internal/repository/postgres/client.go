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

const clientColumns = `
	id, showroom_id, owner_id, first_name, last_name, email, phone,
	address_line1, address_line2, city, postcode, lead_source,
	marketing_opt_in, notes, created_at, updated_at, deleted_at
`

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	query := `
		INSERT INTO clients (
			id, showroom_id, owner_id, first_name, last_name, email, phone,
			address_line1, address_line2, city, postcode, lead_source,
			marketing_opt_in, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	client.ID = uuid.New()
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.ShowroomID,
		client.OwnerID,
		client.FirstName,
		client.LastName,
		client.Email,
		client.Phone,
		client.AddressLine1,
		client.AddressLine2,
		client.City,
		client.Postcode,
		client.LeadSource,
		client.MarketingOptIn,
		client.Notes,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND deleted_at IS NULL`

	var client model.Client
	err := r.db.GetContext(ctx, &client, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	query := `
		UPDATE clients
		SET owner_id = $1, first_name = $2, last_name = $3, email = $4, phone = $5,
		    address_line1 = $6, address_line2 = $7, city = $8, postcode = $9,
		    lead_source = $10, marketing_opt_in = $11, notes = $12, updated_at = $13
		WHERE id = $14 AND deleted_at IS NULL
	`
	client.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		client.OwnerID,
		client.FirstName,
		client.LastName,
		client.Email,
		client.Phone,
		client.AddressLine1,
		client.AddressLine2,
		client.City,
		client.Postcode,
		client.LeadSource,
		client.MarketingOptIn,
		client.Notes,
		client.UpdatedAt,
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
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

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE clients SET deleted_at = $1, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
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

func (r *clientRepository) List(ctx context.Context, filter *model.ClientFilter) ([]*model.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE deleted_at IS NULL`
	var args []interface{}
	idx := 1

	if filter != nil {
		if filter.ShowroomID != nil {
			query += fmt.Sprintf(" AND showroom_id = $%d", idx)
			args = append(args, *filter.ShowroomID)
			idx++
		}
		if filter.OwnerID != nil {
			query += fmt.Sprintf(" AND owner_id = $%d", idx)
			args = append(args, *filter.OwnerID)
			idx++
		}
		if filter.Search != "" {
			query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", idx, idx, idx)
			args = append(args, "%"+filter.Search+"%")
			idx++
		}
	}

	query += " ORDER BY created_at DESC"

	if filter != nil && filter.Pagination.PageSize > 0 {
		page := filter.Pagination.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1)
		args = append(args, filter.Pagination.PageSize, (page-1)*filter.Pagination.PageSize)
	}

	var clients []*model.Client
	err := r.db.SelectContext(ctx, &clients, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
