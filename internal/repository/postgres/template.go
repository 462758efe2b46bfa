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

func (r *templateRepository) Create(ctx context.Context, template *model.PermissionTemplate) error {
	query := `
		INSERT INTO permission_templates (id, key, name, description, category, capabilities, is_default, showroom_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	template.ID = uuid.New()
	template.CreatedAt = time.Now()
	template.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.Key,
		template.Name,
		template.Description,
		template.Category,
		template.Capabilities,
		template.IsDefault,
		template.ShowroomID,
		template.CreatedBy,
		template.CreatedAt,
		template.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create permission template: %w", err)
	}
	return nil
}

func (r *templateRepository) Get(ctx context.Context, id uuid.UUID) (*model.PermissionTemplate, error) {
	query := `
		SELECT id, key, name, description, category, capabilities, is_default, showroom_id, created_by, created_at, updated_at
		FROM permission_templates
		WHERE id = $1
	`
	var template model.PermissionTemplate
	err := r.db.GetContext(ctx, &template, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get permission template: %w", err)
	}
	return &template, nil
}

func (r *templateRepository) List(ctx context.Context, showroomID *uuid.UUID) ([]*model.PermissionTemplate, error) {
	var query string
	var args []interface{}

	if showroomID != nil {
		query = `
			SELECT id, key, name, description, category, capabilities, is_default, showroom_id, created_by, created_at, updated_at
			FROM permission_templates
			WHERE showroom_id = $1 OR showroom_id IS NULL
			ORDER BY name ASC
		`
		args = append(args, *showroomID)
	} else {
		query = `
			SELECT id, key, name, description, category, capabilities, is_default, showroom_id, created_by, created_at, updated_at
			FROM permission_templates
			ORDER BY name ASC
		`
	}

	var templates []*model.PermissionTemplate
	err := r.db.SelectContext(ctx, &templates, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission templates: %w", err)
	}
	return templates, nil
}

func (r *templateRepository) NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error) {
	var query string
	var args []interface{}

	if showroomID != nil {
		query = `SELECT EXISTS (SELECT 1 FROM permission_templates WHERE name = $1 AND showroom_id = $2)`
		args = []interface{}{name, *showroomID}
	} else {
		query = `SELECT EXISTS (SELECT 1 FROM permission_templates WHERE name = $1 AND showroom_id IS NULL)`
		args = []interface{}{name}
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check template name: %w", err)
	}
	return exists, nil
}

// SetDefault flips the scope's default template inside one transaction
// so there is no window with zero or two defaults.
func (r *templateRepository) SetDefault(ctx context.Context, id uuid.UUID, showroomID *uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if showroomID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE permission_templates SET is_default = false, updated_at = $1 WHERE showroom_id = $2 AND is_default = true`,
			now, *showroomID)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE permission_templates SET is_default = false, updated_at = $1 WHERE showroom_id IS NULL AND is_default = true`,
			now)
	}
	if err != nil {
		return fmt.Errorf("failed to unset default templates: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE permission_templates SET is_default = true, updated_at = $1 WHERE id = $2`,
		now, id)
	if err != nil {
		return fmt.Errorf("failed to set default template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit default template change: %w", err)
	}
	return nil
}
