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

func (r *roleRepository) CreateCustomRole(ctx context.Context, role *model.CustomRole) error {
	query := `
		INSERT INTO custom_roles (id, name, description, base_role, capabilities, active, showroom_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	role.ID = uuid.New()
	role.CreatedAt = time.Now()
	role.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		role.ID,
		role.Name,
		role.Description,
		role.BaseRole,
		role.Capabilities,
		role.Active,
		role.ShowroomID,
		role.CreatedBy,
		role.CreatedAt,
		role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create custom role: %w", err)
	}
	return nil
}

func (r *roleRepository) GetCustomRole(ctx context.Context, id uuid.UUID) (*model.CustomRole, error) {
	query := `
		SELECT id, name, description, base_role, capabilities, active, showroom_id, created_by, created_at, updated_at
		FROM custom_roles
		WHERE id = $1
	`
	var role model.CustomRole
	err := r.db.GetContext(ctx, &role, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom role: %w", err)
	}
	return &role, nil
}

func (r *roleRepository) UpdateCustomRole(ctx context.Context, role *model.CustomRole) error {
	query := `
		UPDATE custom_roles
		SET name = $1, description = $2, base_role = $3, capabilities = $4, active = $5, updated_at = $6
		WHERE id = $7
	`
	role.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		role.Name,
		role.Description,
		role.BaseRole,
		role.Capabilities,
		role.Active,
		role.UpdatedAt,
		role.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update custom role: %w", err)
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

func (r *roleRepository) ListCustomRoles(ctx context.Context, showroomID *uuid.UUID, includeGlobal bool) ([]*model.CustomRole, error) {
	var query string
	var args []interface{}

	switch {
	case showroomID != nil && includeGlobal:
		query = `
			SELECT id, name, description, base_role, capabilities, active, showroom_id, created_by, created_at, updated_at
			FROM custom_roles
			WHERE showroom_id = $1 OR showroom_id IS NULL
			ORDER BY created_at DESC
		`
		args = append(args, *showroomID)
	case showroomID != nil:
		query = `
			SELECT id, name, description, base_role, capabilities, active, showroom_id, created_by, created_at, updated_at
			FROM custom_roles
			WHERE showroom_id = $1
			ORDER BY created_at DESC
		`
		args = append(args, *showroomID)
	default:
		query = `
			SELECT id, name, description, base_role, capabilities, active, showroom_id, created_by, created_at, updated_at
			FROM custom_roles
			ORDER BY created_at DESC
		`
	}

	var roles []*model.CustomRole
	err := r.db.SelectContext(ctx, &roles, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom roles: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error) {
	var query string
	var args []interface{}

	if showroomID != nil {
		query = `SELECT EXISTS (SELECT 1 FROM custom_roles WHERE name = $1 AND showroom_id = $2)`
		args = []interface{}{name, *showroomID}
	} else {
		query = `SELECT EXISTS (SELECT 1 FROM custom_roles WHERE name = $1 AND showroom_id IS NULL)`
		args = []interface{}{name}
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("failed to check role name: %w", err)
	}
	return exists, nil
}

func (r *roleRepository) CreateAssignment(ctx context.Context, assignment *model.RoleAssignment) error {
	query := `
		INSERT INTO role_assignments (id, user_id, custom_role_id, active, expires_at, notes, assigned_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	assignment.ID = uuid.New()
	assignment.CreatedAt = time.Now()
	assignment.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.UserID,
		assignment.CustomRoleID,
		assignment.Active,
		assignment.ExpiresAt,
		assignment.Notes,
		assignment.AssignedBy,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create role assignment: %w", err)
	}
	return nil
}

func (r *roleRepository) DeactivateAssignment(ctx context.Context, userID, customRoleID uuid.UUID) error {
	query := `
		UPDATE role_assignments
		SET active = false, updated_at = $1
		WHERE user_id = $2 AND custom_role_id = $3 AND active = true
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), userID, customRoleID)
	if err != nil {
		return fmt.Errorf("failed to deactivate role assignment: %w", err)
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

func (r *roleRepository) ListActiveAssignments(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.AssignmentWithRole, error) {
	query := `
		SELECT
			a.id, a.user_id, a.custom_role_id, a.active, a.expires_at, a.notes, a.assigned_by, a.created_at, a.updated_at,
			r.id AS "role.id", r.name AS "role.name", r.description AS "role.description",
			r.base_role AS "role.base_role", r.capabilities AS "role.capabilities",
			r.active AS "role.active", r.showroom_id AS "role.showroom_id",
			r.created_by AS "role.created_by", r.created_at AS "role.created_at", r.updated_at AS "role.updated_at"
		FROM role_assignments a
		JOIN custom_roles r ON r.id = a.custom_role_id
		WHERE a.user_id = $1
		  AND a.active = true
		  AND r.active = true
		  AND (a.expires_at IS NULL OR a.expires_at > $2)
		ORDER BY a.created_at ASC
	`
	var assignments []*model.AssignmentWithRole
	err := r.db.SelectContext(ctx, &assignments, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}
	return assignments, nil
}
