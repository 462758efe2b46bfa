package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/pipeline"
	"github.com/renovahq/crm-api/internal/repository"
)

const projectColumns = `
	id, showroom_id, client_id, owner_id, assigned_user_id, title, description,
	stage, status, quoted_value, version,
	consultation_date, survey_date, design_presented_date, sale_date,
	actual_start_date, actual_end_date, lost_reason,
	created_at, updated_at, deleted_at
`

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	query := `
		INSERT INTO projects (
			id, showroom_id, client_id, owner_id, assigned_user_id, title, description,
			stage, status, quoted_value, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	project.ID = uuid.New()
	project.Stage = pipeline.Initial()
	project.Status = pipeline.StatusActive
	project.Version = 1
	project.CreatedAt = time.Now()
	project.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		project.ID,
		project.ShowroomID,
		project.ClientID,
		project.OwnerID,
		project.AssignedUserID,
		project.Title,
		project.Description,
		project.Stage,
		project.Status,
		project.QuotedValue,
		project.Version,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *projectRepository) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND deleted_at IS NULL`

	var project model.Project
	err := r.db.GetContext(ctx, &project, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *projectRepository) Update(ctx context.Context, project *model.Project) error {
	query := `
		UPDATE projects
		SET title = $1, description = $2, owner_id = $3, assigned_user_id = $4,
		    quoted_value = $5, lost_reason = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	project.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		project.Title,
		project.Description,
		project.OwnerID,
		project.AssignedUserID,
		project.QuotedValue,
		project.LostReason,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
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

// UpdateStage persists a stage change guarded by the version counter.
// A zero row count with the project present means a concurrent writer
// won the race.
func (r *projectRepository) UpdateStage(ctx context.Context, project *model.Project, expectedVersion int64) error {
	query := `
		UPDATE projects
		SET stage = $1, status = $2,
		    consultation_date = $3, survey_date = $4, design_presented_date = $5,
		    sale_date = $6, actual_start_date = $7, actual_end_date = $8,
		    lost_reason = $9, version = version + 1, updated_at = $10
		WHERE id = $11 AND version = $12 AND deleted_at IS NULL
	`
	project.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		project.Stage,
		project.Status,
		project.ConsultationDate,
		project.SurveyDate,
		project.DesignPresentedDate,
		project.SaleDate,
		project.ActualStartDate,
		project.ActualEndDate,
		project.LostReason,
		project.UpdatedAt,
		project.ID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update project stage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1 AND deleted_at IS NULL)`, project.ID); err != nil {
			return fmt.Errorf("failed to check project existence: %w", err)
		}
		if exists {
			return repository.ErrVersionConflict
		}
		return repository.ErrNotFound
	}

	project.Version = expectedVersion + 1
	return nil
}

func (r *projectRepository) List(ctx context.Context, filter *model.ProjectFilter) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE deleted_at IS NULL`
	var args []interface{}
	idx := 1

	if filter != nil {
		if filter.ShowroomID != nil {
			query += fmt.Sprintf(" AND showroom_id = $%d", idx)
			args = append(args, *filter.ShowroomID)
			idx++
		}
		if filter.ClientID != nil {
			query += fmt.Sprintf(" AND client_id = $%d", idx)
			args = append(args, *filter.ClientID)
			idx++
		}
		if filter.OwnerID != nil {
			query += fmt.Sprintf(" AND owner_id = $%d", idx)
			args = append(args, *filter.OwnerID)
			idx++
		}
		if filter.AssignedUserID != nil {
			query += fmt.Sprintf(" AND assigned_user_id = $%d", idx)
			args = append(args, *filter.AssignedUserID)
			idx++
		}
		if filter.Stage != nil {
			query += fmt.Sprintf(" AND stage = $%d", idx)
			args = append(args, *filter.Stage)
			idx++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", idx)
			args = append(args, *filter.Status)
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

	var projects []*model.Project
	err := r.db.SelectContext(ctx, &projects, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}
