package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/model"
)

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (id, user_id, showroom_id, action, entity_type, entity_id, changes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	log.ID = uuid.New()
	log.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.UserID,
		log.ShowroomID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Changes,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditLog, error) {
	query := `
		SELECT id, user_id, showroom_id, action, entity_type, entity_id, changes, created_at
		FROM audit_logs
		WHERE 1=1
	`
	var args []interface{}
	idx := 1

	if filter != nil {
		if filter.UserID != nil {
			query += fmt.Sprintf(" AND user_id = $%d", idx)
			args = append(args, *filter.UserID)
			idx++
		}
		if filter.ShowroomID != nil {
			query += fmt.Sprintf(" AND showroom_id = $%d", idx)
			args = append(args, *filter.ShowroomID)
			idx++
		}
		if filter.EntityType != "" {
			query += fmt.Sprintf(" AND entity_type = $%d", idx)
			args = append(args, filter.EntityType)
			idx++
		}
		if filter.Since != nil {
			query += fmt.Sprintf(" AND created_at >= $%d", idx)
			args = append(args, *filter.Since)
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

	var logs []*model.AuditLog
	err := r.db.SelectContext(ctx, &logs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
