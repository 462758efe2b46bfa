package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/repository"
)

type Service struct {
	repo repository.AuditRepository
}

func NewService(repo repository.AuditRepository) *Service {
	return &Service{repo: repo}
}

type LogOptions struct {
	Changes interface{}
}

// Log creates an audit log entry. Marshal failures surface to the
// caller; audit writes themselves are best-effort at call sites.
func (s *Service) Log(ctx context.Context, userID uuid.UUID, showroomID *uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) error {
	var changes json.RawMessage
	if opts != nil && opts.Changes != nil {
		b, err := json.Marshal(opts.Changes)
		if err != nil {
			return err
		}
		changes = b
	}

	log := &model.AuditLog{
		UserID:     userID,
		ShowroomID: showroomID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
	}

	return s.repo.Create(ctx, log)
}

func (s *Service) List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, filter)
}
