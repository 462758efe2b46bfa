package template

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/internal/service/audit"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
)

// Service exposes permission templates: compiled built-ins plus
// persisted custom ones, under a single wire shape.
type Service struct {
	templateRepo repository.TemplateRepository
	outboxRepo   repository.OutboxRepository
	audit        *audit.Service
	logger       *zerolog.Logger
}

func NewService(templateRepo repository.TemplateRepository, outboxRepo repository.OutboxRepository, auditSvc *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		templateRepo: templateRepo,
		outboxRepo:   outboxRepo,
		audit:        auditSvc,
		logger:       logger,
	}
}

// CreateInput is the payload for persisting a custom template.
type CreateInput struct {
	Key          string                   `json:"key" binding:"required,min=2,max=100"`
	Name         string                   `json:"name" binding:"required,min=2,max=100"`
	Description  string                   `json:"description"`
	Category     string                   `json:"category" binding:"required,oneof=sales operations finance general"`
	Capabilities permission.CapabilitySet `json:"capabilities"`
	ShowroomID   *uuid.UUID               `json:"showroom_id,omitempty"`
}

// List returns built-in and persisted templates visible in a showroom
// scope, optionally filtered by category.
func (s *Service) List(ctx context.Context, showroomID *uuid.UUID, category string) ([]permission.Template, error) {
	combined := permission.BuiltinTemplates()

	stored, err := s.templateRepo.List(ctx, showroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	for _, t := range stored {
		combined = append(combined, toWire(t))
	}

	return permission.FilterByCategory(combined, category), nil
}

// Get returns one persisted template.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.PermissionTemplate, error) {
	tmpl, err := s.templateRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("template", err)
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// Create persists a custom template. Names are unique per scope, and
// built-in keys are reserved.
func (s *Service) Create(ctx context.Context, principal model.Principal, input *CreateInput) (*model.PermissionTemplate, error) {
	for _, builtin := range permission.BuiltinTemplates() {
		if builtin.Key == input.Key {
			return nil, apperrors.Conflict(fmt.Sprintf("template key %q is reserved", input.Key), nil)
		}
	}

	exists, err := s.templateRepo.NameExists(ctx, input.Name, input.ShowroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to check template name: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict(fmt.Sprintf("template %q already exists in this scope", input.Name), nil)
	}

	tmpl := &model.PermissionTemplate{
		Key:          input.Key,
		Name:         input.Name,
		Description:  input.Description,
		Category:     input.Category,
		Capabilities: input.Capabilities,
		ShowroomID:   input.ShowroomID,
		CreatedBy:    principal.UserID,
	}
	if err := s.templateRepo.Create(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.emitEvent(ctx, model.EventTemplateCreate, tmpl)
	s.logAudit(ctx, principal, "template.create", tmpl.ID, tmpl)

	return tmpl, nil
}

// SetDefault marks a template as the scope default. The previous
// default is unset in the same transaction, so the scope never has two.
func (s *Service) SetDefault(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.PermissionTemplate, error) {
	tmpl, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.templateRepo.SetDefault(ctx, id, tmpl.ShowroomID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("template", err)
		}
		return nil, fmt.Errorf("failed to set default template: %w", err)
	}
	tmpl.IsDefault = true

	s.emitEvent(ctx, model.EventTemplateDefault, map[string]interface{}{
		"template_id": id,
		"showroom_id": tmpl.ShowroomID,
	})
	s.logAudit(ctx, principal, "template.set_default", id, nil)

	return tmpl, nil
}

func toWire(t *model.PermissionTemplate) permission.Template {
	return permission.Template{
		ID:           t.ID.String(),
		Key:          t.Key,
		Name:         t.Name,
		Description:  t.Description,
		Category:     t.Category,
		Capabilities: t.Capabilities,
		BuiltIn:      false,
		IsDefault:    t.IsDefault,
	}
}

func (s *Service) emitEvent(ctx context.Context, eventType string, payload interface{}) {
	event, err := model.NewOutboxEvent(eventType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to build outbox event")
		return
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to append outbox event")
	}
}

func (s *Service) logAudit(ctx context.Context, principal model.Principal, action string, entityID uuid.UUID, changes interface{}) {
	var opts *audit.LogOptions
	if changes != nil {
		opts = &audit.LogOptions{Changes: changes}
	}
	if err := s.audit.Log(ctx, principal.UserID, principal.ShowroomID, action, "permission_template", entityID, opts); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
