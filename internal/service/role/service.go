package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/internal/service/audit"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
)

// GrantInvalidator drops a user's cached grant snapshot after a role or
// assignment mutation.
type GrantInvalidator interface {
	InvalidateUser(userID uuid.UUID)
}

// Service manages custom roles and their assignments. Custom roles are
// scoped to a showroom unless created global by an admin or director,
// and are soft-disabled rather than deleted.
type Service struct {
	roleRepo    repository.RoleRepository
	outboxRepo  repository.OutboxRepository
	audit       *audit.Service
	invalidator GrantInvalidator
	logger      *zerolog.Logger
}

func NewService(roleRepo repository.RoleRepository, outboxRepo repository.OutboxRepository, auditSvc *audit.Service, invalidator GrantInvalidator, logger *zerolog.Logger) *Service {
	return &Service{
		roleRepo:    roleRepo,
		outboxRepo:  outboxRepo,
		audit:       auditSvc,
		invalidator: invalidator,
		logger:      logger,
	}
}

// CreateRoleInput is the validated payload for custom role creation.
type CreateRoleInput struct {
	Name         string                   `json:"name" binding:"required,min=2,max=100"`
	Description  string                   `json:"description"`
	BaseRole     *string                  `json:"base_role,omitempty"`
	Capabilities permission.CapabilitySet `json:"capabilities"`
	ShowroomID   *uuid.UUID               `json:"showroom_id,omitempty"`
}

// UpdateRoleInput carries the mutable custom role fields. Nil pointers
// leave the stored value untouched.
type UpdateRoleInput struct {
	Name         *string                   `json:"name,omitempty"`
	Description  *string                   `json:"description,omitempty"`
	Capabilities *permission.CapabilitySet `json:"capabilities,omitempty"`
	Active       *bool                     `json:"active,omitempty"`
}

// AssignInput links a user to a custom role.
type AssignInput struct {
	UserID       uuid.UUID  `json:"user_id" binding:"required"`
	CustomRoleID uuid.UUID  `json:"custom_role_id" binding:"required"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// Create persists a new custom role. Names are unique per scope; a nil
// showroom makes the role global, which only admins and directors may do.
func (s *Service) Create(ctx context.Context, principal model.Principal, input *CreateRoleInput) (*model.CustomRole, error) {
	var baseRole *permission.Role
	if input.BaseRole != nil {
		parsed, ok := permission.ParseRole(*input.BaseRole)
		if !ok {
			return nil, apperrors.NewValidation(fmt.Sprintf("unknown base role %q", *input.BaseRole), nil)
		}
		baseRole = &parsed
	}

	if input.ShowroomID == nil && !isElevated(principal.Role) {
		return nil, apperrors.Forbidden("only admins and directors may create global roles", nil)
	}

	exists, err := s.roleRepo.NameExists(ctx, input.Name, input.ShowroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}
	if exists {
		return nil, apperrors.Conflict(fmt.Sprintf("role %q already exists in this scope", input.Name), nil)
	}

	role := &model.CustomRole{
		Name:         input.Name,
		Description:  input.Description,
		BaseRole:     baseRole,
		Capabilities: input.Capabilities,
		Active:       true,
		ShowroomID:   input.ShowroomID,
		CreatedBy:    principal.UserID,
	}
	if err := s.roleRepo.CreateCustomRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create custom role: %w", err)
	}

	s.emitEvent(ctx, model.EventRoleCreate, role)
	s.logAudit(ctx, principal, "role.create", "custom_role", role.ID, role)

	return role, nil
}

// Get returns one custom role by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.CustomRole, error) {
	role, err := s.roleRepo.GetCustomRole(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("custom role", err)
		}
		return nil, fmt.Errorf("failed to get custom role: %w", err)
	}
	return role, nil
}

// List returns roles visible in a showroom scope, including globals.
func (s *Service) List(ctx context.Context, showroomID *uuid.UUID) ([]*model.CustomRole, error) {
	roles, err := s.roleRepo.ListCustomRoles(ctx, showroomID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom roles: %w", err)
	}
	return roles, nil
}

// Update applies partial changes. Disabling (Active=false) is the only
// way to retire a role; assignments keep their history.
func (s *Service) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input *UpdateRoleInput) (*model.CustomRole, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && *input.Name != role.Name {
		exists, err := s.roleRepo.NameExists(ctx, *input.Name, role.ShowroomID)
		if err != nil {
			return nil, fmt.Errorf("failed to check role name: %w", err)
		}
		if exists {
			return nil, apperrors.Conflict(fmt.Sprintf("role %q already exists in this scope", *input.Name), nil)
		}
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}
	if input.Capabilities != nil {
		role.Capabilities = *input.Capabilities
	}
	if input.Active != nil {
		role.Active = *input.Active
	}

	if err := s.roleRepo.UpdateCustomRole(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update custom role: %w", err)
	}

	s.emitEvent(ctx, model.EventRoleUpdate, role)
	s.logAudit(ctx, principal, "role.update", "custom_role", role.ID, input)

	return role, nil
}

// EffectiveCapabilities resolves a custom role's capabilities merged
// over its base role.
func (s *Service) EffectiveCapabilities(ctx context.Context, id uuid.UUID) (permission.CapabilitySet, error) {
	role, err := s.Get(ctx, id)
	if err != nil {
		return permission.CapabilitySet{}, err
	}
	return permission.ResolveEffective(role.Capabilities, role.BaseRole), nil
}

// Assign attaches a custom role to a user. The target role must exist
// and be active.
func (s *Service) Assign(ctx context.Context, principal model.Principal, input *AssignInput) (*model.RoleAssignment, error) {
	role, err := s.Get(ctx, input.CustomRoleID)
	if err != nil {
		return nil, err
	}
	if !role.Active {
		return nil, apperrors.NewValidation("cannot assign a disabled role", nil)
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(time.Now()) {
		return nil, apperrors.NewValidation("expires_at must be in the future", nil)
	}

	assignment := &model.RoleAssignment{
		UserID:       input.UserID,
		CustomRoleID: input.CustomRoleID,
		Active:       true,
		ExpiresAt:    input.ExpiresAt,
		Notes:        input.Notes,
		AssignedBy:   principal.UserID,
	}
	if err := s.roleRepo.CreateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateUser(input.UserID)
	}
	s.emitEvent(ctx, model.EventRoleAssign, assignment)
	s.logAudit(ctx, principal, "role.assign", "role_assignment", assignment.ID, assignment)

	return assignment, nil
}

// Revoke deactivates a user's assignment of a custom role.
func (s *Service) Revoke(ctx context.Context, principal model.Principal, userID, customRoleID uuid.UUID) error {
	if err := s.roleRepo.DeactivateAssignment(ctx, userID, customRoleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("role assignment", err)
		}
		return fmt.Errorf("failed to deactivate assignment: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateUser(userID)
	}
	s.emitEvent(ctx, model.EventRoleRevoke, map[string]uuid.UUID{
		"user_id":        userID,
		"custom_role_id": customRoleID,
	})
	s.logAudit(ctx, principal, "role.revoke", "role_assignment", customRoleID, nil)

	return nil
}

func isElevated(role permission.Role) bool {
	return role == permission.RoleAdmin || role == permission.RoleDirector
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

func (s *Service) logAudit(ctx context.Context, principal model.Principal, action, entityType string, entityID uuid.UUID, changes interface{}) {
	var opts *audit.LogOptions
	if changes != nil {
		opts = &audit.LogOptions{Changes: changes}
	}
	if err := s.audit.Log(ctx, principal.UserID, principal.ShowroomID, action, entityType, entityID, opts); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
