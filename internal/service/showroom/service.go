package showroom

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/internal/service/audit"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
)

// Service manages showrooms, the tenancy boundary for clients,
// projects and scoped custom roles.
type Service struct {
	showroomRepo repository.ShowroomRepository
	audit        *audit.Service
	logger       *zerolog.Logger
}

func NewService(showroomRepo repository.ShowroomRepository, auditSvc *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		showroomRepo: showroomRepo,
		audit:        auditSvc,
		logger:       logger,
	}
}

type CreateInput struct {
	Name     string `json:"name" binding:"required,min=2,max=200"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Postcode string `json:"postcode"`
	Phone    string `json:"phone"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type UpdateInput struct {
	Name     *string `json:"name,omitempty"`
	Address  *string `json:"address,omitempty"`
	City     *string `json:"city,omitempty"`
	Postcode *string `json:"postcode,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Active   *bool   `json:"active,omitempty"`
}

func (s *Service) Create(ctx context.Context, principal model.Principal, input *CreateInput) (*model.Showroom, error) {
	showroom := &model.Showroom{
		Name:     input.Name,
		Address:  input.Address,
		City:     input.City,
		Postcode: input.Postcode,
		Phone:    input.Phone,
		Email:    input.Email,
		Active:   true,
	}
	if err := s.showroomRepo.Create(ctx, showroom); err != nil {
		return nil, fmt.Errorf("failed to create showroom: %w", err)
	}

	s.logAudit(ctx, principal, "showroom.create", showroom.ID, showroom)
	return showroom, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Showroom, error) {
	showroom, err := s.showroomRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("showroom", err)
		}
		return nil, fmt.Errorf("failed to get showroom: %w", err)
	}
	return showroom, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Showroom, error) {
	showrooms, err := s.showroomRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list showrooms: %w", err)
	}
	return showrooms, nil
}

func (s *Service) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input *UpdateInput) (*model.Showroom, error) {
	showroom, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		showroom.Name = *input.Name
	}
	if input.Address != nil {
		showroom.Address = *input.Address
	}
	if input.City != nil {
		showroom.City = *input.City
	}
	if input.Postcode != nil {
		showroom.Postcode = *input.Postcode
	}
	if input.Phone != nil {
		showroom.Phone = *input.Phone
	}
	if input.Email != nil {
		showroom.Email = *input.Email
	}
	if input.Active != nil {
		showroom.Active = *input.Active
	}

	if err := s.showroomRepo.Update(ctx, showroom); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("showroom", err)
		}
		return nil, fmt.Errorf("failed to update showroom: %w", err)
	}

	s.logAudit(ctx, principal, "showroom.update", showroom.ID, input)
	return showroom, nil
}

func (s *Service) logAudit(ctx context.Context, principal model.Principal, action string, entityID uuid.UUID, changes interface{}) {
	var opts *audit.LogOptions
	if changes != nil {
		opts = &audit.LogOptions{Changes: changes}
	}
	if err := s.audit.Log(ctx, principal.UserID, principal.ShowroomID, action, "showroom", entityID, opts); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
