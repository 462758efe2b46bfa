package client

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

// Service manages client records.
type Service struct {
	clientRepo repository.ClientRepository
	outboxRepo repository.OutboxRepository
	audit      *audit.Service
	logger     *zerolog.Logger
}

func NewService(clientRepo repository.ClientRepository, outboxRepo repository.OutboxRepository, auditSvc *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		clientRepo: clientRepo,
		outboxRepo: outboxRepo,
		audit:      auditSvc,
		logger:     logger,
	}
}

type CreateInput struct {
	ShowroomID     uuid.UUID `json:"showroom_id" binding:"required"`
	FirstName      string    `json:"first_name" binding:"required,min=1,max=100"`
	LastName       string    `json:"last_name" binding:"required,min=1,max=100"`
	Email          string    `json:"email" binding:"omitempty,email"`
	Phone          string    `json:"phone"`
	AddressLine1   string    `json:"address_line1"`
	AddressLine2   string    `json:"address_line2"`
	City           string    `json:"city"`
	Postcode       string    `json:"postcode"`
	LeadSource     string    `json:"lead_source"`
	MarketingOptIn bool      `json:"marketing_opt_in"`
	Notes          string    `json:"notes"`
}

type UpdateInput struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Email          *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone          *string `json:"phone,omitempty"`
	AddressLine1   *string `json:"address_line1,omitempty"`
	AddressLine2   *string `json:"address_line2,omitempty"`
	City           *string `json:"city,omitempty"`
	Postcode       *string `json:"postcode,omitempty"`
	LeadSource     *string `json:"lead_source,omitempty"`
	MarketingOptIn *bool   `json:"marketing_opt_in,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

func (s *Service) Create(ctx context.Context, principal model.Principal, input *CreateInput) (*model.Client, error) {
	ownerID := principal.UserID
	client := &model.Client{
		ShowroomID:     input.ShowroomID,
		OwnerID:        &ownerID,
		FirstName:      input.FirstName,
		LastName:       input.LastName,
		Email:          input.Email,
		Phone:          input.Phone,
		AddressLine1:   input.AddressLine1,
		AddressLine2:   input.AddressLine2,
		City:           input.City,
		Postcode:       input.Postcode,
		LeadSource:     input.LeadSource,
		MarketingOptIn: input.MarketingOptIn,
		Notes:          input.Notes,
	}
	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	if event, err := model.NewOutboxEvent(model.EventClientCreate, client); err == nil {
		if err := s.outboxRepo.Create(ctx, event); err != nil {
			s.logger.Error().Err(err).Msg("failed to append outbox event")
		}
	}
	s.logAudit(ctx, principal, "client.create", client.ID, client)

	return client, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	client, err := s.clientRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("client", err)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, filter *model.ClientFilter) ([]*model.Client, error) {
	clients, err := s.clientRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *Service) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input *UpdateInput) (*model.Client, error) {
	client, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		client.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		client.LastName = *input.LastName
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Phone != nil {
		client.Phone = *input.Phone
	}
	if input.AddressLine1 != nil {
		client.AddressLine1 = *input.AddressLine1
	}
	if input.AddressLine2 != nil {
		client.AddressLine2 = *input.AddressLine2
	}
	if input.City != nil {
		client.City = *input.City
	}
	if input.Postcode != nil {
		client.Postcode = *input.Postcode
	}
	if input.LeadSource != nil {
		client.LeadSource = *input.LeadSource
	}
	if input.MarketingOptIn != nil {
		client.MarketingOptIn = *input.MarketingOptIn
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("client", err)
		}
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	s.logAudit(ctx, principal, "client.update", client.ID, input)
	return client, nil
}

// Delete soft-deletes a client record.
func (s *Service) Delete(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if err := s.clientRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("client", err)
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	s.logAudit(ctx, principal, "client.delete", id, nil)
	return nil
}

func (s *Service) logAudit(ctx context.Context, principal model.Principal, action string, entityID uuid.UUID, changes interface{}) {
	var opts *audit.LogOptions
	if changes != nil {
		opts = &audit.LogOptions{Changes: changes}
	}
	if err := s.audit.Log(ctx, principal.UserID, principal.ShowroomID, action, "client", entityID, opts); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
