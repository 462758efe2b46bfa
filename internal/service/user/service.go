package user

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
	"github.com/renovahq/crm-api/pkg/security"
)

// Service manages user accounts.
type Service struct {
	userRepo repository.UserRepository
	hasher   security.PasswordHasher
	audit    *audit.Service
	logger   *zerolog.Logger
}

func NewService(userRepo repository.UserRepository, hasher security.PasswordHasher, auditSvc *audit.Service, logger *zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		audit:    auditSvc,
		logger:   logger,
	}
}

type CreateInput struct {
	Email      string     `json:"email" binding:"required,email"`
	Password   string     `json:"password" binding:"required,min=8"`
	FirstName  string     `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string     `json:"last_name" binding:"required,min=1,max=100"`
	Phone      string     `json:"phone"`
	Role       string     `json:"role" binding:"required"`
	ShowroomID *uuid.UUID `json:"showroom_id,omitempty"`
}

type UpdateInput struct {
	FirstName  *string    `json:"first_name,omitempty"`
	LastName   *string    `json:"last_name,omitempty"`
	Phone      *string    `json:"phone,omitempty"`
	Role       *string    `json:"role,omitempty"`
	ShowroomID *uuid.UUID `json:"showroom_id,omitempty"`
	Status     *string    `json:"status,omitempty"`
}

// Create registers a user with a hashed password. The role must be one
// of the built-in roles.
func (s *Service) Create(ctx context.Context, principal model.Principal, input *CreateInput) (*model.User, error) {
	role, ok := permission.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown role %q", input.Role), nil)
	}

	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.Conflict("a user with this email already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperrors.NewValidation("password does not meet requirements", err)
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		Role:         role,
		ShowroomID:   input.ShowroomID,
		Status:       model.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logAudit(ctx, principal, "user.create", user.ID, map[string]string{"email": user.Email, "role": string(user.Role)})
	return user, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input *UpdateInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Role != nil {
		role, ok := permission.ParseRole(*input.Role)
		if !ok {
			return nil, apperrors.NewValidation(fmt.Sprintf("unknown role %q", *input.Role), nil)
		}
		user.Role = role
	}
	if input.Status != nil {
		switch model.UserStatus(*input.Status) {
		case model.UserStatusActive, model.UserStatusInactive:
			user.Status = model.UserStatus(*input.Status)
			user.FailedLogins = 0
		default:
			return nil, apperrors.NewValidation(fmt.Sprintf("unknown status %q", *input.Status), nil)
		}
	}
	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.ShowroomID != nil {
		user.ShowroomID = input.ShowroomID
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.logAudit(ctx, principal, "user.update", user.ID, input)
	return user, nil
}

func (s *Service) logAudit(ctx context.Context, principal model.Principal, action string, entityID uuid.UUID, changes interface{}) {
	var opts *audit.LogOptions
	if changes != nil {
		opts = &audit.LogOptions{Changes: changes}
	}
	if err := s.audit.Log(ctx, principal.UserID, principal.ShowroomID, action, "user", entityID, opts); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
