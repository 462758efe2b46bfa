package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovahq/crm-api/internal/email"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/pipeline"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/internal/service/audit"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
	"github.com/renovahq/crm-api/pkg/metrics"
)

// Service owns project lifecycle operations, most importantly the
// pipeline stage transitions with their compare-and-swap persistence.
type Service struct {
	projectRepo repository.ProjectRepository
	clientRepo  repository.ClientRepository
	outboxRepo  repository.OutboxRepository
	audit       *audit.Service
	sender      email.Sender
	metrics     *metrics.Metrics
	logger      *zerolog.Logger
}

func NewService(projectRepo repository.ProjectRepository, clientRepo repository.ClientRepository, outboxRepo repository.OutboxRepository, auditSvc *audit.Service, sender email.Sender, m *metrics.Metrics, logger *zerolog.Logger) *Service {
	return &Service{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		outboxRepo:  outboxRepo,
		audit:       auditSvc,
		sender:      sender,
		metrics:     m,
		logger:      logger,
	}
}

// CreateInput is the payload for opening a project. New projects always
// start at the first pipeline stage.
type CreateInput struct {
	ShowroomID     uuid.UUID  `json:"showroom_id" binding:"required"`
	ClientID       uuid.UUID  `json:"client_id" binding:"required"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
	Title          string     `json:"title" binding:"required,min=2,max=200"`
	Description    string     `json:"description"`
	QuotedValue    *int64     `json:"quoted_value,omitempty"`
}

// UpdateInput carries the mutable descriptive fields. Stage moves go
// through TransitionStage only.
type UpdateInput struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id,omitempty"`
	QuotedValue    *int64     `json:"quoted_value,omitempty"`
}

// TransitionInput is the payload for a stage change request. Version is
// the caller's last-seen project version.
type TransitionInput struct {
	Stage      string `json:"stage" binding:"required"`
	Version    int64  `json:"version" binding:"required,min=1"`
	LostReason string `json:"lost_reason,omitempty"`
}

// StageChange is the wire payload of a PROJECT_STAGE_CHANGE event.
type StageChange struct {
	ProjectID uuid.UUID      `json:"project_id"`
	From      pipeline.Stage `json:"from"`
	To        pipeline.Stage `json:"to"`
	Version   int64          `json:"version"`
	ChangedBy uuid.UUID      `json:"changed_by"`
	ChangedAt time.Time      `json:"changed_at"`
}

func (s *Service) Create(ctx context.Context, principal model.Principal, input *CreateInput) (*model.Project, error) {
	if _, err := s.clientRepo.Get(ctx, input.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewValidation("client does not exist", err)
		}
		return nil, fmt.Errorf("failed to check client: %w", err)
	}

	ownerID := principal.UserID
	project := &model.Project{
		ShowroomID:     input.ShowroomID,
		ClientID:       input.ClientID,
		OwnerID:        &ownerID,
		AssignedUserID: input.AssignedUserID,
		Title:          input.Title,
		Description:    input.Description,
		QuotedValue:    input.QuotedValue,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.emitEvent(ctx, model.EventProjectCreate, project)
	s.logAudit(ctx, principal, "project.create", project.ID, project)

	return project, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	project, err := s.projectRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("project", err)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func (s *Service) List(ctx context.Context, filter *model.ProjectFilter) ([]*model.Project, error) {
	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *Service) Update(ctx context.Context, principal model.Principal, id uuid.UUID, input *UpdateInput) (*model.Project, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		project.Title = *input.Title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.AssignedUserID != nil {
		project.AssignedUserID = input.AssignedUserID
	}
	if input.QuotedValue != nil {
		project.QuotedValue = input.QuotedValue
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.logAudit(ctx, principal, "project.update", project.ID, input)
	return project, nil
}

// TransitionStage moves a project one step along the pipeline. The
// version in the input must match the stored row; a mismatch means the
// project moved concurrently and the caller must re-read and retry.
func (s *Service) TransitionStage(ctx context.Context, principal model.Principal, id uuid.UUID, input *TransitionInput) (*model.Project, error) {
	requested, ok := pipeline.ParseStage(input.Stage)
	if !ok {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown stage %q", input.Stage), nil)
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result, rejected := pipeline.Transition(project.Stage, requested, now)
	if rejected != nil {
		s.countTransition(project.Stage, requested, "rejected")
		return nil, apperrors.NewIllegalTransition(rejected.Error(), rejected)
	}

	if result.NoOp {
		s.countTransition(project.Stage, requested, "noop")
		return project, nil
	}

	if project.Version != input.Version {
		s.countTransition(result.From, result.To, "conflict")
		return nil, apperrors.Conflict("project was modified concurrently, re-read and retry", nil)
	}

	project.Stage = result.To
	project.ApplySideEffects(result.SideEffects)
	if result.To == pipeline.StageLost {
		project.LostReason = input.LostReason
	}

	if err := s.projectRepo.UpdateStage(ctx, project, input.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.countTransition(result.From, result.To, "conflict")
			return nil, apperrors.Conflict("project was modified concurrently, re-read and retry", err)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("project", err)
		}
		return nil, fmt.Errorf("failed to persist stage change: %w", err)
	}
	s.countTransition(result.From, result.To, "accepted")

	s.emitEvent(ctx, model.EventProjectStageChange, StageChange{
		ProjectID: project.ID,
		From:      result.From,
		To:        result.To,
		Version:   project.Version,
		ChangedBy: principal.UserID,
		ChangedAt: now,
	})
	s.logAudit(ctx, principal, "project.stage_change", project.ID, map[string]string{
		"from": string(result.From),
		"to":   string(result.To),
	})

	if result.To.Terminal() {
		go s.notifyClient(project, result.To)
	}

	return project, nil
}

// notifyClient mails the client on terminal stages. Best effort; runs
// off the request path.
func (s *Service) notifyClient(project *model.Project, stage pipeline.Stage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := s.clientRepo.Get(ctx, project.ClientID)
	if err != nil || client.Email == "" {
		return
	}

	var subject, body string
	if stage == pipeline.StageCompleted {
		subject = "Your renovation project is complete"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your project <strong>%s</strong> has been completed. Thank you for choosing us.</p>", client.FirstName, project.Title)
	} else {
		subject = "Your renovation project has been closed"
		body = fmt.Sprintf("<p>Hi %s,</p><p>Your project <strong>%s</strong> has been closed. Get in touch if you would like to revisit it.</p>", client.FirstName, project.Title)
	}

	if err := s.sender.Send(client.Email, subject, body); err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID.String()).Msg("failed to send stage notification")
	}
}

func (s *Service) countTransition(from, to pipeline.Stage, outcome string) {
	if s.metrics != nil {
		s.metrics.StageTransitions.WithLabelValues(string(from), string(to), outcome).Inc()
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
	if err := s.audit.Log(ctx, principal.UserID, principal.ShowroomID, action, "project", entityID, opts); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to write audit log")
	}
}
