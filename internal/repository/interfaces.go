package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/model"
)

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
		UpdateLoginState(ctx context.Context, user *model.User) error
	}

	ShowroomRepository interface {
		Create(ctx context.Context, showroom *model.Showroom) error
		Get(ctx context.Context, id uuid.UUID) (*model.Showroom, error)
		Update(ctx context.Context, showroom *model.Showroom) error
		List(ctx context.Context) ([]*model.Showroom, error)
	}

	ClientRepository interface {
		Create(ctx context.Context, client *model.Client) error
		Get(ctx context.Context, id uuid.UUID) (*model.Client, error)
		Update(ctx context.Context, client *model.Client) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.ClientFilter) ([]*model.Client, error)
	}

	ProjectRepository interface {
		Create(ctx context.Context, project *model.Project) error
		Get(ctx context.Context, id uuid.UUID) (*model.Project, error)
		Update(ctx context.Context, project *model.Project) error
		List(ctx context.Context, filter *model.ProjectFilter) ([]*model.Project, error)
		// UpdateStage persists a stage change with a compare-and-swap on
		// the version column. ErrVersionConflict when the row moved.
		UpdateStage(ctx context.Context, project *model.Project, expectedVersion int64) error
	}

	RoleRepository interface {
		CreateCustomRole(ctx context.Context, role *model.CustomRole) error
		GetCustomRole(ctx context.Context, id uuid.UUID) (*model.CustomRole, error)
		UpdateCustomRole(ctx context.Context, role *model.CustomRole) error
		ListCustomRoles(ctx context.Context, showroomID *uuid.UUID, includeGlobal bool) ([]*model.CustomRole, error)
		// NameExists checks uniqueness within a showroom scope; a nil
		// showroomID means the global scope.
		NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error)

		CreateAssignment(ctx context.Context, assignment *model.RoleAssignment) error
		DeactivateAssignment(ctx context.Context, userID, customRoleID uuid.UUID) error
		ListActiveAssignments(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.AssignmentWithRole, error)
	}

	TemplateRepository interface {
		Create(ctx context.Context, template *model.PermissionTemplate) error
		Get(ctx context.Context, id uuid.UUID) (*model.PermissionTemplate, error)
		List(ctx context.Context, showroomID *uuid.UUID) ([]*model.PermissionTemplate, error)
		NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error)
		// SetDefault atomically unsets other defaults in the scope and
		// marks the given template default, in one transaction.
		SetDefault(ctx context.Context, id uuid.UUID, showroomID *uuid.UUID) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditLog, error)
	}
)
