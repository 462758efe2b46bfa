package role

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/internal/service/audit"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
)

type stubRoleRepo struct {
	roles       map[uuid.UUID]*model.CustomRole
	assignments []*model.RoleAssignment
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{roles: make(map[uuid.UUID]*model.CustomRole)}
}

func (s *stubRoleRepo) CreateCustomRole(ctx context.Context, role *model.CustomRole) error {
	role.ID = uuid.New()
	s.roles[role.ID] = role
	return nil
}

func (s *stubRoleRepo) GetCustomRole(ctx context.Context, id uuid.UUID) (*model.CustomRole, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return role, nil
}

func (s *stubRoleRepo) UpdateCustomRole(ctx context.Context, role *model.CustomRole) error {
	if _, ok := s.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	s.roles[role.ID] = role
	return nil
}

func (s *stubRoleRepo) ListCustomRoles(ctx context.Context, showroomID *uuid.UUID, includeGlobal bool) ([]*model.CustomRole, error) {
	out := make([]*model.CustomRole, 0, len(s.roles))
	for _, r := range s.roles {
		out = append(out, r)
	}
	return out, nil
}

func (s *stubRoleRepo) NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error) {
	for _, r := range s.roles {
		if r.Name != name {
			continue
		}
		if r.ShowroomID == nil && showroomID == nil {
			return true, nil
		}
		if r.ShowroomID != nil && showroomID != nil && *r.ShowroomID == *showroomID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRoleRepo) CreateAssignment(ctx context.Context, a *model.RoleAssignment) error {
	a.ID = uuid.New()
	s.assignments = append(s.assignments, a)
	return nil
}

func (s *stubRoleRepo) DeactivateAssignment(ctx context.Context, userID, customRoleID uuid.UUID) error {
	for _, a := range s.assignments {
		if a.UserID == userID && a.CustomRoleID == customRoleID && a.Active {
			a.Active = false
			return nil
		}
	}
	return repository.ErrNotFound
}

func (s *stubRoleRepo) ListActiveAssignments(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.AssignmentWithRole, error) {
	return nil, nil
}

type stubOutboxRepo struct {
	events []*model.OutboxEvent
}

func (s *stubOutboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *stubOutboxRepo) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	return nil, nil
}

func (s *stubOutboxRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMessage *string) error {
	return nil
}

func (s *stubOutboxRepo) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type stubAuditRepo struct{}

func (s *stubAuditRepo) Create(ctx context.Context, l *model.AuditLog) error { return nil }
func (s *stubAuditRepo) List(ctx context.Context, filter *model.AuditFilter) ([]*model.AuditLog, error) {
	return nil, nil
}

type recordingInvalidator struct {
	users []uuid.UUID
}

func (r *recordingInvalidator) InvalidateUser(userID uuid.UUID) {
	r.users = append(r.users, userID)
}

type fixture struct {
	svc         *Service
	roles       *stubRoleRepo
	outbox      *stubOutboxRepo
	invalidator *recordingInvalidator
}

func newFixture() *fixture {
	roles := newStubRoleRepo()
	outbox := &stubOutboxRepo{}
	invalidator := &recordingInvalidator{}
	nop := zerolog.Nop()

	svc := NewService(roles, outbox, audit.NewService(&stubAuditRepo{}), invalidator, &nop)
	return &fixture{svc: svc, roles: roles, outbox: outbox, invalidator: invalidator}
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: permission.RoleAdmin}
}

func managerPrincipal(showroomID uuid.UUID) model.Principal {
	return model.Principal{UserID: uuid.New(), Role: permission.RoleManager, ShowroomID: &showroomID}
}

func TestCreateCustomRole(t *testing.T) {
	f := newFixture()
	showroomID := uuid.New()

	created, err := f.svc.Create(context.Background(), managerPrincipal(showroomID), &CreateRoleInput{
		Name:       "Weekend Supervisor",
		ShowroomID: &showroomID,
	})
	require.NoError(t, err)
	assert.True(t, created.Active)
	require.Len(t, f.outbox.events, 1)
	assert.Equal(t, model.EventRoleCreate, f.outbox.events[0].EventType)
}

func TestCreateDuplicateNameInScopeConflicts(t *testing.T) {
	f := newFixture()
	showroomID := uuid.New()
	p := managerPrincipal(showroomID)

	_, err := f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Supervisor", ShowroomID: &showroomID})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Supervisor", ShowroomID: &showroomID})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreateSameNameDifferentShowroomsAllowed(t *testing.T) {
	f := newFixture()
	first := uuid.New()
	second := uuid.New()

	_, err := f.svc.Create(context.Background(), managerPrincipal(first), &CreateRoleInput{Name: "Supervisor", ShowroomID: &first})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), managerPrincipal(second), &CreateRoleInput{Name: "Supervisor", ShowroomID: &second})
	assert.NoError(t, err)
}

func TestCreateGlobalRoleRequiresElevation(t *testing.T) {
	f := newFixture()
	showroomID := uuid.New()

	_, err := f.svc.Create(context.Background(), managerPrincipal(showroomID), &CreateRoleInput{Name: "Global Auditor"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	_, err = f.svc.Create(context.Background(), adminPrincipal(), &CreateRoleInput{Name: "Global Auditor"})
	assert.NoError(t, err)
}

func TestCreateRejectsUnknownBaseRole(t *testing.T) {
	f := newFixture()
	base := "wizard"

	_, err := f.svc.Create(context.Background(), adminPrincipal(), &CreateRoleInput{Name: "Wizardly", BaseRole: &base})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestUpdateSoftDisables(t *testing.T) {
	f := newFixture()
	p := adminPrincipal()

	created, err := f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Temp Role"})
	require.NoError(t, err)

	inactive := false
	updated, err := f.svc.Update(context.Background(), p, created.ID, &UpdateRoleInput{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	// The row survives; disable never deletes.
	_, err = f.svc.Get(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestAssignInvalidatesGrantCache(t *testing.T) {
	f := newFixture()
	p := adminPrincipal()
	userID := uuid.New()

	created, err := f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Site Lead"})
	require.NoError(t, err)

	assignment, err := f.svc.Assign(context.Background(), p, &AssignInput{UserID: userID, CustomRoleID: created.ID})
	require.NoError(t, err)
	assert.True(t, assignment.Active)
	assert.Equal(t, p.UserID, assignment.AssignedBy)
	require.Len(t, f.invalidator.users, 1)
	assert.Equal(t, userID, f.invalidator.users[0])
}

func TestAssignDisabledRoleRejected(t *testing.T) {
	f := newFixture()
	p := adminPrincipal()

	created, err := f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Retired"})
	require.NoError(t, err)

	inactive := false
	_, err = f.svc.Update(context.Background(), p, created.ID, &UpdateRoleInput{Active: &inactive})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), p, &AssignInput{UserID: uuid.New(), CustomRoleID: created.ID})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestAssignPastExpiryRejected(t *testing.T) {
	f := newFixture()
	p := adminPrincipal()

	created, err := f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Short Lived"})
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	_, err = f.svc.Assign(context.Background(), p, &AssignInput{UserID: uuid.New(), CustomRoleID: created.ID, ExpiresAt: &past})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
}

func TestRevoke(t *testing.T) {
	f := newFixture()
	p := adminPrincipal()
	userID := uuid.New()

	created, err := f.svc.Create(context.Background(), p, &CreateRoleInput{Name: "Revocable"})
	require.NoError(t, err)

	_, err = f.svc.Assign(context.Background(), p, &AssignInput{UserID: userID, CustomRoleID: created.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(context.Background(), p, userID, created.ID))
	assert.False(t, f.roles.assignments[0].Active)

	err = f.svc.Revoke(context.Background(), p, userID, created.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
