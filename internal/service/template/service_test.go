package template

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

type stubTemplateRepo struct {
	templates map[uuid.UUID]*model.PermissionTemplate
}

func newStubTemplateRepo() *stubTemplateRepo {
	return &stubTemplateRepo{templates: make(map[uuid.UUID]*model.PermissionTemplate)}
}

func (s *stubTemplateRepo) Create(ctx context.Context, t *model.PermissionTemplate) error {
	t.ID = uuid.New()
	s.templates[t.ID] = t
	return nil
}

func (s *stubTemplateRepo) Get(ctx context.Context, id uuid.UUID) (*model.PermissionTemplate, error) {
	t, ok := s.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (s *stubTemplateRepo) List(ctx context.Context, showroomID *uuid.UUID) ([]*model.PermissionTemplate, error) {
	out := make([]*model.PermissionTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t)
	}
	return out, nil
}

func (s *stubTemplateRepo) NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error) {
	for _, t := range s.templates {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubTemplateRepo) SetDefault(ctx context.Context, id uuid.UUID, showroomID *uuid.UUID) error {
	target, ok := s.templates[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, t := range s.templates {
		t.IsDefault = false
	}
	target.IsDefault = true
	return nil
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

func newFixture() (*Service, *stubTemplateRepo, *stubOutboxRepo) {
	repo := newStubTemplateRepo()
	outbox := &stubOutboxRepo{}
	nop := zerolog.Nop()
	svc := NewService(repo, outbox, audit.NewService(&stubAuditRepo{}), &nop)
	return svc, repo, outbox
}

func adminPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: permission.RoleAdmin}
}

func TestListCombinesBuiltinAndStored(t *testing.T) {
	svc, repo, _ := newFixture()

	require.NoError(t, repo.Create(context.Background(), &model.PermissionTemplate{
		Key:      "custom-fit",
		Name:     "Custom Fitter",
		Category: permission.CategoryOperations,
	}))

	list, err := svc.List(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Len(t, list, 5)

	builtins := 0
	for _, tmpl := range list {
		if tmpl.BuiltIn {
			builtins++
		}
	}
	assert.Equal(t, 4, builtins)
}

func TestListFiltersByCategory(t *testing.T) {
	svc, repo, _ := newFixture()

	require.NoError(t, repo.Create(context.Background(), &model.PermissionTemplate{
		Key:      "ops-extra",
		Name:     "Ops Extra",
		Category: permission.CategoryOperations,
	}))

	list, err := svc.List(context.Background(), nil, permission.CategoryOperations)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, tmpl := range list {
		assert.Equal(t, permission.CategoryOperations, tmpl.Category)
	}
}

func TestCreateReservedKeyConflicts(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.Create(context.Background(), adminPrincipal(), &CreateInput{
		Key:      "sales-standard",
		Name:     "Shadow Sales",
		Category: permission.CategorySales,
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreateDuplicateNameConflicts(t *testing.T) {
	svc, _, _ := newFixture()
	p := adminPrincipal()

	_, err := svc.Create(context.Background(), p, &CreateInput{
		Key: "first", Name: "Shared Name", Category: permission.CategoryGeneral,
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), p, &CreateInput{
		Key: "second", Name: "Shared Name", Category: permission.CategoryGeneral,
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestSetDefaultFlipsSingleDefault(t *testing.T) {
	svc, repo, outbox := newFixture()
	p := adminPrincipal()

	first, err := svc.Create(context.Background(), p, &CreateInput{
		Key: "a", Name: "Template A", Category: permission.CategoryGeneral,
	})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), p, &CreateInput{
		Key: "b", Name: "Template B", Category: permission.CategoryGeneral,
	})
	require.NoError(t, err)

	_, err = svc.SetDefault(context.Background(), p, first.ID)
	require.NoError(t, err)
	updated, err := svc.SetDefault(context.Background(), p, second.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	assert.False(t, repo.templates[first.ID].IsDefault)
	assert.True(t, repo.templates[second.ID].IsDefault)

	// Two creates plus two default flips hit the outbox.
	assert.Len(t, outbox.events, 4)
}

func TestSetDefaultUnknownTemplate(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.SetDefault(context.Background(), adminPrincipal(), uuid.New())
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
