package project

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahq/crm-api/internal/middleware"
	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/pipeline"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/internal/service/audit"
	permissionsvc "github.com/renovahq/crm-api/internal/service/permission"
	projectsvc "github.com/renovahq/crm-api/internal/service/project"
)

type stubProjectRepo struct {
	projects   map[uuid.UUID]*model.Project
	lastFilter *model.ProjectFilter
}

func (s *stubProjectRepo) Create(ctx context.Context, p *model.Project) error {
	p.ID = uuid.New()
	p.Stage = pipeline.Initial()
	p.Status = pipeline.StatusActive
	p.Version = 1
	s.projects[p.ID] = p
	return nil
}

func (s *stubProjectRepo) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubProjectRepo) Update(ctx context.Context, p *model.Project) error {
	s.projects[p.ID] = p
	return nil
}

func (s *stubProjectRepo) List(ctx context.Context, filter *model.ProjectFilter) ([]*model.Project, error) {
	s.lastFilter = filter
	out := make([]*model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProjectRepo) UpdateStage(ctx context.Context, p *model.Project, expectedVersion int64) error {
	stored, ok := s.projects[p.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	p.Version = expectedVersion + 1
	cp := *p
	s.projects[p.ID] = &cp
	return nil
}

type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

func (s *stubClientRepo) Create(ctx context.Context, c *model.Client) error {
	c.ID = uuid.New()
	s.clients[c.ID] = c
	return nil
}

func (s *stubClientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (s *stubClientRepo) Update(ctx context.Context, c *model.Client) error { return nil }
func (s *stubClientRepo) Delete(ctx context.Context, id uuid.UUID) error    { return nil }
func (s *stubClientRepo) List(ctx context.Context, filter *model.ClientFilter) ([]*model.Client, error) {
	return nil, nil
}

type stubOutboxRepo struct{}

func (s *stubOutboxRepo) Create(ctx context.Context, e *model.OutboxEvent) error { return nil }
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

type stubRoleRepo struct{}

func (s *stubRoleRepo) CreateCustomRole(ctx context.Context, role *model.CustomRole) error {
	return nil
}
func (s *stubRoleRepo) GetCustomRole(ctx context.Context, id uuid.UUID) (*model.CustomRole, error) {
	return nil, repository.ErrNotFound
}
func (s *stubRoleRepo) UpdateCustomRole(ctx context.Context, role *model.CustomRole) error {
	return nil
}
func (s *stubRoleRepo) ListCustomRoles(ctx context.Context, showroomID *uuid.UUID, includeGlobal bool) ([]*model.CustomRole, error) {
	return nil, nil
}
func (s *stubRoleRepo) NameExists(ctx context.Context, name string, showroomID *uuid.UUID) (bool, error) {
	return false, nil
}
func (s *stubRoleRepo) CreateAssignment(ctx context.Context, a *model.RoleAssignment) error {
	return nil
}
func (s *stubRoleRepo) DeactivateAssignment(ctx context.Context, userID, customRoleID uuid.UUID) error {
	return nil
}
func (s *stubRoleRepo) ListActiveAssignments(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.AssignmentWithRole, error) {
	return nil, nil
}

type stubSender struct{}

func (s *stubSender) Send(to, subject, body string) error { return nil }

type fixture struct {
	engine    *gin.Engine
	clients   *stubClientRepo
	projects  *stubProjectRepo
	principal model.Principal
}

// newFixture wires the handler behind the real permission gate with a
// fresh principal of the given role injected ahead of the routes.
func newFixture(role permission.Role) *fixture {
	return newFixtureAs(model.Principal{UserID: uuid.New(), Role: role})
}

func newFixtureAs(principal model.Principal) *fixture {
	gin.SetMode(gin.TestMode)

	projects := &stubProjectRepo{projects: make(map[uuid.UUID]*model.Project)}
	clients := &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
	nop := zerolog.Nop()

	svc := projectsvc.NewService(
		projects,
		clients,
		&stubOutboxRepo{},
		audit.NewService(&stubAuditRepo{}),
		&stubSender{},
		nil,
		&nop,
	)
	permSvc := permissionsvc.NewService(&stubRoleRepo{}, nil, &nop)
	authMw := middleware.NewAuthMiddleware(nil, permSvc)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(middleware.ContextPrincipal, principal)
	})
	NewHandler(svc, authMw).RegisterRoutes(engine.Group("/api/v1"))

	return &fixture{engine: engine, clients: clients, projects: projects, principal: principal}
}

// seedProject plants a project with explicit ownership directly in the
// store, bypassing the create route.
func (f *fixture) seedProject(owner, assignee *uuid.UUID) *model.Project {
	p := &model.Project{
		ShowroomID:     uuid.New(),
		ClientID:       uuid.New(),
		OwnerID:        owner,
		AssignedUserID: assignee,
		Title:          "En-suite refit",
		Stage:          pipeline.Initial(),
		Status:         pipeline.StatusActive,
		Version:        1,
	}
	p.ID = uuid.New()
	f.projects.projects[p.ID] = p
	return p
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func (f *fixture) createProject(t *testing.T) *model.Project {
	t.Helper()

	client := &model.Client{FirstName: "Pat"}
	require.NoError(t, f.clients.Create(context.Background(), client))

	w := f.do(t, http.MethodPost, "/api/v1/projects", gin.H{
		"showroom_id": uuid.New(),
		"client_id":   client.ID,
		"title":       "Family bathroom refit",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status string        `json:"status"`
		Data   model.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	return &resp.Data
}

func TestCreateAndTransition(t *testing.T) {
	f := newFixture(permission.RoleDirector)
	p := f.createProject(t)
	assert.Equal(t, pipeline.StageEnquiry, p.Stage)

	w := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%s/stage", p.ID), gin.H{
		"stage":   string(pipeline.StageEngagedEnquiry),
		"version": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data model.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pipeline.StageEngagedEnquiry, resp.Data.Stage)
	assert.Equal(t, int64(2), resp.Data.Version)
}

func TestTransitionStaleVersionReturns409(t *testing.T) {
	f := newFixture(permission.RoleDirector)
	p := f.createProject(t)

	w := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%s/stage", p.ID), gin.H{
		"stage":   string(pipeline.StageEngagedEnquiry),
		"version": 9,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestTransitionSkipReturns422(t *testing.T) {
	f := newFixture(permission.RoleDirector)
	p := f.createProject(t)

	w := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%s/stage", p.ID), gin.H{
		"stage":   string(pipeline.StageConsultationBooked),
		"version": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPermissionGateDeniesCustomer(t *testing.T) {
	f := newFixture(permission.RoleCustomer)

	w := f.do(t, http.MethodPost, "/api/v1/projects", gin.H{
		"showroom_id": uuid.New(),
		"client_id":   uuid.New(),
		"title":       "Should not exist",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCustomerCannotReadForeignProject(t *testing.T) {
	f := newFixtureAs(model.Principal{UserID: uuid.New(), Role: permission.RoleCustomer})
	owner := uuid.New()
	p := f.seedProject(&owner, nil)

	w := f.do(t, http.MethodGet, "/api/v1/projects/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInstallerCannotTransitionUnassignedProject(t *testing.T) {
	f := newFixtureAs(model.Principal{UserID: uuid.New(), Role: permission.RoleInstaller})
	other := uuid.New()
	p := f.seedProject(&other, &other)

	w := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%s/stage", p.ID), gin.H{
		"stage":   string(pipeline.StageEngagedEnquiry),
		"version": 1,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInstallerTransitionsAssignedProject(t *testing.T) {
	self := uuid.New()
	f := newFixtureAs(model.Principal{UserID: self, Role: permission.RoleInstaller})
	owner := uuid.New()
	p := f.seedProject(&owner, &self)

	w := f.do(t, http.MethodPatch, fmt.Sprintf("/api/v1/projects/%s/stage", p.ID), gin.H{
		"stage":   string(pipeline.StageEngagedEnquiry),
		"version": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data model.Project `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, pipeline.StageEngagedEnquiry, resp.Data.Stage)
}

func TestInstallerListPinnedToOwnAssignments(t *testing.T) {
	self := uuid.New()
	f := newFixtureAs(model.Principal{UserID: self, Role: permission.RoleInstaller})

	w := f.do(t, http.MethodGet, "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.projects.lastFilter)
	require.NotNil(t, f.projects.lastFilter.AssignedUserID)
	assert.Equal(t, self, *f.projects.lastFilter.AssignedUserID)
}

func TestStagesListsPipelineInOrder(t *testing.T) {
	f := newFixture(permission.RoleDirector)

	w := f.do(t, http.MethodGet, "/api/v1/projects/stages", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []pipeline.Stage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 14)
	assert.Equal(t, pipeline.StageEnquiry, resp.Data[0])
	assert.Equal(t, pipeline.StageLost, resp.Data[len(resp.Data)-1])
}

func TestGetUnknownProjectReturns404(t *testing.T) {
	f := newFixture(permission.RoleDirector)

	w := f.do(t, http.MethodGet, "/api/v1/projects/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
