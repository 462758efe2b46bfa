package permission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahq/crm-api/internal/model"
	corepermission "github.com/renovahq/crm-api/internal/permission"
)

type stubRoleRepo struct {
	assignments map[uuid.UUID][]*model.AssignmentWithRole
	listCalls   int
}

func (s *stubRoleRepo) CreateCustomRole(ctx context.Context, role *model.CustomRole) error { return nil }
func (s *stubRoleRepo) GetCustomRole(ctx context.Context, id uuid.UUID) (*model.CustomRole, error) {
	return nil, nil
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
	s.listCalls++
	return s.assignments[userID], nil
}

func newService(repo *stubRoleRepo) *Service {
	nop := zerolog.Nop()
	return NewService(repo, nil, &nop)
}

func installerPrincipal() model.Principal {
	return model.Principal{UserID: uuid.New(), Role: corepermission.RoleInstaller}
}

func siteLeadAssignment() *model.AssignmentWithRole {
	return &model.AssignmentWithRole{
		RoleAssignment: model.RoleAssignment{Active: true},
		Role: model.CustomRole{
			Name:   "site-lead",
			Active: true,
			Capabilities: corepermission.CapabilitySet{
				Resources: map[string]corepermission.ResourceGrant{
					corepermission.ResourceDocuments: {Grant: corepermission.Grant{Delete: true}},
				},
			},
		},
	}
}

func TestCheckUsesCustomGrants(t *testing.T) {
	p := installerPrincipal()
	repo := &stubRoleRepo{assignments: map[uuid.UUID][]*model.AssignmentWithRole{
		p.UserID: {siteLeadAssignment()},
	}}
	svc := newService(repo)

	decision, err := svc.Check(context.Background(), p, corepermission.ResourceDocuments, "delete", nil)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "custom:site-lead", decision.Source)
}

func TestCheckDeniesWithoutGrant(t *testing.T) {
	p := installerPrincipal()
	repo := &stubRoleRepo{assignments: map[uuid.UUID][]*model.AssignmentWithRole{}}
	svc := newService(repo)

	decision, err := svc.Check(context.Background(), p, corepermission.ResourceSettings, "update", nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, corepermission.ReasonNoGrant, decision.Reason)
}

func TestCheckCachesAssignmentSnapshot(t *testing.T) {
	p := installerPrincipal()
	repo := &stubRoleRepo{assignments: map[uuid.UUID][]*model.AssignmentWithRole{}}
	svc := newService(repo)

	_, err := svc.Check(context.Background(), p, corepermission.ResourceMessages, "read", nil)
	require.NoError(t, err)
	_, err = svc.Check(context.Background(), p, corepermission.ResourceMessages, "create", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.listCalls)
}

func TestInvalidateUserDropsSnapshot(t *testing.T) {
	p := installerPrincipal()
	repo := &stubRoleRepo{assignments: map[uuid.UUID][]*model.AssignmentWithRole{}}
	svc := newService(repo)

	_, err := svc.Check(context.Background(), p, corepermission.ResourceMessages, "read", nil)
	require.NoError(t, err)

	svc.InvalidateUser(p.UserID)

	_, err = svc.Check(context.Background(), p, corepermission.ResourceMessages, "read", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestCheckInactiveAssignmentIsInert(t *testing.T) {
	p := installerPrincipal()
	assignment := siteLeadAssignment()
	assignment.RoleAssignment.Active = false
	repo := &stubRoleRepo{assignments: map[uuid.UUID][]*model.AssignmentWithRole{
		p.UserID: {assignment},
	}}
	svc := newService(repo)

	decision, err := svc.Check(context.Background(), p, corepermission.ResourceDocuments, "delete", nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestCheckDisabledRoleIsInert(t *testing.T) {
	p := installerPrincipal()
	assignment := siteLeadAssignment()
	assignment.Role.Active = false
	repo := &stubRoleRepo{assignments: map[uuid.UUID][]*model.AssignmentWithRole{
		p.UserID: {assignment},
	}}
	svc := newService(repo)

	decision, err := svc.Check(context.Background(), p, corepermission.ResourceDocuments, "delete", nil)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}
