package permission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkReq(role Role, resource string, action Action) CheckRequest {
	return CheckRequest{
		Role:        role,
		PrincipalID: uuid.New(),
		Resource:    resource,
		Action:      action,
		Now:         time.Now(),
	}
}

func TestCheckUnknownRoleDenies(t *testing.T) {
	decision := Check(checkReq(Role("warehouse_goblin"), ResourceClients, ActionRead))
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonMissingRole, decision.Reason)
}

func TestCheckUnknownResourceDenies(t *testing.T) {
	decision := Check(checkReq(RoleAdmin, "spaceships", ActionRead))
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnknownCapability, decision.Reason)
}

func TestCheckUnknownActionDenies(t *testing.T) {
	decision := Check(checkReq(RoleAdmin, ResourceClients, Action("transmogrify")))
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonUnknownCapability, decision.Reason)
}

func TestCheckSalespersonCreatesClientInOwnShowroom(t *testing.T) {
	showroomID := uuid.New()

	req := checkReq(RoleSalesperson, ResourceClients, ActionCreate)
	req.PrincipalShowroomID = &showroomID
	req.Context = &ResourceContext{ShowroomID: &showroomID}

	decision := Check(req)
	assert.True(t, decision.Allowed)
	assert.Equal(t, ReasonGranted, decision.Reason)
	assert.Equal(t, "role:salesperson", decision.Source)
}

func TestCheckShowroomConditionFails(t *testing.T) {
	mine := uuid.New()
	other := uuid.New()

	req := checkReq(RoleSalesperson, ResourceClients, ActionCreate)
	req.PrincipalShowroomID = &mine
	req.Context = &ResourceContext{ShowroomID: &other}

	decision := Check(req)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonConditionFailed, decision.Reason)
}

func TestCheckOwnOnlyDeniesOthersProject(t *testing.T) {
	otherOwner := uuid.New()

	req := checkReq(RoleCustomer, ResourceProjects, ActionRead)
	req.Context = &ResourceContext{OwnerID: &otherOwner}

	decision := Check(req)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonConditionFailed, decision.Reason)
}

func TestCheckOwnOnlyAllowsOwnProject(t *testing.T) {
	req := checkReq(RoleCustomer, ResourceProjects, ActionRead)
	req.Context = &ResourceContext{OwnerID: &req.PrincipalID}

	decision := Check(req)
	assert.True(t, decision.Allowed)
}

func TestCheckSurfacesWinningGrantConditions(t *testing.T) {
	req := checkReq(RoleInstaller, ResourceProjects, ActionUpdate)
	req.Context = &ResourceContext{AssignedUserID: &req.PrincipalID}

	decision := Check(req)
	require.True(t, decision.Allowed)
	require.NotNil(t, decision.Conditions)
	assert.True(t, decision.Conditions.AssignedOnly)

	unconditional := Check(checkReq(RoleDirector, ResourceProjects, ActionUpdate))
	require.True(t, unconditional.Allowed)
	assert.Nil(t, unconditional.Conditions)
}

func TestCheckManageImpliesAllActions(t *testing.T) {
	for _, action := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage} {
		decision := Check(checkReq(RoleDirector, ResourceSettings, action))
		assert.True(t, decision.Allowed, "action %s", action)
	}
}

func TestCheckCustomGrantExtendsBaseRole(t *testing.T) {
	// Installers cannot delete documents by default; a custom grant adds it.
	req := checkReq(RoleInstaller, ResourceDocuments, ActionDelete)
	req.CustomGrants = []CustomGrant{{
		Name:   "site-lead",
		Active: true,
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceDocuments: {Grant: Grant{Delete: true}},
			},
		},
	}}

	decision := Check(req)
	require.True(t, decision.Allowed)
	assert.Equal(t, "custom:site-lead", decision.Source)
}

func TestCheckMostPermissiveSourceWins(t *testing.T) {
	// Base role already allows; a restrictive custom grant must not
	// narrow the outcome.
	req := checkReq(RoleManager, ResourceDocuments, ActionDelete)
	req.CustomGrants = []CustomGrant{{
		Name:   "restricted",
		Active: true,
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceDocuments: {Grant: Grant{Read: true}},
			},
		},
	}}

	decision := Check(req)
	assert.True(t, decision.Allowed)
	assert.Equal(t, "role:manager", decision.Source)
}

func TestCheckInactiveGrantIgnored(t *testing.T) {
	req := checkReq(RoleInstaller, ResourceDocuments, ActionDelete)
	req.CustomGrants = []CustomGrant{{
		Name:   "disabled",
		Active: false,
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceDocuments: {Grant: Grant{Delete: true}},
			},
		},
	}}

	decision := Check(req)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoGrant, decision.Reason)
}

func TestCheckExpiredGrantIgnored(t *testing.T) {
	expired := time.Now().Add(-time.Hour)

	req := checkReq(RoleInstaller, ResourceDocuments, ActionDelete)
	req.CustomGrants = []CustomGrant{{
		Name:      "expired",
		Active:    true,
		ExpiresAt: &expired,
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceDocuments: {Grant: Grant{Delete: true}},
			},
		},
	}}

	decision := Check(req)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNoGrant, decision.Reason)
}

func TestCheckShowroomScopedGrantNeedsMatchingShowroom(t *testing.T) {
	grantShowroom := uuid.New()
	otherShowroom := uuid.New()

	grant := CustomGrant{
		Name:       "scoped",
		Active:     true,
		ShowroomID: &grantShowroom,
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceReports: {Grant: Grant{Create: true}},
			},
		},
	}

	req := checkReq(RoleInstaller, ResourceReports, ActionCreate)
	req.PrincipalShowroomID = &otherShowroom
	req.CustomGrants = []CustomGrant{grant}
	assert.False(t, Check(req).Allowed)

	req.PrincipalShowroomID = &grantShowroom
	assert.True(t, Check(req).Allowed)
}

func TestCheckCustomGrantFallsBackToBaseRole(t *testing.T) {
	// A custom grant with no explicit entry for the resource borrows its
	// base role's entry.
	base := RoleManager
	showroomID := uuid.New()

	req := checkReq(RoleCustomer, ResourceClients, ActionDelete)
	req.PrincipalShowroomID = &showroomID
	req.Context = &ResourceContext{ShowroomID: &showroomID}
	req.CustomGrants = []CustomGrant{{
		Name:     "acting-manager",
		Active:   true,
		BaseRole: &base,
	}}

	decision := Check(req)
	require.True(t, decision.Allowed)
	assert.Equal(t, "custom:acting-manager", decision.Source)
}

func TestCheckDenialPrefersConditionFailed(t *testing.T) {
	other := uuid.New()

	req := checkReq(RoleCustomer, ResourceProjects, ActionRead)
	req.Context = &ResourceContext{OwnerID: &other}
	req.CustomGrants = []CustomGrant{{
		Name:   "inert",
		Active: false,
	}}

	decision := Check(req)
	assert.Equal(t, ReasonConditionFailed, decision.Reason)
}

func TestLookupFailsClosed(t *testing.T) {
	_, err := Lookup(Role("intern"))
	require.ErrorIs(t, err, ErrMissingRole)
}

func TestRoleLevels(t *testing.T) {
	assert.Equal(t, 5, RoleLevel(RoleDirector))
	assert.Equal(t, 4, RoleLevel(RoleAdmin))
	assert.Equal(t, 0, RoleLevel(RoleCustomer))
	assert.Equal(t, 0, RoleLevel(Role("nobody")))
}

func TestDashboardRoutes(t *testing.T) {
	assert.Equal(t, "/dashboard/sales", DashboardRoute(RoleSalesperson))
	assert.Equal(t, "/portal", DashboardRoute(RoleCustomer))
	assert.Equal(t, "/portal", DashboardRoute(Role("nobody")))
}
