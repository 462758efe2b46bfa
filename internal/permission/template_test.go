package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinTemplatesSeededFromRoles(t *testing.T) {
	templates := BuiltinTemplates()
	require.Len(t, templates, 4)

	byKey := make(map[string]Template, len(templates))
	for _, tmpl := range templates {
		assert.True(t, tmpl.BuiltIn)
		assert.Empty(t, tmpl.ID)
		byKey[tmpl.Key] = tmpl
	}

	sales := byKey["sales-standard"]
	require.Contains(t, sales.Capabilities.Resources, ResourceClients)
	assert.True(t, sales.Capabilities.Resources[ResourceClients].Grant.Create)

	finance := byKey["finance-readonly"]
	require.Contains(t, finance.Capabilities.Resources, ResourceReports)
	assert.False(t, finance.Capabilities.Resources[ResourceClients].Grant.Create)
}

func TestBuiltinTemplatesAreIndependentCopies(t *testing.T) {
	first := BuiltinTemplates()
	first[0].Capabilities.Resources[ResourceClients] = ResourceGrant{Grant: Grant{Manage: true}}

	second := BuiltinTemplates()
	assert.False(t, second[0].Capabilities.Resources[ResourceClients].Grant.Manage)
}

func TestFilterByCategory(t *testing.T) {
	templates := BuiltinTemplates()

	sales := FilterByCategory(templates, CategorySales)
	require.Len(t, sales, 1)
	assert.Equal(t, "sales-standard", sales[0].Key)

	all := FilterByCategory(templates, "")
	assert.Len(t, all, len(templates))

	none := FilterByCategory(templates, "warehouse")
	assert.Empty(t, none)
}

func TestResolveEffectiveExplicitEntryWins(t *testing.T) {
	base := RoleSalesperson
	custom := CapabilitySet{
		Resources: map[string]ResourceGrant{
			ResourceClients: {Grant: Grant{Read: true}},
		},
	}

	effective := ResolveEffective(custom, &base)

	// Explicit entry replaces the base role's clients grant entirely.
	assert.False(t, effective.Resources[ResourceClients].Grant.Create)
	assert.True(t, effective.Resources[ResourceClients].Grant.Read)

	// Untouched resources fall through from the base role.
	assert.True(t, effective.Resources[ResourceProjects].Grant.Create)
}

func TestResolveEffectiveNilBase(t *testing.T) {
	custom := CapabilitySet{
		Resources: map[string]ResourceGrant{
			ResourceReports: {Grant: Grant{Read: true}},
		},
	}

	effective := ResolveEffective(custom, nil)
	assert.Len(t, effective.Resources, 1)
}

func TestResolveEffectiveUnionsSystemAccess(t *testing.T) {
	base := RoleSalesperson
	custom := CapabilitySet{
		System: SystemAccess{Reports: true},
	}

	effective := ResolveEffective(custom, &base)
	assert.True(t, effective.System.Reports)
	assert.True(t, effective.System.APIAccess)
}

func TestResolveEffectiveKeepsStricterSecurity(t *testing.T) {
	base := RoleSalesperson // 480 minute sessions, no 2FA
	custom := CapabilitySet{
		Security: SecurityPolicy{RequireTwoFactor: true, SessionTimeoutMinutes: 60},
	}

	effective := ResolveEffective(custom, &base)
	assert.True(t, effective.Security.RequireTwoFactor)
	assert.Equal(t, 60, effective.Security.SessionTimeoutMinutes)
}
