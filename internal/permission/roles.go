package permission

import (
	"errors"
)

// Role identifies a built-in role. The set is fixed at compile time.
type Role string

const (
	RoleSalesperson Role = "salesperson"
	RoleSurveyor    Role = "surveyor"
	RoleInstaller   Role = "installer"
	RoleManager     Role = "manager"
	RoleBookkeeper  Role = "bookkeeper"
	RoleAdmin       Role = "admin"
	RoleDirector    Role = "director"
	RoleCustomer    Role = "customer"
	RoleAssistant   Role = "assistant"
)

// ErrMissingRole signals a role absent from the permission table.
// Callers must treat it as no access, never as all access.
var ErrMissingRole = errors.New("role not present in permission table")

// RoleProfile is the built-in mapping for one role.
type RoleProfile struct {
	Capabilities   CapabilitySet
	DashboardRoute string
	Level          int
}

func crud(create, read, update, del, manage bool) ResourceGrant {
	return ResourceGrant{Grant: Grant{Create: create, Read: read, Update: update, Delete: del, Manage: manage}}
}

func crudWith(create, read, update, del bool, cond Conditions) ResourceGrant {
	c := cond
	return ResourceGrant{Grant: Grant{Create: create, Read: read, Update: update, Delete: del}, Conditions: &c}
}

var roleTable = map[Role]RoleProfile{
	RoleSalesperson: {
		Level:          2,
		DashboardRoute: "/dashboard/sales",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:   crudWith(true, true, true, false, Conditions{ShowroomOnly: true}),
				ResourceProjects:  crudWith(true, true, true, false, Conditions{ShowroomOnly: true}),
				ResourceDocuments: crudWith(true, true, false, false, Conditions{OwnOnly: true}),
				ResourceMessages:  crud(true, true, false, false, false),
				ResourceReports:   crudWith(false, true, false, false, Conditions{OwnOnly: true}),
			},
			System:   SystemAccess{APIAccess: true},
			Mobile:   MobileAccess{Enabled: true, PhotoUpload: true},
			Security: SecurityPolicy{SessionTimeoutMinutes: 480},
		},
	},
	RoleSurveyor: {
		Level:          2,
		DashboardRoute: "/dashboard/surveys",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:   crudWith(false, true, false, false, Conditions{AssignedOnly: true}),
				ResourceProjects:  crudWith(false, true, true, false, Conditions{AssignedOnly: true}),
				ResourceDocuments: crud(true, true, false, false, false),
				ResourceMessages:  crud(true, true, false, false, false),
			},
			Mobile:   MobileAccess{Enabled: true, OfflineSync: true, PhotoUpload: true},
			Security: SecurityPolicy{SessionTimeoutMinutes: 480},
		},
	},
	RoleInstaller: {
		Level:          1,
		DashboardRoute: "/dashboard/installations",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceProjects:  crudWith(false, true, true, false, Conditions{AssignedOnly: true}),
				ResourceDocuments: crudWith(true, true, false, false, Conditions{AssignedOnly: true}),
				ResourceMessages:  crud(true, true, false, false, false),
			},
			Mobile:   MobileAccess{Enabled: true, OfflineSync: true, PhotoUpload: true},
			Security: SecurityPolicy{SessionTimeoutMinutes: 720},
		},
	},
	RoleManager: {
		Level:          3,
		DashboardRoute: "/dashboard/manager",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:   crudWith(true, true, true, true, Conditions{ShowroomOnly: true}),
				ResourceProjects:  crudWith(true, true, true, true, Conditions{ShowroomOnly: true}),
				ResourceDocuments: crud(true, true, true, true, false),
				ResourceMessages:  crud(true, true, true, true, false),
				ResourceReports:   crudWith(false, true, false, false, Conditions{ShowroomOnly: true}),
				ResourceUsers:     crudWith(false, true, true, false, Conditions{ShowroomOnly: true}),
			},
			System:   SystemAccess{Reports: true, APIAccess: true},
			Mobile:   MobileAccess{Enabled: true, PhotoUpload: true},
			Security: SecurityPolicy{SessionTimeoutMinutes: 480},
		},
	},
	RoleBookkeeper: {
		Level:          2,
		DashboardRoute: "/dashboard/accounts",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:  crud(false, true, false, false, false),
				ResourceProjects: crud(false, true, false, false, false),
				ResourceReports:  crud(true, true, true, false, false),
			},
			System:   SystemAccess{Reports: true, DataExport: true},
			Security: SecurityPolicy{RequireTwoFactor: true, SessionTimeoutMinutes: 240},
		},
	},
	RoleAdmin: {
		Level:          4,
		DashboardRoute: "/dashboard/admin",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:   crud(false, false, false, false, true),
				ResourceProjects:  crud(false, false, false, false, true),
				ResourceDocuments: crud(false, false, false, false, true),
				ResourceMessages:  crud(false, false, false, false, true),
				ResourceReports:   crud(false, false, false, false, true),
				ResourceUsers:     crud(false, false, false, false, true),
				ResourceShowrooms: crud(false, false, false, false, true),
				ResourceSettings:  crud(false, false, false, false, true),
			},
			System: SystemAccess{
				AdminPanel: true, Reports: true, Settings: true,
				UserManagement: true, AuditLogs: true, DataExport: true, APIAccess: true,
			},
			Mobile:   MobileAccess{Enabled: true, OfflineSync: true, PhotoUpload: true},
			Security: SecurityPolicy{RequireTwoFactor: true, SessionTimeoutMinutes: 240},
		},
	},
	RoleDirector: {
		Level:          5,
		DashboardRoute: "/dashboard/director",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:   crud(false, false, false, false, true),
				ResourceProjects:  crud(false, false, false, false, true),
				ResourceDocuments: crud(false, false, false, false, true),
				ResourceMessages:  crud(false, false, false, false, true),
				ResourceReports:   crud(false, false, false, false, true),
				ResourceUsers:     crud(false, false, false, false, true),
				ResourceShowrooms: crud(false, false, false, false, true),
				ResourceSettings:  crud(false, false, false, false, true),
			},
			System: SystemAccess{
				AdminPanel: true, Reports: true, Settings: true,
				UserManagement: true, AuditLogs: true, DataExport: true, APIAccess: true,
			},
			Mobile:   MobileAccess{Enabled: true, OfflineSync: true, PhotoUpload: true},
			Security: SecurityPolicy{RequireTwoFactor: true, SessionTimeoutMinutes: 240},
		},
	},
	RoleCustomer: {
		Level:          0,
		DashboardRoute: "/portal",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceProjects:  crudWith(false, true, false, false, Conditions{OwnOnly: true}),
				ResourceDocuments: crudWith(false, true, false, false, Conditions{OwnOnly: true}),
				ResourceMessages:  crudWith(true, true, false, false, Conditions{OwnOnly: true}),
			},
			Mobile:   MobileAccess{Enabled: true, PhotoUpload: true},
			Security: SecurityPolicy{SessionTimeoutMinutes: 60},
		},
	},
	RoleAssistant: {
		Level:          1,
		DashboardRoute: "/dashboard/assistant",
		Capabilities: CapabilitySet{
			Resources: map[string]ResourceGrant{
				ResourceClients:  crud(false, true, true, false, false),
				ResourceProjects: crud(false, true, false, false, false),
				ResourceMessages: crud(true, true, false, false, false),
			},
			System:   SystemAccess{APIAccess: true},
			Security: SecurityPolicy{SessionTimeoutMinutes: 120},
		},
	},
}

// Lookup resolves the built-in profile for a role. Missing roles yield
// ErrMissingRole; the evaluator treats that as deny.
func Lookup(role Role) (RoleProfile, error) {
	profile, ok := roleTable[role]
	if !ok {
		return RoleProfile{}, ErrMissingRole
	}
	return profile, nil
}

// ParseRole maps a wire string onto a known built-in role.
func ParseRole(s string) (Role, bool) {
	_, ok := roleTable[Role(s)]
	if !ok {
		return "", false
	}
	return Role(s), true
}

// Roles lists the built-in role identifiers.
func Roles() []Role {
	out := make([]Role, 0, len(roleTable))
	for r := range roleTable {
		out = append(out, r)
	}
	return out
}

// DashboardRoute returns the default landing route for a role, falling
// back to the customer portal for unknown roles.
func DashboardRoute(role Role) string {
	if profile, ok := roleTable[role]; ok {
		return profile.DashboardRoute
	}
	return "/portal"
}

// RoleLevel returns the numeric level for a role, 0 when unknown.
func RoleLevel(role Role) int {
	if profile, ok := roleTable[role]; ok {
		return profile.Level
	}
	return 0
}
