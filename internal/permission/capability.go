package permission

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Action is one of the five grant verbs.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// ParseAction maps a wire string onto a known action.
func ParseAction(s string) (Action, bool) {
	switch Action(s) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionManage:
		return Action(s), true
	}
	return "", false
}

// Resource names the evaluator knows about.
const (
	ResourceClients   = "clients"
	ResourceProjects  = "projects"
	ResourceDocuments = "documents"
	ResourceMessages  = "messages"
	ResourceReports   = "reports"
	ResourceUsers     = "users"
	ResourceShowrooms = "showrooms"
	ResourceSettings  = "settings"
)

var knownResources = map[string]struct{}{
	ResourceClients:   {},
	ResourceProjects:  {},
	ResourceDocuments: {},
	ResourceMessages:  {},
	ResourceReports:   {},
	ResourceUsers:     {},
	ResourceShowrooms: {},
	ResourceSettings:  {},
}

// KnownResource reports whether name is a valid resource.
func KnownResource(name string) bool {
	_, ok := knownResources[name]
	return ok
}

// Grant holds per-resource action flags.
type Grant struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Manage bool `json:"manage"`
}

// Allows reports whether the grant covers the action. Manage implies
// every other action.
func (g Grant) Allows(a Action) bool {
	if g.Manage {
		return true
	}
	switch a {
	case ActionCreate:
		return g.Create
	case ActionRead:
		return g.Read
	case ActionUpdate:
		return g.Update
	case ActionDelete:
		return g.Delete
	case ActionManage:
		return g.Manage
	}
	return false
}

// Union combines two grants, most permissive wins.
func (g Grant) Union(o Grant) Grant {
	return Grant{
		Create: g.Create || o.Create,
		Read:   g.Read || o.Read,
		Update: g.Update || o.Update,
		Delete: g.Delete || o.Delete,
		Manage: g.Manage || o.Manage,
	}
}

// Conditions restrict an otherwise granted action. All present
// conditions must hold.
type Conditions struct {
	OwnOnly      bool `json:"own_only,omitempty"`
	ShowroomOnly bool `json:"showroom_only,omitempty"`
	AssignedOnly bool `json:"assigned_only,omitempty"`
	MinRoleLevel int  `json:"min_role_level,omitempty"`
}

// ResourceGrant pairs a grant with optional conditions and scopes.
type ResourceGrant struct {
	Grant      Grant       `json:"grant"`
	Conditions *Conditions `json:"conditions,omitempty"`
	Scopes     []string    `json:"scopes,omitempty"`
}

// SystemAccess holds system-level access flags.
type SystemAccess struct {
	AdminPanel     bool `json:"admin_panel"`
	Reports        bool `json:"reports"`
	Settings       bool `json:"settings"`
	UserManagement bool `json:"user_management"`
	AuditLogs      bool `json:"audit_logs"`
	DataExport     bool `json:"data_export"`
	APIAccess      bool `json:"api_access"`
}

// MobileAccess holds companion-app access flags.
type MobileAccess struct {
	Enabled     bool `json:"enabled"`
	OfflineSync bool `json:"offline_sync"`
	PhotoUpload bool `json:"photo_upload"`
}

// SecurityPolicy holds per-role security constraints.
type SecurityPolicy struct {
	RequireTwoFactor      bool     `json:"require_two_factor"`
	SessionTimeoutMinutes int      `json:"session_timeout_minutes"`
	IPAllowlist           []string `json:"ip_allowlist,omitempty"`
}

// CapabilitySet maps resource names to grants plus system, mobile and
// security flags. It is the unit persisted for custom roles and
// templates.
type CapabilitySet struct {
	Resources map[string]ResourceGrant `json:"resources"`
	System    SystemAccess             `json:"system"`
	Mobile    MobileAccess             `json:"mobile"`
	Security  SecurityPolicy           `json:"security"`
}

// Value implements driver.Valuer so capability sets are stored as JSONB.
func (c CapabilitySet) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements sql.Scanner, decoding the JSONB column back into the
// typed structure.
func (c *CapabilitySet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = CapabilitySet{}
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported capability set source type %T", src)
	}
}

// Clone returns a deep copy of the capability set.
func (c CapabilitySet) Clone() CapabilitySet {
	out := c
	out.Resources = make(map[string]ResourceGrant, len(c.Resources))
	for name, rg := range c.Resources {
		cp := rg
		if rg.Conditions != nil {
			cond := *rg.Conditions
			cp.Conditions = &cond
		}
		if rg.Scopes != nil {
			cp.Scopes = append([]string(nil), rg.Scopes...)
		}
		out.Resources[name] = cp
	}
	if c.Security.IPAllowlist != nil {
		out.Security.IPAllowlist = append([]string(nil), c.Security.IPAllowlist...)
	}
	return out
}
