package permission

// Template is the shared shape for built-in and persisted permission
// templates. Built-ins carry an empty ID and BuiltIn=true.
type Template struct {
	ID           string        `json:"id,omitempty"`
	Key          string        `json:"key"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Capabilities CapabilitySet `json:"capabilities"`
	BuiltIn      bool          `json:"built_in"`
	IsDefault    bool          `json:"is_default"`
}

// Template categories.
const (
	CategorySales      = "sales"
	CategoryOperations = "operations"
	CategoryFinance    = "finance"
	CategoryGeneral    = "general"
)

// BuiltinTemplates returns the compiled templates used to pre-populate
// custom role creation. The slice is freshly built per call so callers
// may mutate it.
func BuiltinTemplates() []Template {
	templates := []Template{
		{
			Key:         "sales-standard",
			Name:        "Sales Standard",
			Description: "Client and project pipeline access for showroom sales staff",
			Category:    CategorySales,
			BuiltIn:     true,
		},
		{
			Key:         "field-operative",
			Name:        "Field Operative",
			Description: "Read and progress assigned projects from site",
			Category:    CategoryOperations,
			BuiltIn:     true,
		},
		{
			Key:         "finance-readonly",
			Name:        "Finance Read-Only",
			Description: "Report access without client or project mutation",
			Category:    CategoryFinance,
			BuiltIn:     true,
		},
		{
			Key:         "showroom-manager",
			Name:        "Showroom Manager",
			Description: "Full access within a single showroom",
			Category:    CategoryGeneral,
			BuiltIn:     true,
		},
	}

	seeds := map[string]Role{
		"sales-standard":   RoleSalesperson,
		"field-operative":  RoleInstaller,
		"finance-readonly": RoleBookkeeper,
		"showroom-manager": RoleManager,
	}
	for i := range templates {
		if role, ok := seeds[templates[i].Key]; ok {
			if profile, err := Lookup(role); err == nil {
				templates[i].Capabilities = profile.Capabilities.Clone()
			}
		}
	}
	return templates
}

// FilterByCategory is a pure filter over a combined template list.
// An empty category returns the input unchanged.
func FilterByCategory(list []Template, category string) []Template {
	if category == "" {
		return list
	}
	out := make([]Template, 0, len(list))
	for _, t := range list {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// ResolveEffective merges a custom role's explicit capabilities over its
// base role's built-ins. Explicit resource entries win; anything absent
// falls back to the base. System and mobile flags union (most
// permissive); the stricter security policy survives.
func ResolveEffective(capabilities CapabilitySet, base *Role) CapabilitySet {
	if base == nil {
		return capabilities.Clone()
	}
	profile, err := Lookup(*base)
	if err != nil {
		return capabilities.Clone()
	}

	out := profile.Capabilities.Clone()
	for name, rg := range capabilities.Resources {
		cp := rg
		if rg.Conditions != nil {
			cond := *rg.Conditions
			cp.Conditions = &cond
		}
		out.Resources[name] = cp
	}

	out.System = unionSystem(out.System, capabilities.System)
	out.Mobile = unionMobile(out.Mobile, capabilities.Mobile)
	out.Security = stricterSecurity(out.Security, capabilities.Security)
	return out
}

func unionSystem(a, b SystemAccess) SystemAccess {
	return SystemAccess{
		AdminPanel:     a.AdminPanel || b.AdminPanel,
		Reports:        a.Reports || b.Reports,
		Settings:       a.Settings || b.Settings,
		UserManagement: a.UserManagement || b.UserManagement,
		AuditLogs:      a.AuditLogs || b.AuditLogs,
		DataExport:     a.DataExport || b.DataExport,
		APIAccess:      a.APIAccess || b.APIAccess,
	}
}

func unionMobile(a, b MobileAccess) MobileAccess {
	return MobileAccess{
		Enabled:     a.Enabled || b.Enabled,
		OfflineSync: a.OfflineSync || b.OfflineSync,
		PhotoUpload: a.PhotoUpload || b.PhotoUpload,
	}
}

func stricterSecurity(a, b SecurityPolicy) SecurityPolicy {
	out := SecurityPolicy{
		RequireTwoFactor: a.RequireTwoFactor || b.RequireTwoFactor,
	}
	out.SessionTimeoutMinutes = a.SessionTimeoutMinutes
	if b.SessionTimeoutMinutes > 0 &&
		(out.SessionTimeoutMinutes == 0 || b.SessionTimeoutMinutes < out.SessionTimeoutMinutes) {
		out.SessionTimeoutMinutes = b.SessionTimeoutMinutes
	}
	out.IPAllowlist = append(out.IPAllowlist, a.IPAllowlist...)
	out.IPAllowlist = append(out.IPAllowlist, b.IPAllowlist...)
	if len(out.IPAllowlist) == 0 {
		out.IPAllowlist = nil
	}
	return out
}
