package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/permission"
)

// CustomRole is a persisted, scoped extension of a built-in role's
// capabilities. A nil ShowroomID makes the role global. Custom roles
// are soft-disabled via Active, never hard-deleted.
type CustomRole struct {
	Base
	Name         string                   `db:"name" json:"name"`
	Description  string                   `db:"description" json:"description,omitempty"`
	BaseRole     *permission.Role         `db:"base_role" json:"base_role,omitempty"`
	Capabilities permission.CapabilitySet `db:"capabilities" json:"capabilities"`
	Active       bool                     `db:"active" json:"active"`
	ShowroomID   *uuid.UUID               `db:"showroom_id" json:"showroom_id,omitempty"`
	CreatedBy    uuid.UUID                `db:"created_by" json:"created_by"`
}

// RoleAssignment links a user to a custom role. Only active,
// non-expired assignments count toward effective permissions.
type RoleAssignment struct {
	Base
	UserID       uuid.UUID  `db:"user_id" json:"user_id"`
	CustomRoleID uuid.UUID  `db:"custom_role_id" json:"custom_role_id"`
	Active       bool       `db:"active" json:"active"`
	ExpiresAt    *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	Notes        string     `db:"notes" json:"notes,omitempty"`
	AssignedBy   uuid.UUID  `db:"assigned_by" json:"assigned_by"`
}

// AssignmentWithRole is the joined row the permission service feeds to
// the evaluator.
type AssignmentWithRole struct {
	RoleAssignment
	Role CustomRole `json:"role"`
}

// PermissionTemplate is a persisted, reusable capability set used to
// pre-populate custom role creation. Built-in templates are compiled
// constants exposed under the same wire shape.
type PermissionTemplate struct {
	Base
	Key          string                   `db:"key" json:"key"`
	Name         string                   `db:"name" json:"name"`
	Description  string                   `db:"description" json:"description,omitempty"`
	Category     string                   `db:"category" json:"category"`
	Capabilities permission.CapabilitySet `db:"capabilities" json:"capabilities"`
	IsDefault    bool                     `db:"is_default" json:"is_default"`
	ShowroomID   *uuid.UUID               `db:"showroom_id" json:"showroom_id,omitempty"`
	CreatedBy    uuid.UUID                `db:"created_by" json:"created_by"`
}

// Grant converts a joined assignment into the evaluator's snapshot type.
func (a AssignmentWithRole) Grant() permission.CustomGrant {
	return permission.CustomGrant{
		Name:         a.Role.Name,
		Capabilities: a.Role.Capabilities,
		BaseRole:     a.Role.BaseRole,
		ShowroomID:   a.Role.ShowroomID,
		Active:       a.Active && a.Role.Active,
		ExpiresAt:    a.ExpiresAt,
	}
}
