package permission

import (
	"time"

	"github.com/google/uuid"
)

// Reason distinguishes why a check was decided the way it was. Denials
// are typed results, never errors.
type Reason string

const (
	ReasonGranted           Reason = "granted"
	ReasonMissingRole       Reason = "missing_role"
	ReasonUnknownCapability Reason = "unknown_capability"
	ReasonNoGrant           Reason = "no_grant"
	ReasonConditionFailed   Reason = "condition_failed"
)

// ResourceContext carries the target's ownership attributes for
// condition evaluation.
type ResourceContext struct {
	OwnerID        *uuid.UUID
	ShowroomID     *uuid.UUID
	AssignedUserID *uuid.UUID
}

// CustomGrant is the evaluator's read-only snapshot of one custom-role
// assignment. Callers resolve persistence; the evaluator only folds.
type CustomGrant struct {
	Name         string
	Capabilities CapabilitySet
	BaseRole     *Role
	ShowroomID   *uuid.UUID // nil = global
	Active       bool
	ExpiresAt    *time.Time
}

// CheckRequest is one permission question.
type CheckRequest struct {
	Role                Role
	PrincipalID         uuid.UUID
	PrincipalShowroomID *uuid.UUID
	Resource            string
	Action              Action
	Context             *ResourceContext
	CustomGrants        []CustomGrant
	Now                 time.Time
}

// Decision is the evaluator's answer. Conditions carries the winning
// grant's conditions on an allow so callers can scope collection
// queries to what the grant actually covers.
type Decision struct {
	Allowed    bool        `json:"allowed"`
	Reason     Reason      `json:"reason"`
	Source     string      `json:"source,omitempty"`
	Conditions *Conditions `json:"conditions,omitempty"`
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Check decides whether the principal may perform the requested action.
// Pure and stateless: every input is supplied per call, most permissive
// source wins, unknown names deny with a distinguishable reason.
func Check(req CheckRequest) Decision {
	if !KnownResource(req.Resource) {
		return deny(ReasonUnknownCapability)
	}
	if _, ok := ParseAction(string(req.Action)); !ok {
		return deny(ReasonUnknownCapability)
	}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	conditionFailed := false
	baseFound := false

	if profile, err := Lookup(req.Role); err == nil {
		baseFound = true
		if rg, ok := profile.Resources(req.Resource); ok && rg.Grant.Allows(req.Action) {
			if conditionsHold(rg.Conditions, req) {
				return Decision{Allowed: true, Reason: ReasonGranted, Source: "role:" + string(req.Role), Conditions: rg.Conditions}
			}
			conditionFailed = true
		}
	}

	for _, cg := range req.CustomGrants {
		if !grantApplies(cg, req) {
			continue
		}
		rg, ok := effectiveResourceGrant(cg, req.Resource)
		if !ok || !rg.Grant.Allows(req.Action) {
			continue
		}
		if !conditionsHold(rg.Conditions, req) {
			conditionFailed = true
			continue
		}
		return Decision{Allowed: true, Reason: ReasonGranted, Source: "custom:" + cg.Name, Conditions: rg.Conditions}
	}

	switch {
	case conditionFailed:
		return deny(ReasonConditionFailed)
	case !baseFound:
		return deny(ReasonMissingRole)
	default:
		return deny(ReasonNoGrant)
	}
}

// Resources looks up one resource grant on a profile.
func (p RoleProfile) Resources(resource string) (ResourceGrant, bool) {
	rg, ok := p.Capabilities.Resources[resource]
	return rg, ok
}

// grantApplies filters out inactive, expired and out-of-showroom grants.
// Global grants (nil showroom) always apply.
func grantApplies(cg CustomGrant, req CheckRequest) bool {
	if !cg.Active {
		return false
	}
	if cg.ExpiresAt != nil && !cg.ExpiresAt.After(req.Now) {
		return false
	}
	if cg.ShowroomID == nil {
		return true
	}
	return req.PrincipalShowroomID != nil && *cg.ShowroomID == *req.PrincipalShowroomID
}

// effectiveResourceGrant resolves a custom grant's entry for a resource,
// falling back to the base role's built-in entry when the custom set has
// no explicit one.
func effectiveResourceGrant(cg CustomGrant, resource string) (ResourceGrant, bool) {
	if rg, ok := cg.Capabilities.Resources[resource]; ok {
		return rg, true
	}
	if cg.BaseRole != nil {
		if profile, err := Lookup(*cg.BaseRole); err == nil {
			if rg, ok := profile.Capabilities.Resources[resource]; ok {
				return rg, true
			}
		}
	}
	return ResourceGrant{}, false
}

// conditionsHold evaluates all present conditions with AND semantics.
func conditionsHold(cond *Conditions, req CheckRequest) bool {
	if cond == nil {
		return true
	}
	ctx := req.Context
	if cond.OwnOnly {
		if ctx == nil || ctx.OwnerID == nil || *ctx.OwnerID != req.PrincipalID {
			return false
		}
	}
	if cond.ShowroomOnly {
		if ctx == nil || ctx.ShowroomID == nil || req.PrincipalShowroomID == nil ||
			*ctx.ShowroomID != *req.PrincipalShowroomID {
			return false
		}
	}
	if cond.AssignedOnly {
		if ctx == nil || ctx.AssignedUserID == nil || *ctx.AssignedUserID != req.PrincipalID {
			return false
		}
	}
	if cond.MinRoleLevel > 0 && RoleLevel(req.Role) < cond.MinRoleLevel {
		return false
	}
	return true
}
