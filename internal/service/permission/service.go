package permission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/pkg/metrics"
)

const (
	grantCacheTTL     = 30 * time.Second
	grantCacheCleanup = 1 * time.Minute
)

// Service answers permission questions for authenticated principals.
// It resolves the principal's active custom-role assignments, snapshots
// them briefly in memory and delegates the decision to the evaluator.
type Service struct {
	roleRepo repository.RoleRepository
	cache    *gocache.Cache
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
}

func NewService(roleRepo repository.RoleRepository, m *metrics.Metrics, logger *zerolog.Logger) *Service {
	return &Service{
		roleRepo: roleRepo,
		cache:    gocache.New(grantCacheTTL, grantCacheCleanup),
		metrics:  m,
		logger:   logger,
	}
}

// Check evaluates one resource/action question for the principal.
// Denials come back as decisions, not errors; errors mean the grant
// snapshot could not be loaded.
func (s *Service) Check(ctx context.Context, principal model.Principal, resource, action string, resCtx *permission.ResourceContext) (permission.Decision, error) {
	grants, err := s.grantsFor(ctx, principal.UserID)
	if err != nil {
		return permission.Decision{}, fmt.Errorf("failed to load custom grants: %w", err)
	}

	decision := permission.Check(permission.CheckRequest{
		Role:                principal.Role,
		PrincipalID:         principal.UserID,
		PrincipalShowroomID: principal.ShowroomID,
		Resource:            resource,
		Action:              permission.Action(action),
		Context:             resCtx,
		CustomGrants:        grants,
		Now:                 time.Now(),
	})

	if s.metrics != nil {
		outcome := "denied"
		if decision.Allowed {
			outcome = "allowed"
		}
		s.metrics.PermissionChecks.WithLabelValues(resource, action, outcome).Inc()
	}
	if !decision.Allowed && s.logger != nil {
		s.logger.Debug().
			Str("user_id", principal.UserID.String()).
			Str("role", string(principal.Role)).
			Str("resource", resource).
			Str("action", action).
			Str("reason", string(decision.Reason)).
			Msg("permission denied")
	}

	return decision, nil
}

// EffectiveGrants returns the principal's current custom grant snapshot,
// bypassing the cache. Used by the introspection endpoint.
func (s *Service) EffectiveGrants(ctx context.Context, userID uuid.UUID) ([]permission.CustomGrant, error) {
	assignments, err := s.roleRepo.ListActiveAssignments(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active assignments: %w", err)
	}
	grants := make([]permission.CustomGrant, 0, len(assignments))
	for _, a := range assignments {
		grants = append(grants, a.Grant())
	}
	return grants, nil
}

// InvalidateUser drops the cached grant snapshot after a role or
// assignment mutation so the next check sees fresh state.
func (s *Service) InvalidateUser(userID uuid.UUID) {
	s.cache.Delete(userID.String())
}

func (s *Service) grantsFor(ctx context.Context, userID uuid.UUID) ([]permission.CustomGrant, error) {
	key := userID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]permission.CustomGrant), nil
	}

	grants, err := s.EffectiveGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, grants, gocache.DefaultExpiration)
	return grants, nil
}
