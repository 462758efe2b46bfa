package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/pkg/auth"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
	"github.com/renovahq/crm-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

var errInvalidCredentials = errors.New("invalid email or password")

// Service handles credential verification, lockout and token issuance.
type Service struct {
	userRepo repository.UserRepository
	jwt      auth.JWTService
	hasher   security.PasswordHasher
	expiry   time.Duration
	logger   *zerolog.Logger
}

func NewService(userRepo repository.UserRepository, jwt auth.JWTService, hasher security.PasswordHasher, expiry time.Duration, logger *zerolog.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwt,
		hasher:   hasher,
		expiry:   expiry,
		logger:   logger,
	}
}

// Login verifies credentials and returns a token pair. Repeated
// failures lock the account for lockoutDuration.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if user.Status == model.UserStatusInactive {
		return nil, apperrors.Forbidden("account is inactive", nil)
	}
	if s.locked(user) {
		return nil, apperrors.Forbidden("account is locked, try again later", nil)
	}
	if user.Status == model.UserStatusLocked {
		// Lockout window elapsed; start a fresh attempt count.
		user.Status = model.UserStatusActive
		user.FailedLogins = 0
	}

	now := time.Now()
	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		user.FailedLogins++
		user.LastLoginAttempt = &now
		if user.FailedLogins >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
			s.logger.Warn().Str("email", user.Email).Msg("account locked after repeated login failures")
		}
		if updateErr := s.userRepo.UpdateLoginState(ctx, user); updateErr != nil {
			s.logger.Error().Err(updateErr).Msg("failed to record login failure")
		}
		return nil, apperrors.Unauthorized(errInvalidCredentials)
	}

	user.FailedLogins = 0
	user.Status = model.UserStatusActive
	user.LastLoginAttempt = &now
	user.LastLoginAt = &now
	if err := s.userRepo.UpdateLoginState(ctx, user); err != nil {
		s.logger.Error().Err(err).Msg("failed to record login success")
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	userID, err := s.jwt.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errors.New("user no longer exists"))
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, apperrors.Forbidden("account is not active", nil)
	}

	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.ShowroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &model.TokenResponse{
		AccessToken:    access,
		RefreshToken:   refresh,
		ExpiresIn:      int64(s.expiry.Seconds()),
		DashboardRoute: permission.DashboardRoute(user.Role),
	}, nil
}

// locked reports whether the lockout window is still in effect. Expired
// lockouts are treated as unlocked; the next successful login resets
// the counters.
func (s *Service) locked(user *model.User) bool {
	if user.Status != model.UserStatusLocked {
		return false
	}
	if user.LastLoginAttempt == nil {
		return true
	}
	return time.Since(*user.LastLoginAttempt) < lockoutDuration
}
