package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahq/crm-api/internal/model"
	"github.com/renovahq/crm-api/internal/permission"
	"github.com/renovahq/crm-api/internal/repository"
	"github.com/renovahq/crm-api/pkg/auth"
	apperrors "github.com/renovahq/crm-api/pkg/errors"
	"github.com/renovahq/crm-api/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*model.User
	byID    map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail: make(map[string]*model.User),
		byID:    make(map[uuid.UUID]*model.User),
	}
}

func (s *stubUserRepo) add(u *model.User) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *stubUserRepo) Create(ctx context.Context, u *model.User) error {
	u.ID = uuid.New()
	s.add(u)
	return nil
}

func (s *stubUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (s *stubUserRepo) Update(ctx context.Context, u *model.User) error           { return nil }
func (s *stubUserRepo) UpdateLoginState(ctx context.Context, u *model.User) error { return nil }
func (s *stubUserRepo) List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	return nil, nil
}

func newFixture(t *testing.T) (*Service, *stubUserRepo, *model.User) {
	t.Helper()

	repo := newStubUserRepo()
	hasher := security.NewBcryptHasher(4)
	hash, err := hasher.Hash("correct-horse")
	require.NoError(t, err)

	user := &model.User{
		Email:        "sales@example.com",
		PasswordHash: hash,
		Role:         permission.RoleSalesperson,
		Status:       model.UserStatusActive,
	}
	user.ID = uuid.New()
	repo.add(user)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
	})
	nop := zerolog.Nop()
	svc := NewService(repo, jwtSvc, hasher, time.Hour, &nop)
	return svc, repo, user
}

func TestLoginSuccess(t *testing.T) {
	svc, _, user := newFixture(t)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "/dashboard/sales", tokens.DashboardRoute)
	assert.Equal(t, int64(3600), tokens.ExpiresIn)
	assert.Equal(t, 0, user.FailedLogins)
	require.NotNil(t, user.LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, user := newFixture(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "wrong",
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
	assert.Equal(t, 1, user.FailedLogins)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}

func TestLoginLocksAfterRepeatedFailures(t *testing.T) {
	svc, _, user := newFixture(t)

	for i := 0; i < maxLoginAttempts; i++ {
		_, err := svc.Login(context.Background(), &model.LoginRequest{
			Email:    user.Email,
			Password: "wrong",
		})
		require.Error(t, err)
	}
	assert.Equal(t, model.UserStatusLocked, user.Status)

	// Even the right password bounces while locked.
	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestLoginLockoutExpires(t *testing.T) {
	svc, _, user := newFixture(t)

	past := time.Now().Add(-lockoutDuration - time.Minute)
	user.Status = model.UserStatusLocked
	user.FailedLogins = maxLoginAttempts
	user.LastLoginAttempt = &past

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.Equal(t, model.UserStatusActive, user.Status)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _, user := newFixture(t)
	user.Status = model.UserStatusInactive

	_, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestRefresh(t *testing.T) {
	svc, _, user := newFixture(t)

	tokens, err := svc.Login(context.Background(), &model.LoginRequest{
		Email:    user.Email,
		Password: "correct-horse",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), &model.RefreshRequest{
		RefreshToken: tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefreshGarbageToken(t *testing.T) {
	svc, _, _ := newFixture(t)

	_, err := svc.Refresh(context.Background(), &model.RefreshRequest{RefreshToken: "garbage"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrUnauthorized, appErr.Code)
}
