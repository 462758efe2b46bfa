package model

import (
	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/permission"
)

// Principal is the authenticated identity attached to each request by
// the auth middleware.
type Principal struct {
	UserID     uuid.UUID       `json:"user_id"`
	Email      string          `json:"email"`
	Role       permission.Role `json:"role"`
	ShowroomID *uuid.UUID      `json:"showroom_id,omitempty"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	ExpiresIn      int64  `json:"expires_in"`
	DashboardRoute string `json:"dashboard_route"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
