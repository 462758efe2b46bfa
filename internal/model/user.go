package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/permission"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
	UserStatusLocked   UserStatus = "locked"
)

// User is a staff member or customer account. Role is the built-in
// role; custom roles attach through RoleAssignment records.
type User struct {
	Base
	Email            string          `db:"email" json:"email"`
	PasswordHash     string          `db:"password_hash" json:"-"`
	FirstName        string          `db:"first_name" json:"first_name"`
	LastName         string          `db:"last_name" json:"last_name"`
	Phone            string          `db:"phone" json:"phone,omitempty"`
	Role             permission.Role `db:"role" json:"role"`
	ShowroomID       *uuid.UUID      `db:"showroom_id" json:"showroom_id,omitempty"`
	Status           UserStatus      `db:"status" json:"status"`
	FailedLogins     int             `db:"failed_logins" json:"-"`
	LastLoginAttempt *time.Time      `db:"last_login_attempt" json:"-"`
	LastLoginAt      *time.Time      `db:"last_login_at" json:"last_login_at,omitempty"`
}

type UserFilter struct {
	ShowroomID *uuid.UUID
	Role       *permission.Role
	Status     *UserStatus
	Search     string
}
