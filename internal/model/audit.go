package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who changed what, with the change payload serialized
// as JSON.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	UserID     uuid.UUID       `db:"user_id" json:"user_id"`
	ShowroomID *uuid.UUID      `db:"showroom_id" json:"showroom_id,omitempty"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID       `db:"entity_id" json:"entity_id"`
	Changes    json.RawMessage `db:"changes" json:"changes,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

type AuditFilter struct {
	UserID     *uuid.UUID
	ShowroomID *uuid.UUID
	EntityType string
	Since      *time.Time
	Pagination Pagination
}
