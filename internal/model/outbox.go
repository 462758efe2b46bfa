package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Event types appended by the services.
const (
	EventRoleCreate         = "ROLE_CREATE"
	EventRoleUpdate         = "ROLE_UPDATE"
	EventRoleAssign         = "ROLE_ASSIGN"
	EventRoleRevoke         = "ROLE_REVOKE"
	EventTemplateCreate     = "TEMPLATE_CREATE"
	EventTemplateDefault    = "TEMPLATE_DEFAULT_CHANGE"
	EventProjectCreate      = "PROJECT_CREATE"
	EventProjectStageChange = "PROJECT_STAGE_CHANGE"
	EventClientCreate       = "CLIENT_CREATE"
)

// NewOutboxEvent marshals the payload and wraps it in a pending event.
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		EventType: eventType,
		Payload:   body,
	}, nil
}

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       string          `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
}
