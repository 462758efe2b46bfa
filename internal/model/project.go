package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/renovahq/crm-api/internal/pipeline"
)

// Project is a renovation job moving through the pipeline. Version is a
// compare-and-swap counter guarding concurrent stage updates.
type Project struct {
	Base
	ShowroomID     uuid.UUID       `db:"showroom_id" json:"showroom_id"`
	ClientID       uuid.UUID       `db:"client_id" json:"client_id"`
	OwnerID        *uuid.UUID      `db:"owner_id" json:"owner_id,omitempty"`
	AssignedUserID *uuid.UUID      `db:"assigned_user_id" json:"assigned_user_id,omitempty"`
	Title          string          `db:"title" json:"title"`
	Description    string          `db:"description" json:"description,omitempty"`
	Stage          pipeline.Stage  `db:"stage" json:"stage"`
	Status         pipeline.Status `db:"status" json:"status"`
	QuotedValue    *int64          `db:"quoted_value" json:"quoted_value,omitempty"`
	Version        int64           `db:"version" json:"version"`

	ConsultationDate    *time.Time `db:"consultation_date" json:"consultation_date,omitempty"`
	SurveyDate          *time.Time `db:"survey_date" json:"survey_date,omitempty"`
	DesignPresentedDate *time.Time `db:"design_presented_date" json:"design_presented_date,omitempty"`
	SaleDate            *time.Time `db:"sale_date" json:"sale_date,omitempty"`
	ActualStartDate     *time.Time `db:"actual_start_date" json:"actual_start_date,omitempty"`
	ActualEndDate       *time.Time `db:"actual_end_date" json:"actual_end_date,omitempty"`
	LostReason          string     `db:"lost_reason" json:"lost_reason,omitempty"`
}

type ProjectFilter struct {
	ShowroomID     *uuid.UUID
	ClientID       *uuid.UUID
	OwnerID        *uuid.UUID
	AssignedUserID *uuid.UUID
	Stage          *pipeline.Stage
	Status         *pipeline.Status
	Pagination     Pagination
}

// ApplySideEffects stamps a transition's side effects onto the project.
// Already-set timestamps are preserved so re-applying is idempotent.
func (p *Project) ApplySideEffects(fx pipeline.SideEffects) {
	if fx.ConsultationDate != nil && p.ConsultationDate == nil {
		p.ConsultationDate = fx.ConsultationDate
	}
	if fx.SurveyDate != nil && p.SurveyDate == nil {
		p.SurveyDate = fx.SurveyDate
	}
	if fx.DesignPresentedDate != nil && p.DesignPresentedDate == nil {
		p.DesignPresentedDate = fx.DesignPresentedDate
	}
	if fx.SaleDate != nil && p.SaleDate == nil {
		p.SaleDate = fx.SaleDate
	}
	if fx.ActualStartDate != nil && p.ActualStartDate == nil {
		p.ActualStartDate = fx.ActualStartDate
	}
	if fx.ActualEndDate != nil && p.ActualEndDate == nil {
		p.ActualEndDate = fx.ActualEndDate
	}
	if fx.Status != nil {
		p.Status = *fx.Status
	}
}
