package model

import (
	"github.com/google/uuid"
)

// Client is a prospect or customer of a showroom.
type Client struct {
	Base
	ShowroomID    uuid.UUID  `db:"showroom_id" json:"showroom_id"`
	OwnerID       *uuid.UUID `db:"owner_id" json:"owner_id,omitempty"`
	FirstName     string     `db:"first_name" json:"first_name"`
	LastName      string     `db:"last_name" json:"last_name"`
	Email         string     `db:"email" json:"email,omitempty"`
	Phone         string     `db:"phone" json:"phone,omitempty"`
	AddressLine1  string     `db:"address_line1" json:"address_line1,omitempty"`
	AddressLine2  string     `db:"address_line2" json:"address_line2,omitempty"`
	City          string     `db:"city" json:"city,omitempty"`
	Postcode      string     `db:"postcode" json:"postcode,omitempty"`
	LeadSource    string     `db:"lead_source" json:"lead_source,omitempty"`
	MarketingOptIn bool      `db:"marketing_opt_in" json:"marketing_opt_in"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
}

type ClientFilter struct {
	ShowroomID *uuid.UUID
	OwnerID    *uuid.UUID
	Search     string
	Pagination Pagination
}
