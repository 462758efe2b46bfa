package model

// Showroom is the tenant-like scoping unit partitioning clients,
// projects and custom roles.
type Showroom struct {
	Base
	Name     string `db:"name" json:"name"`
	Address  string `db:"address" json:"address,omitempty"`
	City     string `db:"city" json:"city,omitempty"`
	Postcode string `db:"postcode" json:"postcode,omitempty"`
	Phone    string `db:"phone" json:"phone,omitempty"`
	Email    string `db:"email" json:"email,omitempty"`
	Active   bool   `db:"active" json:"active"`
}
