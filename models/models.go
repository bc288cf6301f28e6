package models

import "time"

// Center is a deduplicated dialysis center as stored in the centers table.
// Latitude and Longitude are nil until the geocoding worker resolves them.
type Center struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Website   string    `json:"website,omitempty"`
	State     string    `json:"state"`
	City      string    `json:"city,omitempty"`
	Units     []string  `json:"units"`
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	GeoStatus string    `json:"geo_status"`
	OwnerID   *string   `json:"owner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Distance *float64 `json:"distance,omitempty"`
}

const (
	GeoStatusPending  = "PENDING"
	GeoStatusResolved = "RESOLVED"
)

// User is an account that can own centers. Roles are one of the Role*
// constants.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

const (
	RoleAdmin = "ADMIN"
	RoleOwner = "OWNER"
	RoleUser  = "USER"
)

// ContactUpdate carries the fields an owner may edit from the dashboard.
// Nil fields are left unchanged.
type ContactUpdate struct {
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Website *string `json:"website"`
}
