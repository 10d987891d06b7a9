package agents

import "time"

// Agent is a payable entry in the marketplace directory. Price is in the
// asset's smallest unit.
type Agent struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Wallet      string    `json:"wallet"`
	Price       uint64    `json:"price"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Active      bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update carries a partial update; nil fields are left untouched.
type Update struct {
	Name        *string
	Price       *uint64
	Description *string
	ImageURL    *string
	Active      *bool
}

// ListFilter narrows and pages a catalog listing.
type ListFilter struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}
