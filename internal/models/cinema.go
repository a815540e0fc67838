package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Well-known cinema type names seeded in the tier catalog.
const (
	CinemaTypeStandard = "standard"
	CinemaTypePremium  = "premium"
	CinemaTypeIMAX     = "imax"
	CinemaTypeVIP      = "vip"
)

// CinemaType is a pricing tier applied multiplicatively to base prices.
type CinemaType struct {
	ID              string  `db:"id" json:"id"`
	Name            string  `db:"name" json:"name"`
	PriceMultiplier float64 `db:"price_multiplier" json:"price_multiplier"`
}

// Cinema is a physical room. RoomNumber is the human-facing identifier used
// in conversational requests; ID is the stable key.
type Cinema struct {
	ID           string         `db:"id" json:"id"`
	RoomNumber   int            `db:"room_number" json:"room_number"`
	CinemaTypeID string         `db:"cinema_type_id" json:"cinema_type_id"`
	TotalSeats   int            `db:"total_seats" json:"total_seats"`
	Location     string         `db:"location" json:"location"`
	Features     types.JSONText `db:"features" json:"features,omitempty"`
	IsActive     bool           `db:"is_active" json:"is_active"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// CinemaView joins a room with its pricing tier.
type CinemaView struct {
	Cinema
	TypeName        string  `db:"type_name" json:"type_name"`
	PriceMultiplier float64 `db:"price_multiplier" json:"price_multiplier"`
}
