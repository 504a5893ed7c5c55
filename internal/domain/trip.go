package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TripTypeFlight    = "flight"
	TripTypeHotel     = "hotel"
	TripTypeCarRental = "car_rental"
)

type Trip struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	UserID        uuid.UUID  `db:"user_id" json:"user_id"`
	Origin        string     `db:"origin" json:"origin"`
	Destination   string     `db:"destination" json:"destination"`
	DepartureDate time.Time  `db:"departure_date" json:"departure_date"`
	ReturnDate    *time.Time `db:"return_date" json:"return_date,omitempty"`
	Travelers     int        `db:"travelers" json:"travelers"`
	TripType      string     `db:"trip_type" json:"trip_type"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
