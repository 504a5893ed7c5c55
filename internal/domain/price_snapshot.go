package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PriceSnapshot is one immutable observed price. Rows are append-only: the
// scraping pipeline inserts them and nothing ever updates or deletes them.
// RawData keeps the provider's response for audit; oversized payloads may be
// offloaded to object storage, in which case RawDataURL points at the archive.
type PriceSnapshot struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	TripID            uuid.UUID       `db:"trip_id" json:"trip_id"`
	UserID            uuid.UUID       `db:"user_id" json:"user_id"`
	Provider          string          `db:"provider" json:"provider"`
	Price             int64           `db:"price" json:"price"`
	Currency          string          `db:"currency" json:"currency"`
	CabinClass        *string         `db:"cabin_class" json:"cabin_class,omitempty"`
	Airline           *string         `db:"airline" json:"airline,omitempty"`
	OutboundDeparture *time.Time      `db:"outbound_departure" json:"outbound_departure,omitempty"`
	OutboundArrival   *time.Time      `db:"outbound_arrival" json:"outbound_arrival,omitempty"`
	ReturnDeparture   *time.Time      `db:"return_departure" json:"return_departure,omitempty"`
	ReturnArrival     *time.Time      `db:"return_arrival" json:"return_arrival,omitempty"`
	Stops             *int            `db:"stops" json:"stops,omitempty"`
	RawData           json.RawMessage `db:"raw_data" json:"raw_data,omitempty"`
	RawDataURL        *string         `db:"raw_data_url" json:"raw_data_url,omitempty"`
	ScrapedAt         time.Time       `db:"scraped_at" json:"scraped_at"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}
