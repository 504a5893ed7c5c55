// Package scraper defines the provider-agnostic data-collection layer:
// the Provider contract, the registry that resolves provider names, the
// retry executor, and the rate-limiter contract. Providers themselves live
// in the providers subpackage and must stay free of retry and rate-limit
// logic; the caller enforces both uniformly.
package scraper

import (
	"time"

	"github.com/google/uuid"
)

// Query carries the parameters of one scrape. Built by the service layer
// from a trip plus the watch's provider and cabin class.
type Query struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Travelers     int
	CabinClass    string
	TripID        uuid.UUID
	UserID        uuid.UUID
}

// PriceResult is one price observed by a provider, before it is mapped into
// a persisted snapshot. Price is in minor currency units.
type PriceResult struct {
	Provider          string
	Price             int64
	Currency          string
	CabinClass        string
	Airline           string
	OutboundDeparture *time.Time
	OutboundArrival   *time.Time
	ReturnDeparture   *time.Time
	ReturnArrival     *time.Time
	Stops             *int
	RawData           []byte
	ScrapedAt         time.Time
}
