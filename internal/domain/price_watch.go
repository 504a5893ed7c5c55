package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bounds for watch scheduling fields. Values outside these ranges are
// rejected at create/update time.
const (
	MinCheckInterval = 30 * time.Minute
	MaxCheckInterval = 24 * time.Hour
	MinCooldown      = time.Hour
	MaxCooldown      = 72 * time.Hour
)

// PriceWatch is a standing rule that raises an alert when the observed price
// for a trip drops below the target. Prices are in minor currency units
// (cents). LastCheckedAt and LastAlertedAt are the only fields the scraping
// pipeline mutates.
type PriceWatch struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	UserID               uuid.UUID  `db:"user_id" json:"user_id"`
	TripID               uuid.UUID  `db:"trip_id" json:"trip_id"`
	Provider             string     `db:"provider" json:"provider"`
	TargetPrice          int64      `db:"target_price" json:"target_price"`
	Currency             string     `db:"currency" json:"currency"`
	CabinClass           string     `db:"cabin_class" json:"cabin_class"`
	IsActive             bool       `db:"is_active" json:"is_active"`
	CheckIntervalMinutes int        `db:"check_interval_minutes" json:"check_interval_minutes"`
	CooldownMinutes      int        `db:"cooldown_minutes" json:"cooldown_minutes"`
	LastCheckedAt        *time.Time `db:"last_checked_at" json:"last_checked_at,omitempty"`
	LastAlertedAt        *time.Time `db:"last_alerted_at" json:"last_alerted_at,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

func (w PriceWatch) CheckInterval() time.Duration {
	return time.Duration(w.CheckIntervalMinutes) * time.Minute
}

func (w PriceWatch) Cooldown() time.Duration {
	return time.Duration(w.CooldownMinutes) * time.Minute
}

// Due reports whether the watch needs a re-check at the given instant.
// A never-checked watch is always due.
func (w PriceWatch) Due(now time.Time) bool {
	if !w.IsActive {
		return false
	}
	if w.LastCheckedAt == nil {
		return true
	}
	return !w.LastCheckedAt.Add(w.CheckInterval()).After(now)
}
