package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	AlertTypePriceDrop = "price_drop"

	AlertChannelEmail = "email"
	AlertChannelLog   = "log"

	AlertStatusPending = "pending"
	AlertStatusSent    = "sent"
	AlertStatusFailed  = "failed"
)

// Alert records one triggered price-drop notification. Status starts as
// pending; the dispatcher's outcome moves it to sent or failed. A failed
// dispatch never un-triggers the alert or refunds the watch cooldown.
type Alert struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PriceWatchID    uuid.UUID  `db:"price_watch_id" json:"price_watch_id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	PriceSnapshotID uuid.UUID  `db:"price_snapshot_id" json:"price_snapshot_id"`
	AlertType       string     `db:"alert_type" json:"alert_type"`
	Channel         string     `db:"channel" json:"channel"`
	Status          string     `db:"status" json:"status"`
	TargetPrice     int64      `db:"target_price" json:"target_price"`
	TriggeredPrice  int64      `db:"triggered_price" json:"triggered_price"`
	Message         *string    `db:"message" json:"message,omitempty"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}
