// Package notification defines the dispatch contract the alerting core
// depends on. How a notification actually reaches the user (email, push)
// is a deployment concern; the core only needs a success/failure answer so
// the alert's delivery status can be recorded.
package notification

import (
	"context"

	"github.com/google/uuid"
)

// Payload is everything a dispatcher needs to deliver one alert.
type Payload struct {
	UserID  uuid.UUID
	AlertID uuid.UUID
	Subject string
	Body    string
}

// Dispatcher delivers an alert notification. Send returns an error on
// delivery failure; the caller records the outcome on the alert record and
// never re-triggers the alert.
type Dispatcher interface {
	Channel() string
	Send(ctx context.Context, payload Payload) error
}
