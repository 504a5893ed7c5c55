package notification

import (
	"context"
	"log"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

// LogDispatcher writes alerts to the application log instead of sending
// them anywhere. Default channel for development deployments.
type LogDispatcher struct{}

func NewLogDispatcher() LogDispatcher { return LogDispatcher{} }

func (LogDispatcher) Channel() string { return domain.AlertChannelLog }

func (LogDispatcher) Send(ctx context.Context, payload Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("ALERT [user=%s alert=%s] %s: %s",
		payload.UserID, payload.AlertID, payload.Subject, payload.Body)
	return nil
}
