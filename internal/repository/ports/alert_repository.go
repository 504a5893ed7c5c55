package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/faredrop/faredrop-backend/internal/domain"
)

type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) (*domain.Alert, error)
	UpdateStatus(ctx context.Context, alertID uuid.UUID, status string, sentAt *time.Time) error
	FindByID(ctx context.Context, userID, alertID uuid.UUID) (*domain.Alert, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Alert, error)
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	ListForWatch(ctx context.Context, userID, watchID uuid.UUID, limit, offset int) ([]domain.Alert, error)
	CountForWatch(ctx context.Context, userID, watchID uuid.UUID) (int64, error)
}
